package db

import (
	"context"

	"procurement/models"
)

const quoteColumns = `
        qt.id, qt.custom_id, qt.rfq_id, r.custom_id AS rfq_custom_id, qt.vendor_id, qt.status,
        qt.total_amount, qt.created_at, qt.updated_at`

func withQuoteJoin(cte string) string {
	return `WITH qt AS (` + cte + `)
        SELECT` + quoteColumns + `
        FROM qt LEFT JOIN rfqs r ON r.id = qt.rfq_id`
}

const quoteNewestFirst = `
        ORDER BY qt.created_at DESC, qt.id DESC`

func (s *Storage) CreateQuote(ctx context.Context, q *models.Quote) error {
	if q.Status == "" {
		q.Status = models.QuoteStatusSubmitted
	}
	query := withQuoteJoin(`
        INSERT INTO quotes
            (custom_id, rfq_id, vendor_id, status, total_amount)
        VALUES
            ($1, $2, $3, $4, $5)
        RETURNING *`)
	return mapErr(s.db.GetContext(ctx, q, query, q.CustomID, q.RfqID, q.VendorID, q.Status, q.TotalAmount))
}

func (s *Storage) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	q := &models.Quote{}
	if err := s.db.GetContext(ctx, q, withQuoteJoin(`SELECT * FROM quotes WHERE id = $1`), id); err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

func (s *Storage) selectQuotes(ctx context.Context, cte string, args ...any) ([]models.Quote, error) {
	quotes := []models.Quote{}
	if err := s.db.SelectContext(ctx, &quotes, withQuoteJoin(cte)+quoteNewestFirst, args...); err != nil {
		return nil, mapErr(err)
	}
	return quotes, nil
}

func (s *Storage) GetQuotes(ctx context.Context) ([]models.Quote, error) {
	return s.selectQuotes(ctx, `SELECT * FROM quotes`)
}

func (s *Storage) GetQuotesByRfq(ctx context.Context, rfqID int64) ([]models.Quote, error) {
	return s.selectQuotes(ctx, `SELECT * FROM quotes WHERE rfq_id = $1`, rfqID)
}

func (s *Storage) GetQuotesByVendor(ctx context.Context, vendorID int64) ([]models.Quote, error) {
	return s.selectQuotes(ctx, `SELECT * FROM quotes WHERE vendor_id = $1`, vendorID)
}

func (s *Storage) HasVendorQuotedRfq(ctx context.Context, vendorID, rfqID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM quotes WHERE vendor_id = $1 AND rfq_id = $2)`
	if err := s.db.GetContext(ctx, &exists, query, vendorID, rfqID); err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}

func (s *Storage) UpdateQuote(ctx context.Context, id int64, patch models.QuotePatch) (*models.Quote, error) {
	update, args, err := buildUpdate("quotes", id, patch.Assignments())
	if err != nil {
		return nil, err
	}
	q := &models.Quote{}
	if err := s.db.GetContext(ctx, q, withQuoteJoin(update), args...); err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

func (s *Storage) DeleteQuote(ctx context.Context, id int64) (*models.Quote, error) {
	q := &models.Quote{}
	query := withQuoteJoin(`DELETE FROM quotes WHERE id = $1 RETURNING *`)
	if err := s.db.GetContext(ctx, q, query, id); err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}
