package db

import (
	"context"

	"procurement/models"
)

const rfqColumns = `
        q.id, q.custom_id, q.project_id, p.custom_id AS project_custom_id, q.title, q.description,
        q.deadline, q.status, q.contact_person, q.contact_email, q.contact_phone,
        q.special_requirements, q.created_at, q.updated_at`

func withRfqJoin(cte string) string {
	return `WITH q AS (` + cte + `)
        SELECT` + rfqColumns + `
        FROM q LEFT JOIN projects p ON p.id = q.project_id`
}

const rfqNewestFirst = `
        ORDER BY q.created_at DESC, q.id DESC`

func (s *Storage) CreateRfq(ctx context.Context, r *models.Rfq) error {
	if r.Status == "" {
		r.Status = models.RfqStatusOpen
	}
	query := withRfqJoin(`
        INSERT INTO rfqs
            (custom_id, project_id, title, description, deadline, status,
             contact_person, contact_email, contact_phone, special_requirements)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING *`)
	return mapErr(s.db.GetContext(ctx, r, query,
		r.CustomID, r.ProjectID, r.Title, r.Description, r.Deadline, r.Status,
		r.ContactPerson, r.ContactEmail, r.ContactPhone, r.SpecialRequirements))
}

func (s *Storage) GetRfq(ctx context.Context, id int64) (*models.Rfq, error) {
	r := &models.Rfq{}
	if err := s.db.GetContext(ctx, r, withRfqJoin(`SELECT * FROM rfqs WHERE id = $1`), id); err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (s *Storage) selectRfqs(ctx context.Context, cte string, args ...any) ([]models.Rfq, error) {
	rfqs := []models.Rfq{}
	if err := s.db.SelectContext(ctx, &rfqs, withRfqJoin(cte)+rfqNewestFirst, args...); err != nil {
		return nil, mapErr(err)
	}
	return rfqs, nil
}

func (s *Storage) GetRfqs(ctx context.Context) ([]models.Rfq, error) {
	return s.selectRfqs(ctx, `SELECT * FROM rfqs`)
}

func (s *Storage) GetOpenRfqs(ctx context.Context) ([]models.Rfq, error) {
	return s.selectRfqs(ctx, `SELECT * FROM rfqs WHERE status = $1`, models.RfqStatusOpen)
}

// GetClosedRfqs статусы awarded и closed
func (s *Storage) GetClosedRfqs(ctx context.Context) ([]models.Rfq, error) {
	return s.selectRfqs(ctx, `SELECT * FROM rfqs WHERE status IN ($1, $2)`,
		models.RfqStatusAwarded, models.RfqStatusClosed)
}

func (s *Storage) GetRfqsByProject(ctx context.Context, projectID int64) ([]models.Rfq, error) {
	return s.selectRfqs(ctx, `SELECT * FROM rfqs WHERE project_id = $1`, projectID)
}

func (s *Storage) GetClosedRfqsByProject(ctx context.Context, projectID int64) ([]models.Rfq, error) {
	return s.selectRfqs(ctx, `SELECT * FROM rfqs WHERE project_id = $1 AND status IN ($2, $3)`,
		projectID, models.RfqStatusAwarded, models.RfqStatusClosed)
}

// GetRfqsQuotedByVendor RFQ, по которым поставщик подал хотя бы одну котировку
func (s *Storage) GetRfqsQuotedByVendor(ctx context.Context, vendorID int64) ([]models.Rfq, error) {
	return s.selectRfqs(ctx, `
        SELECT * FROM rfqs
        WHERE id IN (SELECT rfq_id FROM quotes WHERE vendor_id = $1)`, vendorID)
}

func (s *Storage) UpdateRfq(ctx context.Context, id int64, patch models.RfqPatch) (*models.Rfq, error) {
	update, args, err := buildUpdate("rfqs", id, patch.Assignments())
	if err != nil {
		return nil, err
	}
	r := &models.Rfq{}
	if err := s.db.GetContext(ctx, r, withRfqJoin(update), args...); err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (s *Storage) DeleteRfq(ctx context.Context, id int64) (*models.Rfq, error) {
	r := &models.Rfq{}
	query := withRfqJoin(`DELETE FROM rfqs WHERE id = $1 RETURNING *`)
	if err := s.db.GetContext(ctx, r, query, id); err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}
