package db

import (
	"context"

	"procurement/models"
)

func (s *Storage) CreateVendor(ctx context.Context, v *models.Vendor) error {
	query := `
        INSERT INTO vendors
            (user_id, company_name, contact_person, phone, email, address, gst_number)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		v.UserID, v.CompanyName, v.ContactPerson, v.Phone, v.Email, v.Address, v.GSTNumber).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetVendor(ctx context.Context, id int64) (*models.Vendor, error) {
	v := &models.Vendor{}
	if err := s.db.GetContext(ctx, v, `SELECT * FROM vendors WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (s *Storage) GetVendorByUser(ctx context.Context, userID int64) (*models.Vendor, error) {
	v := &models.Vendor{}
	if err := s.db.GetContext(ctx, v, `SELECT * FROM vendors WHERE user_id = $1`, userID); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (s *Storage) GetVendors(ctx context.Context) ([]models.Vendor, error) {
	vendors := []models.Vendor{}
	if err := s.db.SelectContext(ctx, &vendors, `SELECT * FROM vendors ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, mapErr(err)
	}
	return vendors, nil
}

func (s *Storage) UpdateVendor(ctx context.Context, id int64, patch models.VendorPatch) (*models.Vendor, error) {
	query, args, err := buildUpdate("vendors", id, patch.Assignments())
	if err != nil {
		return nil, err
	}
	v := &models.Vendor{}
	if err := s.db.GetContext(ctx, v, query, args...); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (s *Storage) DeleteVendor(ctx context.Context, id int64) (*models.Vendor, error) {
	v := &models.Vendor{}
	if err := s.db.GetContext(ctx, v, `DELETE FROM vendors WHERE id = $1 RETURNING *`, id); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}
