package db

import (
	"context"
	"time"

	"procurement/models"
)

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users
            (name, email, password_hash, role, company_name, contact_person, phone, address, gst_number)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Role, u.CompanyName, u.ContactPerson, u.Phone, u.Address, u.GSTNumber).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	if err := s.db.GetContext(ctx, u, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	if err := s.db.GetContext(ctx, u, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// GetUserByResetToken ищет по токену без учёта срока: срок проверяет вызывающий
func (s *Storage) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	u := &models.User{}
	if err := s.db.GetContext(ctx, u, `SELECT * FROM users WHERE reset_token = $1`, token); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	query, args, err := buildUpdate("users", id, patch.Assignments())
	if err != nil {
		return nil, err
	}
	u := &models.User{}
	if err := s.db.GetContext(ctx, u, query, args...); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Storage) SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	query := `
        UPDATE users
        SET reset_token = $1, reset_token_expiry = $2, updated_at = NOW()
        WHERE id = $3`
	res, err := s.db.ExecContext(ctx, query, token, expiry, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// ConsumeResetToken одной командой меняет пароль и гасит токен.
// Просроченный или уже использованный токен не найдёт строку.
func (s *Storage) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error) {
	query := `
        UPDATE users
        SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
        WHERE reset_token = $2 AND reset_token_expiry > $3
        RETURNING *`
	u := &models.User{}
	if err := s.db.GetContext(ctx, u, query, passwordHash, token, now); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}
