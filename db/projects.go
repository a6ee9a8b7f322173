package db

import (
	"context"

	"procurement/models"
)

func (s *Storage) CreateProject(ctx context.Context, p *models.Project) error {
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}
	query := `
        INSERT INTO projects
            (custom_id, name, description, location, deadline, owner_id, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		p.CustomID, p.Name, p.Description, p.Location, p.Deadline, p.OwnerID, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	if err := s.db.GetContext(ctx, p, `SELECT * FROM projects WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (s *Storage) GetProjectsByOwner(ctx context.Context, ownerID int64) ([]models.Project, error) {
	projects := []models.Project{}
	query := `SELECT * FROM projects WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &projects, query, ownerID); err != nil {
		return nil, mapErr(err)
	}
	return projects, nil
}

func (s *Storage) UpdateProject(ctx context.Context, id int64, patch models.ProjectPatch) (*models.Project, error) {
	query, args, err := buildUpdate("projects", id, patch.Assignments())
	if err != nil {
		return nil, err
	}
	p := &models.Project{}
	if err := s.db.GetContext(ctx, p, query, args...); err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (s *Storage) DeleteProject(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	if err := s.db.GetContext(ctx, p, `DELETE FROM projects WHERE id = $1 RETURNING *`, id); err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}
