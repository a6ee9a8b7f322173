package db

import (
	"context"

	"procurement/models"
)

// Отображаемый id проекта подтягивается join-ом при каждом чтении
const requirementColumns = `
        r.id, r.custom_id, r.project_id, p.custom_id AS project_custom_id, r.item_name, r.description,
        r.quantity, r.unit, r.rate, r.category, r.created_at, r.updated_at`

func withRequirementJoin(cte string) string {
	return `WITH r AS (` + cte + `)
        SELECT` + requirementColumns + `
        FROM r LEFT JOIN projects p ON p.id = r.project_id`
}

func (s *Storage) CreateRequirement(ctx context.Context, r *models.Requirement) error {
	query := withRequirementJoin(`
        INSERT INTO requirements
            (custom_id, project_id, item_name, description, quantity, unit, rate, category)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING *`)
	return mapErr(s.db.GetContext(ctx, r, query,
		r.CustomID, r.ProjectID, r.ItemName, r.Description, r.Quantity, r.Unit, r.Rate, r.Category))
}

func (s *Storage) GetRequirement(ctx context.Context, id int64) (*models.Requirement, error) {
	r := &models.Requirement{}
	query := withRequirementJoin(`SELECT * FROM requirements WHERE id = $1`)
	if err := s.db.GetContext(ctx, r, query, id); err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

// GetRequirementsByProject в порядке добавления (старые первыми)
func (s *Storage) GetRequirementsByProject(ctx context.Context, projectID int64) ([]models.Requirement, error) {
	reqs := []models.Requirement{}
	query := withRequirementJoin(`SELECT * FROM requirements WHERE project_id = $1`) + `
        ORDER BY r.created_at ASC, r.id ASC`
	if err := s.db.SelectContext(ctx, &reqs, query, projectID); err != nil {
		return nil, mapErr(err)
	}
	return reqs, nil
}

func (s *Storage) UpdateRequirement(ctx context.Context, id int64, patch models.RequirementPatch) (*models.Requirement, error) {
	update, args, err := buildUpdate("requirements", id, patch.Assignments())
	if err != nil {
		return nil, err
	}
	r := &models.Requirement{}
	if err := s.db.GetContext(ctx, r, withRequirementJoin(update), args...); err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (s *Storage) DeleteRequirement(ctx context.Context, id int64) (*models.Requirement, error) {
	r := &models.Requirement{}
	query := withRequirementJoin(`DELETE FROM requirements WHERE id = $1 RETURNING *`)
	if err := s.db.GetContext(ctx, r, query, id); err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}
