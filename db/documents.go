package db

import (
	"context"

	"procurement/models"
)

func (s *Storage) CreateDocument(ctx context.Context, d *models.Document) error {
	query := `
        INSERT INTO documents
            (entity_type, entity_id, filename, original_name, file_path, file_size, mime_type)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		d.EntityType, d.EntityID, d.Filename, d.OriginalName, d.FilePath, d.FileSize, d.MimeType).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	d := &models.Document{}
	if err := s.db.GetContext(ctx, d, `SELECT * FROM documents WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (s *Storage) GetDocumentsByEntity(ctx context.Context, entityType models.EntityType, entityID int64) ([]models.Document, error) {
	docs := []models.Document{}
	query := `
        SELECT * FROM documents
        WHERE entity_type = $1 AND entity_id = $2
        ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &docs, query, entityType, entityID); err != nil {
		return nil, mapErr(err)
	}
	return docs, nil
}

func (s *Storage) DeleteDocument(ctx context.Context, id int64) (*models.Document, error) {
	d := &models.Document{}
	if err := s.db.GetContext(ctx, d, `DELETE FROM documents WHERE id = $1 RETURNING *`, id); err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}
