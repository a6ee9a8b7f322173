package access

import (
	"context"
	"errors"
	"fmt"

	"procurement/db"
	"procurement/models"
)

// Store чтения, нужные для разрешения цепочек владения
type Store interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetRfq(ctx context.Context, id int64) (*models.Rfq, error)
	HasVendorQuotedRfq(ctx context.Context, vendorID, rfqID int64) (bool, error)
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// project: отсутствующий проект не ошибка, звено просто пустое
func (r *Resolver) project(ctx context.Context, id int64) (*models.Project, error) {
	p, err := r.store.GetProject(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve project %d: %w", id, err)
	}
	return p, nil
}

func (r *Resolver) rfq(ctx context.Context, id int64) (*models.Rfq, error) {
	q, err := r.store.GetRfq(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve rfq %d: %w", id, err)
	}
	return q, nil
}

// RequirementChain Requirement -> Project
func (r *Resolver) RequirementChain(ctx context.Context, req *models.Requirement) (Subject, error) {
	p, err := r.project(ctx, req.ProjectID)
	if err != nil {
		return Subject{}, err
	}
	return Subject{Project: p}, nil
}

// RfqChain Rfq -> Project. Для вендора дополнительно проверяет участие в RFQ.
func (r *Resolver) RfqChain(ctx context.Context, c Caller, rfq *models.Rfq) (Subject, error) {
	p, err := r.project(ctx, rfq.ProjectID)
	if err != nil {
		return Subject{}, err
	}
	s := Subject{Project: p, Rfq: rfq}
	if c.Is(models.RoleVendor) {
		s.HasQuoted, err = r.store.HasVendorQuotedRfq(ctx, c.ID, rfq.ID)
		if err != nil {
			return Subject{}, fmt.Errorf("resolve vendor participation: %w", err)
		}
	}
	return s, nil
}

// QuoteChain Quote -> Rfq -> Project
func (r *Resolver) QuoteChain(ctx context.Context, q *models.Quote) (Subject, error) {
	s := Subject{Quote: q}
	rfq, err := r.rfq(ctx, q.RfqID)
	if err != nil || rfq == nil {
		return s, err
	}
	s.Rfq = rfq
	s.Project, err = r.project(ctx, rfq.ProjectID)
	if err != nil {
		return Subject{}, err
	}
	return s, nil
}
