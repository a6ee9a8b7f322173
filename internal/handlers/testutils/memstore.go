package testutils

import (
	"context"
	"sort"
	"sync"
	"time"

	"procurement/db"
	"procurement/models"
)

// MemStore хранилище в памяти с теми же ошибками и порядками, что у db.Storage.
// Производные custom_id родителей вычисляются при чтении.
type MemStore struct {
	mu    sync.Mutex
	clock time.Time
	seq   int64

	users        map[int64]models.User
	projects     map[int64]models.Project
	requirements map[int64]models.Requirement
	rfqs         map[int64]models.Rfq
	quotes       map[int64]models.Quote
	vendors      map[int64]models.Vendor
	documents    map[int64]models.Document

	// Fail принудительная ошибка по имени метода
	Fail map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{
		clock:        time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		users:        map[int64]models.User{},
		projects:     map[int64]models.Project{},
		requirements: map[int64]models.Requirement{},
		rfqs:         map[int64]models.Rfq{},
		quotes:       map[int64]models.Quote{},
		vendors:      map[int64]models.Vendor{},
		documents:    map[int64]models.Document{},
		Fail:         map[string]error{},
	}
}

// next выдаёт id и строго растущее время создания
func (m *MemStore) next() (int64, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Second)
	return m.seq, m.clock
}

func (m *MemStore) touch() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MemStore) Ping(context.Context) error {
	return m.Fail["Ping"]
}

// сортировки

func newestFirst(aCreated, bCreated time.Time, aID, bID int64) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID > bID
}

// пользователи

func (m *MemStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["CreateUser"]; err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return db.ErrDuplicate
		}
	}
	u.ID, u.CreatedAt = m.next()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) GetUserByResetToken(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) UpdateUser(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(patch.Assignments()) == 0 {
		return nil, db.ErrNoFieldsToUpdate
	}
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	patch.Apply(&u)
	u.UpdatedAt = m.touch()
	m.users[id] = u
	return &u, nil
}

func (m *MemStore) SetResetToken(_ context.Context, id int64, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.ResetToken, u.ResetTokenExpiry = &token, &expiry
	m.users[id] = u
	return nil
}

func (m *MemStore) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.ResetToken == nil || *u.ResetToken != token || u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.After(now) {
			continue
		}
		u.PasswordHash = passwordHash
		u.ResetToken, u.ResetTokenExpiry = nil, nil
		u.UpdatedAt = m.touch()
		m.users[id] = u
		return &u, nil
	}
	return nil, db.ErrNotFound
}

// проекты

func (m *MemStore) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}
	p.ID, p.CreatedAt = m.next()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = *p
	return nil
}

func (m *MemStore) GetProject(_ context.Context, id int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) GetProjectsByOwner(_ context.Context, ownerID int64) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Project{}
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (m *MemStore) UpdateProject(_ context.Context, id int64, patch models.ProjectPatch) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(patch.Assignments()) == 0 {
		return nil, db.ErrNoFieldsToUpdate
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	patch.Apply(&p)
	p.UpdatedAt = m.touch()
	m.projects[id] = p
	return &p, nil
}

func (m *MemStore) DeleteProject(_ context.Context, id int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(m.projects, id)
	return &p, nil
}

// позиции

func (m *MemStore) requirementView(r models.Requirement) models.Requirement {
	r.ProjectCustomID = nil
	if p, ok := m.projects[r.ProjectID]; ok {
		id := p.CustomID
		r.ProjectCustomID = &id
	}
	return r
}

func (m *MemStore) CreateRequirement(_ context.Context, r *models.Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID, r.CreatedAt = m.next()
	r.UpdatedAt = r.CreatedAt
	m.requirements[r.ID] = *r
	*r = m.requirementView(*r)
	return nil
}

func (m *MemStore) GetRequirement(_ context.Context, id int64) (*models.Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requirements[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	r = m.requirementView(r)
	return &r, nil
}

func (m *MemStore) GetRequirementsByProject(_ context.Context, projectID int64) ([]models.Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Requirement{}
	for _, r := range m.requirements {
		if r.ProjectID == projectID {
			out = append(out, m.requirementView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID)
	})
	return out, nil
}

func (m *MemStore) UpdateRequirement(_ context.Context, id int64, patch models.RequirementPatch) (*models.Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(patch.Assignments()) == 0 {
		return nil, db.ErrNoFieldsToUpdate
	}
	r, ok := m.requirements[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	patch.Apply(&r)
	r.UpdatedAt = m.touch()
	m.requirements[id] = r
	r = m.requirementView(r)
	return &r, nil
}

func (m *MemStore) DeleteRequirement(_ context.Context, id int64) (*models.Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requirements[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(m.requirements, id)
	r = m.requirementView(r)
	return &r, nil
}

// RFQ

func (m *MemStore) rfqView(r models.Rfq) models.Rfq {
	r.ProjectCustomID = nil
	if p, ok := m.projects[r.ProjectID]; ok {
		id := p.CustomID
		r.ProjectCustomID = &id
	}
	return r
}

func (m *MemStore) rfqsWhere(keep func(models.Rfq) bool) []models.Rfq {
	out := []models.Rfq{}
	for _, r := range m.rfqs {
		if keep(r) {
			out = append(out, m.rfqView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func isClosed(r models.Rfq) bool {
	return r.Status == models.RfqStatusAwarded || r.Status == models.RfqStatusClosed
}

func (m *MemStore) CreateRfq(_ context.Context, r *models.Rfq) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status == "" {
		r.Status = models.RfqStatusOpen
	}
	r.ID, r.CreatedAt = m.next()
	r.UpdatedAt = r.CreatedAt
	m.rfqs[r.ID] = *r
	*r = m.rfqView(*r)
	return nil
}

func (m *MemStore) GetRfq(_ context.Context, id int64) (*models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rfqs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	r = m.rfqView(r)
	return &r, nil
}

func (m *MemStore) GetRfqs(context.Context) ([]models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rfqsWhere(func(models.Rfq) bool { return true }), nil
}

func (m *MemStore) GetOpenRfqs(context.Context) ([]models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rfqsWhere(func(r models.Rfq) bool { return r.Status == models.RfqStatusOpen }), nil
}

func (m *MemStore) GetClosedRfqs(context.Context) ([]models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rfqsWhere(isClosed), nil
}

func (m *MemStore) GetRfqsByProject(_ context.Context, projectID int64) ([]models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rfqsWhere(func(r models.Rfq) bool { return r.ProjectID == projectID }), nil
}

func (m *MemStore) GetClosedRfqsByProject(_ context.Context, projectID int64) ([]models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rfqsWhere(func(r models.Rfq) bool { return r.ProjectID == projectID && isClosed(r) }), nil
}

func (m *MemStore) GetRfqsQuotedByVendor(_ context.Context, vendorID int64) ([]models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	quoted := map[int64]bool{}
	for _, q := range m.quotes {
		if q.VendorID == vendorID {
			quoted[q.RfqID] = true
		}
	}
	return m.rfqsWhere(func(r models.Rfq) bool { return quoted[r.ID] }), nil
}

func (m *MemStore) UpdateRfq(_ context.Context, id int64, patch models.RfqPatch) (*models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(patch.Assignments()) == 0 {
		return nil, db.ErrNoFieldsToUpdate
	}
	r, ok := m.rfqs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	patch.Apply(&r)
	r.UpdatedAt = m.touch()
	m.rfqs[id] = r
	r = m.rfqView(r)
	return &r, nil
}

func (m *MemStore) DeleteRfq(_ context.Context, id int64) (*models.Rfq, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rfqs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(m.rfqs, id)
	r = m.rfqView(r)
	return &r, nil
}

// котировки

func (m *MemStore) quoteView(q models.Quote) models.Quote {
	q.RfqCustomID = nil
	if r, ok := m.rfqs[q.RfqID]; ok {
		id := r.CustomID
		q.RfqCustomID = &id
	}
	return q
}

func (m *MemStore) quotesWhere(keep func(models.Quote) bool) []models.Quote {
	out := []models.Quote{}
	for _, q := range m.quotes {
		if keep(q) {
			out = append(out, m.quoteView(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (m *MemStore) CreateQuote(_ context.Context, q *models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.Status == "" {
		q.Status = models.QuoteStatusSubmitted
	}
	q.ID, q.CreatedAt = m.next()
	q.UpdatedAt = q.CreatedAt
	m.quotes[q.ID] = *q
	*q = m.quoteView(*q)
	return nil
}

func (m *MemStore) GetQuote(_ context.Context, id int64) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	q = m.quoteView(q)
	return &q, nil
}

func (m *MemStore) GetQuotes(context.Context) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quotesWhere(func(models.Quote) bool { return true }), nil
}

func (m *MemStore) GetQuotesByRfq(_ context.Context, rfqID int64) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quotesWhere(func(q models.Quote) bool { return q.RfqID == rfqID }), nil
}

func (m *MemStore) GetQuotesByVendor(_ context.Context, vendorID int64) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quotesWhere(func(q models.Quote) bool { return q.VendorID == vendorID }), nil
}

func (m *MemStore) HasVendorQuotedRfq(_ context.Context, vendorID, rfqID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotes {
		if q.VendorID == vendorID && q.RfqID == rfqID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) UpdateQuote(_ context.Context, id int64, patch models.QuotePatch) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(patch.Assignments()) == 0 {
		return nil, db.ErrNoFieldsToUpdate
	}
	q, ok := m.quotes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	patch.Apply(&q)
	q.UpdatedAt = m.touch()
	m.quotes[id] = q
	q = m.quoteView(q)
	return &q, nil
}

func (m *MemStore) DeleteQuote(_ context.Context, id int64) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(m.quotes, id)
	q = m.quoteView(q)
	return &q, nil
}

// профили поставщиков

func (m *MemStore) CreateVendor(_ context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vendors {
		if existing.UserID == v.UserID {
			return db.ErrDuplicate
		}
	}
	v.ID, v.CreatedAt = m.next()
	v.UpdatedAt = v.CreatedAt
	m.vendors[v.ID] = *v
	return nil
}

func (m *MemStore) GetVendor(_ context.Context, id int64) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (m *MemStore) GetVendorByUser(_ context.Context, userID int64) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vendors {
		if v.UserID == userID {
			return &v, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) GetVendors(context.Context) ([]models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Vendor, 0, len(m.vendors))
	for _, v := range m.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (m *MemStore) UpdateVendor(_ context.Context, id int64, patch models.VendorPatch) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(patch.Assignments()) == 0 {
		return nil, db.ErrNoFieldsToUpdate
	}
	v, ok := m.vendors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	patch.Apply(&v)
	v.UpdatedAt = m.touch()
	m.vendors[id] = v
	return &v, nil
}

func (m *MemStore) DeleteVendor(_ context.Context, id int64) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(m.vendors, id)
	return &v, nil
}

// документы

func (m *MemStore) CreateDocument(_ context.Context, d *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail["CreateDocument"]; err != nil {
		return err
	}
	d.ID, d.CreatedAt = m.next()
	d.UpdatedAt = d.CreatedAt
	m.documents[d.ID] = *d
	return nil
}

func (m *MemStore) GetDocument(_ context.Context, id int64) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (m *MemStore) GetDocumentsByEntity(_ context.Context, entityType models.EntityType, entityID int64) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Document{}
	for _, d := range m.documents {
		if d.EntityType == entityType && d.EntityID == entityID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (m *MemStore) DeleteDocument(_ context.Context, id int64) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(m.documents, id)
	return &d, nil
}
