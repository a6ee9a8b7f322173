package handlers

import (
	"context"
	"time"

	"procurement/models"
)

// StorageInterface всё, что обработчикам нужно от хранилища. *db.Storage реализует его целиком.
type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error)

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetProjectsByOwner(ctx context.Context, ownerID int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, id int64, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) (*models.Project, error)

	CreateRequirement(ctx context.Context, r *models.Requirement) error
	GetRequirement(ctx context.Context, id int64) (*models.Requirement, error)
	GetRequirementsByProject(ctx context.Context, projectID int64) ([]models.Requirement, error)
	UpdateRequirement(ctx context.Context, id int64, patch models.RequirementPatch) (*models.Requirement, error)
	DeleteRequirement(ctx context.Context, id int64) (*models.Requirement, error)

	CreateRfq(ctx context.Context, r *models.Rfq) error
	GetRfq(ctx context.Context, id int64) (*models.Rfq, error)
	GetRfqs(ctx context.Context) ([]models.Rfq, error)
	GetOpenRfqs(ctx context.Context) ([]models.Rfq, error)
	GetClosedRfqs(ctx context.Context) ([]models.Rfq, error)
	GetRfqsByProject(ctx context.Context, projectID int64) ([]models.Rfq, error)
	GetClosedRfqsByProject(ctx context.Context, projectID int64) ([]models.Rfq, error)
	GetRfqsQuotedByVendor(ctx context.Context, vendorID int64) ([]models.Rfq, error)
	UpdateRfq(ctx context.Context, id int64, patch models.RfqPatch) (*models.Rfq, error)
	DeleteRfq(ctx context.Context, id int64) (*models.Rfq, error)

	CreateQuote(ctx context.Context, q *models.Quote) error
	GetQuote(ctx context.Context, id int64) (*models.Quote, error)
	GetQuotes(ctx context.Context) ([]models.Quote, error)
	GetQuotesByRfq(ctx context.Context, rfqID int64) ([]models.Quote, error)
	GetQuotesByVendor(ctx context.Context, vendorID int64) ([]models.Quote, error)
	HasVendorQuotedRfq(ctx context.Context, vendorID, rfqID int64) (bool, error)
	UpdateQuote(ctx context.Context, id int64, patch models.QuotePatch) (*models.Quote, error)
	DeleteQuote(ctx context.Context, id int64) (*models.Quote, error)

	CreateVendor(ctx context.Context, v *models.Vendor) error
	GetVendor(ctx context.Context, id int64) (*models.Vendor, error)
	GetVendorByUser(ctx context.Context, userID int64) (*models.Vendor, error)
	GetVendors(ctx context.Context) ([]models.Vendor, error)
	UpdateVendor(ctx context.Context, id int64, patch models.VendorPatch) (*models.Vendor, error)
	DeleteVendor(ctx context.Context, id int64) (*models.Vendor, error)

	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	GetDocumentsByEntity(ctx context.Context, entityType models.EntityType, entityID int64) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id int64) (*models.Document, error)
}
