package models

import (
	"fmt"
	"time"
)

// Роль пользователя
type Role string

const (
	RoleProjectOwner Role = "project_owner"
	RoleVendor       Role = "vendor"
	RoleAdmin        Role = "admin"
)

// Valid сообщает, входит ли роль в допустимый набор
func (r Role) Valid() bool {
	switch r {
	case RoleProjectOwner, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Статусы RFQ, которые учитывает логика доступа. Остальные значения свободные.
const (
	RfqStatusOpen    = "open"
	RfqStatusClosed  = "closed"
	RfqStatusAwarded = "awarded"
)

const (
	ProjectStatusActive  = "active"
	QuoteStatusSubmitted = "submitted"
)

// Тип сущности, к которой прикреплён документ
type EntityType string

const (
	EntityProject     EntityType = "project"
	EntityRfq         EntityType = "rfq"
	EntityRequirement EntityType = "requirement"
	EntityQuote       EntityType = "quote"
)

// ParseEntityType единственный способ получить EntityType из внешнего ввода
func ParseEntityType(s string) (EntityType, error) {
	switch t := EntityType(s); t {
	case EntityProject, EntityRfq, EntityRequirement, EntityQuote:
		return t, nil
	}
	return "", fmt.Errorf("invalid entity type %q", s)
}

func (t *EntityType) UnmarshalText(b []byte) error {
	parsed, err := ParseEntityType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Сущность Пользователя
type User struct {
	ID               int64      `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Role             Role       `db:"role" json:"role"`
	CompanyName      *string    `db:"company_name" json:"company_name"`
	ContactPerson    *string    `db:"contact_person" json:"contact_person"`
	Phone            *string    `db:"phone" json:"phone"`
	Address          *string    `db:"address" json:"address"`
	GSTNumber        *string    `db:"gst_number" json:"gst_number"`
	ResetToken       *string    `db:"reset_token" json:"-"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry" json:"-"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Сущность Проекта
type Project struct {
	ID          int64     `db:"id" json:"id"`
	CustomID    string    `db:"custom_id" json:"custom_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	Location    *string   `db:"location" json:"location"`
	Deadline    *Date     `db:"deadline" json:"deadline"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Сущность Позиции проекта
type Requirement struct {
	ID              int64     `db:"id" json:"id"`
	CustomID        string    `db:"custom_id" json:"custom_id"`
	ProjectID       int64     `db:"project_id" json:"project_id"`
	ProjectCustomID *string   `db:"project_custom_id" json:"project_custom_id"`
	ItemName        string    `db:"item_name" json:"item_name"`
	Description     *string   `db:"description" json:"description"`
	Quantity        float64   `db:"quantity" json:"quantity"`
	Unit            string    `db:"unit" json:"unit"`
	Rate            *float64  `db:"rate" json:"rate"`
	Category        *string   `db:"category" json:"category"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Сущность Запроса котировок
type Rfq struct {
	ID                  int64     `db:"id" json:"id"`
	CustomID            string    `db:"custom_id" json:"custom_id"`
	ProjectID           int64     `db:"project_id" json:"project_id"`
	ProjectCustomID     *string   `db:"project_custom_id" json:"project_custom_id"`
	Title               string    `db:"title" json:"title"`
	Description         *string   `db:"description" json:"description"`
	Deadline            Date      `db:"deadline" json:"deadline"`
	Status              string    `db:"status" json:"status"`
	ContactPerson       *string   `db:"contact_person" json:"contact_person"`
	ContactEmail        *string   `db:"contact_email" json:"contact_email"`
	ContactPhone        *string   `db:"contact_phone" json:"contact_phone"`
	SpecialRequirements *string   `db:"special_requirements" json:"special_requirements"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Сущность Котировки. VendorID это id пользователя с ролью vendor.
type Quote struct {
	ID          int64     `db:"id" json:"id"`
	CustomID    string    `db:"custom_id" json:"custom_id"`
	RfqID       int64     `db:"rfq_id" json:"rfq_id"`
	RfqCustomID *string   `db:"rfq_custom_id" json:"rfq_custom_id"`
	VendorID    int64     `db:"vendor_id" json:"vendor_id"`
	Status      string    `db:"status" json:"status"`
	TotalAmount float64   `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Профиль поставщика, один на пользователя
type Vendor struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	CompanyName   string    `db:"company_name" json:"company_name"`
	ContactPerson *string   `db:"contact_person" json:"contact_person"`
	Phone         *string   `db:"phone" json:"phone"`
	Email         *string   `db:"email" json:"email"`
	Address       *string   `db:"address" json:"address"`
	GSTNumber     *string   `db:"gst_number" json:"gst_number"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Документ, прикреплённый к проекту, RFQ, позиции или котировке
type Document struct {
	ID           int64      `db:"id" json:"id"`
	EntityType   EntityType `db:"entity_type" json:"entity_type"`
	EntityID     int64      `db:"entity_id" json:"entity_id"`
	Filename     string     `db:"filename" json:"filename"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FilePath     string     `db:"file_path" json:"file_path"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	MimeType     string     `db:"mime_type" json:"mime_type"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
