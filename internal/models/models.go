package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer"
)

const (
	AssetAvailable   = "available"
	AssetAssigned    = "assigned"
	AssetMaintenance = "maintenance"
	AssetRetired     = "retired"
)

const (
	TheftPending   = "pending"
	TheftResolved  = "resolved"
	TheftDismissed = "dismissed"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

type Profile struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	FullName  *string   `db:"full_name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Category struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	OwnerID     *string   `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Asset struct {
	ID           string              `db:"id"`
	Name         string              `db:"name"`
	Category     *string             `db:"category"`
	CategoryID   *string             `db:"category_id"`
	Description  *string             `db:"description"`
	SerialNumber *string             `db:"serial_number"`
	VIN          *string             `db:"vin"`
	PurchaseDate *time.Time          `db:"purchase_date"`
	Value        decimal.NullDecimal `db:"value"`
	Status       string              `db:"status"`
	Location     *string             `db:"location"`
	Condition    string              `db:"condition"`
	OwnerID      string              `db:"owner_id"`
	Metadata     []byte              `db:"metadata"`
	QRCode       string              `db:"qr_code"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`
}

type AssetAssignment struct {
	ID              string     `db:"id"`
	AssetID         string     `db:"asset_id"`
	AssignedTo      string     `db:"assigned_to"`
	AssignedBy      string     `db:"assigned_by"`
	AssignedDate    time.Time  `db:"assigned_date"`
	DueDate         *time.Time `db:"due_date"`
	ReturnDate      *time.Time `db:"return_date"`
	ReturnCondition *string    `db:"return_condition"`
	Notes           *string    `db:"notes"`
	CreatedAt       time.Time  `db:"created_at"`
}

func (a AssetAssignment) Open() bool {
	return a.ReturnDate == nil
}

type AssetNote struct {
	ID        string    `db:"id"`
	AssetID   string    `db:"asset_id"`
	OwnerID   string    `db:"owner_id"`
	Content   string    `db:"content"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type AssetInsurance struct {
	ID             string              `db:"id"`
	AssetID        string              `db:"asset_id"`
	OwnerID        string              `db:"owner_id"`
	IsInsured      bool                `db:"is_insured"`
	Provider       *string             `db:"provider"`
	PolicyNumber   *string             `db:"policy_number"`
	CoverageAmount decimal.NullDecimal `db:"coverage_amount"`
	PremiumAmount  decimal.NullDecimal `db:"premium_amount"`
	RenewalDate    *time.Time          `db:"renewal_date"`
	CreatedAt      time.Time           `db:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at"`
}

type AssetDocument struct {
	ID           string    `db:"id"`
	AssetID      string    `db:"asset_id"`
	OwnerID      string    `db:"owner_id"`
	Name         string    `db:"name"`
	Description  *string   `db:"description"`
	DocumentType string    `db:"document_type"`
	StorageKey   string    `db:"storage_key"`
	FileURL      string    `db:"file_url"`
	ContentType  string    `db:"content_type"`
	FileSize     int64     `db:"file_size"`
	CreatedAt    time.Time `db:"created_at"`
}

type AssetPhoto struct {
	ID          string    `db:"id"`
	AssetID     string    `db:"asset_id"`
	OwnerID     string    `db:"owner_id"`
	Description *string   `db:"description"`
	StorageKey  string    `db:"storage_key"`
	PhotoURL    string    `db:"photo_url"`
	ContentType string    `db:"content_type"`
	FileSize    int64     `db:"file_size"`
	IsPrimary   bool      `db:"is_primary"`
	CreatedAt   time.Time `db:"created_at"`
}

type TheftReport struct {
	ID            string    `db:"id"`
	AssetID       string    `db:"asset_id"`
	ReporterName  *string   `db:"reporter_name"`
	ReporterEmail *string   `db:"reporter_email"`
	ReporterPhone *string   `db:"reporter_phone"`
	Location      *string   `db:"location"`
	Description   string    `db:"description"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
