package httpapi

import (
	"encoding/json"
	"time"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/services"

	"github.com/shopspring/decimal"
)

type ProfileDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"fullName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfileDTO(p models.Profile) ProfileDTO {
	return ProfileDTO{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type CategoryDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     *string   `json:"ownerId"`
	Global      bool      `json:"global"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		OwnerID:     c.OwnerID,
		Global:      c.OwnerID == nil,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type AssetDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Category     *string          `json:"category"`
	CategoryID   *string          `json:"categoryId"`
	Description  *string          `json:"description"`
	SerialNumber *string          `json:"serialNumber"`
	VIN          *string          `json:"vin"`
	PurchaseDate *string          `json:"purchaseDate"`
	Value        *decimal.Decimal `json:"value"`
	Status       string           `json:"status"`
	Location     *string          `json:"location"`
	Condition    string           `json:"condition"`
	OwnerID      string           `json:"ownerId"`
	Metadata     json.RawMessage  `json:"metadata"`
	QRCode       string           `json:"qrCode"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func toAssetDTO(a models.Asset) AssetDTO {
	dto := AssetDTO{
		ID:           a.ID,
		Name:         a.Name,
		Category:     a.Category,
		CategoryID:   a.CategoryID,
		Description:  a.Description,
		SerialNumber: a.SerialNumber,
		VIN:          a.VIN,
		PurchaseDate: formatDate(a.PurchaseDate),
		Value:        nullDecimal(a.Value),
		Status:       a.Status,
		Location:     a.Location,
		Condition:    a.Condition,
		OwnerID:      a.OwnerID,
		Metadata:     json.RawMessage(`{}`),
		QRCode:       a.QRCode,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if len(a.Metadata) > 0 && json.Valid(a.Metadata) {
		dto.Metadata = json.RawMessage(a.Metadata)
	}
	return dto
}

type AssignmentDTO struct {
	ID              string     `json:"id"`
	AssetID         string     `json:"assetId"`
	AssignedTo      string     `json:"assignedTo"`
	AssignedBy      string     `json:"assignedBy"`
	AssignedDate    time.Time  `json:"assignedDate"`
	DueDate         *time.Time `json:"dueDate"`
	ReturnDate      *time.Time `json:"returnDate"`
	ReturnCondition *string    `json:"returnCondition"`
	Notes           *string    `json:"notes"`
	Open            bool       `json:"open"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toAssignmentDTO(a models.AssetAssignment) AssignmentDTO {
	return AssignmentDTO{
		ID:              a.ID,
		AssetID:         a.AssetID,
		AssignedTo:      a.AssignedTo,
		AssignedBy:      a.AssignedBy,
		AssignedDate:    a.AssignedDate,
		DueDate:         a.DueDate,
		ReturnDate:      a.ReturnDate,
		ReturnCondition: a.ReturnCondition,
		Notes:           a.Notes,
		Open:            a.Open(),
		CreatedAt:       a.CreatedAt,
	}
}

type NoteDTO struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"assetId"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toNoteDTO(n models.AssetNote) NoteDTO {
	return NoteDTO{
		ID:        n.ID,
		AssetID:   n.AssetID,
		Content:   n.Content,
		Category:  n.Category,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type InsuranceDTO struct {
	ID             string           `json:"id"`
	AssetID        string           `json:"assetId"`
	IsInsured      bool             `json:"isInsured"`
	Provider       *string          `json:"provider"`
	PolicyNumber   *string          `json:"policyNumber"`
	CoverageAmount *decimal.Decimal `json:"coverageAmount"`
	PremiumAmount  *decimal.Decimal `json:"premiumAmount"`
	RenewalDate    *string          `json:"renewalDate"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func toInsuranceDTO(i models.AssetInsurance) InsuranceDTO {
	return InsuranceDTO{
		ID:             i.ID,
		AssetID:        i.AssetID,
		IsInsured:      i.IsInsured,
		Provider:       i.Provider,
		PolicyNumber:   i.PolicyNumber,
		CoverageAmount: nullDecimal(i.CoverageAmount),
		PremiumAmount:  nullDecimal(i.PremiumAmount),
		RenewalDate:    formatDate(i.RenewalDate),
		UpdatedAt:      i.UpdatedAt,
	}
}

type PhotoDTO struct {
	ID          string    `json:"id"`
	AssetID     string    `json:"assetId"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	FileSize    int64     `json:"fileSize"`
	IsPrimary   bool      `json:"isPrimary"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toPhotoDTO(p models.AssetPhoto) PhotoDTO {
	return PhotoDTO{
		ID:          p.ID,
		AssetID:     p.AssetID,
		Description: p.Description,
		URL:         p.PhotoURL,
		ContentType: p.ContentType,
		FileSize:    p.FileSize,
		IsPrimary:   p.IsPrimary,
		CreatedAt:   p.CreatedAt,
	}
}

type DocumentDTO struct {
	ID           string    `json:"id"`
	AssetID      string    `json:"assetId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	DocumentType string    `json:"documentType"`
	URL          string    `json:"url"`
	ContentType  string    `json:"contentType"`
	FileSize     int64     `json:"fileSize"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toDocumentDTO(d models.AssetDocument) DocumentDTO {
	return DocumentDTO{
		ID:           d.ID,
		AssetID:      d.AssetID,
		Name:         d.Name,
		Description:  d.Description,
		DocumentType: d.DocumentType,
		URL:          d.FileURL,
		ContentType:  d.ContentType,
		FileSize:     d.FileSize,
		CreatedAt:    d.CreatedAt,
	}
}

type TheftReportDTO struct {
	ID            string    `json:"id"`
	AssetID       string    `json:"assetId"`
	ReporterName  *string   `json:"reporterName"`
	ReporterEmail *string   `json:"reporterEmail"`
	ReporterPhone *string   `json:"reporterPhone"`
	Location      *string   `json:"location"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toTheftReportDTO(t models.TheftReport) TheftReportDTO {
	return TheftReportDTO{
		ID:            t.ID,
		AssetID:       t.AssetID,
		ReporterName:  t.ReporterName,
		ReporterEmail: t.ReporterEmail,
		ReporterPhone: t.ReporterPhone,
		Location:      t.Location,
		Description:   t.Description,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// PublicAssetDTO is everything a finder is allowed to see.
type PublicAssetDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
}

func toPublicAssetDTO(a services.PublicAsset) PublicAssetDTO {
	return PublicAssetDTO{ID: a.ID, Name: a.Name, Category: a.Category}
}

func mapSlice[T, D any](items []T, fn func(T) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func nullDecimal(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}

func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format("2006-01-02")
	return &formatted
}
