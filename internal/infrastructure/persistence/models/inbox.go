package models

import (
	"encoding/json"
	"time"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InboxDocumentModel is the persistence model for received fiscal documents.
type InboxDocumentModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_inbox_tenant_access_key,priority:1;index:idx_inbox_tenant_status,priority:1"`
	Kind            inbox.DocumentKind   `gorm:"type:varchar(20);not null"`
	AccessKey       string               `gorm:"type:char(44);not null;uniqueIndex:idx_inbox_tenant_access_key,priority:2"`
	IssuedAt        time.Time            ``
	IssuerTaxID     string               `gorm:"type:varchar(20);index:idx_inbox_tenant_issuer"`
	IssuerName      string               `gorm:"type:varchar(255)"`
	RecipientTaxID  string               `gorm:"type:varchar(20)"`
	TotalValue      decimal.Decimal      `gorm:"type:decimal(18,2)"`
	Status          inbox.DocumentStatus `gorm:"type:varchar(20);default:pending;index:idx_inbox_tenant_status,priority:2"`
	RawPayload      []byte               `gorm:"type:bytea"`
	MatchedItems    int                  `gorm:"default:0"`
	PendingItems    int                  `gorm:"default:0"`
	ProposalPayload []byte               `gorm:"type:jsonb"`
	Origin          inbox.CaptureOrigin  `gorm:"type:varchar(20);not null"`
	Acknowledged    bool                 `gorm:"default:false"`
	AcknowledgedAt  *time.Time
	CreatedAt       time.Time `gorm:"not null;default:now()"`
	UpdatedAt       time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (InboxDocumentModel) TableName() string {
	return "inbox_documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *InboxDocumentModel) ToDomain() *inbox.Document {
	return &inbox.Document{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Kind:            m.Kind,
		AccessKey:       m.AccessKey,
		IssuedAt:        m.IssuedAt,
		IssuerTaxID:     m.IssuerTaxID,
		IssuerName:      m.IssuerName,
		RecipientTaxID:  m.RecipientTaxID,
		TotalValue:      m.TotalValue,
		Status:          m.Status,
		RawPayload:      m.RawPayload,
		MatchedItems:    m.MatchedItems,
		PendingItems:    m.PendingItems,
		ProposalPayload: m.ProposalPayload,
		Origin:          m.Origin,
		Acknowledged:    m.Acknowledged,
		AcknowledgedAt:  m.AcknowledgedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Document
func (m *InboxDocumentModel) FromDomain(d *inbox.Document) {
	m.ID = d.ID
	m.TenantID = d.TenantID
	m.Kind = d.Kind
	m.AccessKey = d.AccessKey
	m.IssuedAt = d.IssuedAt
	m.IssuerTaxID = d.IssuerTaxID
	m.IssuerName = d.IssuerName
	m.RecipientTaxID = d.RecipientTaxID
	m.TotalValue = d.TotalValue
	m.Status = d.Status
	m.RawPayload = d.RawPayload
	m.MatchedItems = d.MatchedItems
	m.PendingItems = d.PendingItems
	m.ProposalPayload = d.ProposalPayload
	m.Origin = d.Origin
	m.Acknowledged = d.Acknowledged
	m.AcknowledgedAt = d.AcknowledgedAt
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt
}

// InboxLineItemModel is the persistence model for document line items.
// Suggestions are stored as a JSON document.
type InboxLineItemModel struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey"`
	DocumentID         uuid.UUID         `gorm:"type:uuid;not null;index:idx_line_items_document"`
	TenantID           uuid.UUID         `gorm:"type:uuid;not null;index:idx_line_items_tenant"`
	LineNumber         int               `gorm:"not null"`
	SupplierCode       string            `gorm:"type:varchar(60)"`
	Description        string            `gorm:"type:varchar(255)"`
	Unit               string            `gorm:"type:varchar(10)"`
	ClassificationCode string            `gorm:"type:varchar(10)"`
	Barcode            string            `gorm:"type:varchar(20)"`
	Quantity           decimal.Decimal   `gorm:"type:decimal(18,4)"`
	UnitPrice          decimal.Decimal   `gorm:"type:decimal(18,6)"`
	ProductID          *uuid.UUID        `gorm:"type:uuid"`
	MatchStatus        inbox.MatchStatus `gorm:"type:varchar(20);default:unmatched"`
	MatchScore         int               `gorm:"default:0"`
	MatchMethod        string            `gorm:"type:varchar(20)"`
	Suggestions        []byte            `gorm:"type:jsonb"`
	CreatedAt          time.Time         `gorm:"not null;default:now()"`
	UpdatedAt          time.Time         `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (InboxLineItemModel) TableName() string {
	return "inbox_line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *InboxLineItemModel) ToDomain() (*inbox.LineItem, error) {
	var suggestions []inbox.Suggestion
	if len(m.Suggestions) > 0 {
		if err := json.Unmarshal(m.Suggestions, &suggestions); err != nil {
			return nil, err
		}
	}

	return &inbox.LineItem{
		ID:                 m.ID,
		DocumentID:         m.DocumentID,
		TenantID:           m.TenantID,
		LineNumber:         m.LineNumber,
		SupplierCode:       m.SupplierCode,
		Description:        m.Description,
		Unit:               m.Unit,
		ClassificationCode: m.ClassificationCode,
		Barcode:            m.Barcode,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
		ProductID:          m.ProductID,
		MatchStatus:        m.MatchStatus,
		MatchScore:         m.MatchScore,
		MatchMethod:        m.MatchMethod,
		Suggestions:        suggestions,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain LineItem
func (m *InboxLineItemModel) FromDomain(i *inbox.LineItem) error {
	var suggestions []byte
	if len(i.Suggestions) > 0 {
		var err error
		suggestions, err = json.Marshal(i.Suggestions)
		if err != nil {
			return err
		}
	}

	m.ID = i.ID
	m.DocumentID = i.DocumentID
	m.TenantID = i.TenantID
	m.LineNumber = i.LineNumber
	m.SupplierCode = i.SupplierCode
	m.Description = i.Description
	m.Unit = i.Unit
	m.ClassificationCode = i.ClassificationCode
	m.Barcode = i.Barcode
	m.Quantity = i.Quantity
	m.UnitPrice = i.UnitPrice
	m.ProductID = i.ProductID
	m.MatchStatus = i.MatchStatus
	m.MatchScore = i.MatchScore
	m.MatchMethod = i.MatchMethod
	m.Suggestions = suggestions
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
	return nil
}

// TrustedIssuerModel is the persistence model for the trusted-issuer list.
type TrustedIssuerModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_trusted_issuers_tenant_tax_id,priority:1"`
	TaxID           string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_trusted_issuers_tenant_tax_id,priority:2"`
	Name            string    `gorm:"type:varchar(255)"`
	AutoAcknowledge bool      `gorm:"default:false"`
	Active          bool      `gorm:"default:true"`
	CreatedAt       time.Time `gorm:"not null;default:now()"`
	UpdatedAt       time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (TrustedIssuerModel) TableName() string {
	return "trusted_issuers"
}

// ToDomain converts the persistence model to a domain TrustedIssuer
func (m *TrustedIssuerModel) ToDomain() *inbox.TrustedIssuer {
	return &inbox.TrustedIssuer{
		ID:              m.ID,
		TenantID:        m.TenantID,
		TaxID:           m.TaxID,
		Name:            m.Name,
		AutoAcknowledge: m.AutoAcknowledge,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain TrustedIssuer
func (m *TrustedIssuerModel) FromDomain(i *inbox.TrustedIssuer) {
	m.ID = i.ID
	m.TenantID = i.TenantID
	m.TaxID = i.TaxID
	m.Name = i.Name
	m.AutoAcknowledge = i.AutoAcknowledge
	m.Active = i.Active
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}
