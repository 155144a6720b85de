package inbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TrustedIssuer errors
var (
	ErrIssuerInvalidTaxID = errors.New("inbox: invalid issuer tax ID")
)

// TrustedIssuer is a supplier the tenant trusts. Documents issued by a
// trusted issuer with AutoAcknowledge enabled are acknowledged automatically
// at the end of each collection run.
type TrustedIssuer struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	TaxID           string
	Name            string
	AutoAcknowledge bool
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTrustedIssuer registers a trusted issuer for a tenant.
func NewTrustedIssuer(tenantID uuid.UUID, taxID, name string, autoAcknowledge bool) (*TrustedIssuer, error) {
	if tenantID == uuid.Nil {
		return nil, ErrDocumentInvalidTenantID
	}
	if taxID == "" {
		return nil, ErrIssuerInvalidTaxID
	}

	now := time.Now()
	return &TrustedIssuer{
		ID:              uuid.New(),
		TenantID:        tenantID,
		TaxID:           taxID,
		Name:            name,
		AutoAcknowledge: autoAcknowledge,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
