package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stage identifies one step of the document processing chain.
type Stage string

const (
	StageParseXML         Stage = "parse_xml"
	StageMatchProducts    Stage = "match_products"
	StageGenerateProposal Stage = "generate_proposal"
)

// IsValid returns true for a known stage kind.
func (s Stage) IsValid() bool {
	switch s {
	case StageParseXML, StageMatchProducts, StageGenerateProposal:
		return true
	}
	return false
}

// Next returns the follow-on stage enqueued after this one completes.
// The proposal stage is terminal.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageParseXML:
		return StageMatchProducts, true
	case StageMatchProducts:
		return StageGenerateProposal, true
	}
	return "", false
}

// UnitStatus is the processing status of a queue unit.
type UnitStatus string

const (
	UnitStatusPending    UnitStatus = "pending"
	UnitStatusProcessing UnitStatus = "processing"
	UnitStatusDone       UnitStatus = "done"
	UnitStatusError      UnitStatus = "error"
)

// Default retry configuration
const (
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 30 * time.Second
)

// QueueUnit errors
var (
	ErrUnitInvalidStage  = errors.New("pipeline: invalid stage kind")
	ErrUnitInvalidClaim  = errors.New("pipeline: only pending units can be claimed")
	ErrUnitAlreadyClosed = errors.New("pipeline: unit is already terminal")
)

// QueueUnit is one unit of persisted pipeline work. The attempt counter is
// monotonically non-decreasing; a unit reaches terminal error only once
// Attempts >= MaxAttempts. NextAttemptAt spaces retries explicitly so a unit
// is not reclaimed within the same batch.
type QueueUnit struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	DocumentID    uuid.UUID
	Stage         Stage
	Status        UnitStatus
	Attempts      int
	MaxAttempts   int
	LastError     string
	Payload       []byte
	NextAttemptAt *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewQueueUnit creates a pending unit of work for a document stage.
func NewQueueUnit(tenantID, documentID uuid.UUID, stage Stage, payload []byte) (*QueueUnit, error) {
	if !stage.IsValid() {
		return nil, ErrUnitInvalidStage
	}

	now := time.Now()
	return &QueueUnit{
		ID:          uuid.New(),
		TenantID:    tenantID,
		DocumentID:  documentID,
		Stage:       stage,
		Status:      UnitStatusPending,
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
		Payload:     payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetMaxAttempts overrides the retry ceiling for this unit. Values below
// one are ignored.
func (u *QueueUnit) SetMaxAttempts(n int) {
	if n > 0 {
		u.MaxAttempts = n
	}
}

// MarkProcessing claims a pending unit.
func (u *QueueUnit) MarkProcessing() error {
	if u.Status != UnitStatusPending {
		return ErrUnitInvalidClaim
	}
	u.Status = UnitStatusProcessing
	u.UpdatedAt = time.Now()
	return nil
}

// MarkDone retires a successfully handled unit.
func (u *QueueUnit) MarkDone() {
	now := time.Now()
	u.Status = UnitStatusDone
	u.ProcessedAt = &now
	u.NextAttemptAt = nil
	u.UpdatedAt = now
}

// MarkFailed records a handler failure. The unit returns to pending with an
// exponential not-before timestamp until attempts reach the ceiling, at
// which point it turns terminal.
func (u *QueueUnit) MarkFailed(errMsg string) {
	u.Attempts++
	u.LastError = errMsg
	u.UpdatedAt = time.Now()

	if u.Attempts >= u.MaxAttempts {
		u.Status = UnitStatusError
		u.NextAttemptAt = nil
		return
	}

	u.Status = UnitStatusPending
	// Backoff: 30s, 60s, 120s, ...
	backoff := DefaultBaseBackoff * time.Duration(1<<uint(u.Attempts-1))
	nextAttempt := time.Now().Add(backoff)
	u.NextAttemptAt = &nextAttempt
}

// IsTerminal returns true once the unit will never run again.
func (u *QueueUnit) IsTerminal() bool {
	return u.Status == UnitStatusDone || u.Status == UnitStatusError
}
