package inbox

import "errors"

// AcknowledgmentKind is the manifestation event submitted for a document.
type AcknowledgmentKind string

const (
	AckAwareness      AcknowledgmentKind = "awareness"
	AckConfirmation   AcknowledgmentKind = "confirmation"
	AckNonRecognition AcknowledgmentKind = "non_recognition"
	AckNonPerformed   AcknowledgmentKind = "non_performed"
)

// Acknowledgment errors
var (
	ErrAckInvalidKind           = errors.New("inbox: invalid acknowledgment kind")
	ErrAckJustificationRequired = errors.New("inbox: justification is required for this acknowledgment kind")
)

// ackOperationCodes maps each kind to its fixed operation code on the wire.
var ackOperationCodes = map[AcknowledgmentKind]string{
	AckConfirmation:   "210200",
	AckAwareness:      "210210",
	AckNonRecognition: "210220",
	AckNonPerformed:   "210240",
}

// IsValid returns true for a known acknowledgment kind.
func (k AcknowledgmentKind) IsValid() bool {
	_, ok := ackOperationCodes[k]
	return ok
}

// OperationCode returns the fixed operation code for the kind.
func (k AcknowledgmentKind) OperationCode() string {
	return ackOperationCodes[k]
}

// RequiresJustification is true for kinds that must carry a justification.
func (k AcknowledgmentKind) RequiresJustification() bool {
	return k == AckNonRecognition || k == AckNonPerformed
}

// ValidateAcknowledgment checks a kind/justification pair before submission.
func ValidateAcknowledgment(kind AcknowledgmentKind, justification string) error {
	if !kind.IsValid() {
		return ErrAckInvalidKind
	}
	if kind.RequiresJustification() && justification == "" {
		return ErrAckJustificationRequired
	}
	return nil
}
