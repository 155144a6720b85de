package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcknowledgmentKind_OperationCode(t *testing.T) {
	assert.Equal(t, "210200", AckConfirmation.OperationCode())
	assert.Equal(t, "210210", AckAwareness.OperationCode())
	assert.Equal(t, "210220", AckNonRecognition.OperationCode())
	assert.Equal(t, "210240", AckNonPerformed.OperationCode())
}

func TestAcknowledgmentKind_RequiresJustification(t *testing.T) {
	assert.False(t, AckAwareness.RequiresJustification())
	assert.False(t, AckConfirmation.RequiresJustification())
	assert.True(t, AckNonRecognition.RequiresJustification())
	assert.True(t, AckNonPerformed.RequiresJustification())
}

func TestValidateAcknowledgment(t *testing.T) {
	t.Run("awareness needs no justification", func(t *testing.T) {
		assert.NoError(t, ValidateAcknowledgment(AckAwareness, ""))
	})

	t.Run("non recognition requires justification", func(t *testing.T) {
		err := ValidateAcknowledgment(AckNonRecognition, "")
		assert.ErrorIs(t, err, ErrAckJustificationRequired)

		assert.NoError(t, ValidateAcknowledgment(AckNonRecognition, "goods never ordered"))
	})

	t.Run("non performed requires justification", func(t *testing.T) {
		err := ValidateAcknowledgment(AckNonPerformed, "")
		assert.ErrorIs(t, err, ErrAckJustificationRequired)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		err := ValidateAcknowledgment(AcknowledgmentKind("disavowal"), "text")
		assert.ErrorIs(t, err, ErrAckInvalidKind)
	})
}
