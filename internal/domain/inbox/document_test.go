package inbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccessKey = "35240112345678000190550010000001231000001234"

func TestNewDocument(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates pending document", func(t *testing.T) {
		doc, err := NewDocument(tenantID, DocumentKindInvoice, testAccessKey, OriginAutomatic)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, doc.ID)
		assert.Equal(t, tenantID, doc.TenantID)
		assert.Equal(t, DocumentStatusPending, doc.Status)
		assert.Equal(t, OriginAutomatic, doc.Origin)
		assert.False(t, doc.Acknowledged)
		assert.True(t, doc.TotalValue.IsZero())
	})

	t.Run("rejects nil tenant", func(t *testing.T) {
		_, err := NewDocument(uuid.Nil, DocumentKindInvoice, testAccessKey, OriginManual)
		assert.ErrorIs(t, err, ErrDocumentInvalidTenantID)
	})

	t.Run("rejects short access key", func(t *testing.T) {
		_, err := NewDocument(tenantID, DocumentKindInvoice, "12345", OriginManual)
		assert.ErrorIs(t, err, ErrDocumentInvalidAccessKey)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewDocument(tenantID, DocumentKind("cte"), testAccessKey, OriginManual)
		assert.ErrorIs(t, err, ErrDocumentInvalidKind)
	})
}

func TestDocument_MarkProcessing(t *testing.T) {
	doc, err := NewDocument(uuid.New(), DocumentKindInvoice, testAccessKey, OriginAutomatic)
	require.NoError(t, err)

	require.NoError(t, doc.MarkProcessing())
	assert.Equal(t, DocumentStatusProcessing, doc.Status)

	// Re-entering processing is allowed; later stages need this.
	require.NoError(t, doc.MarkProcessing())

	doc.MarkPendingMatching(2, 3)
	require.NoError(t, doc.MarkProcessing())

	doc.Status = DocumentStatusBooked
	assert.ErrorIs(t, doc.MarkProcessing(), ErrDocumentInvalidState)

	doc.Status = DocumentStatusError
	assert.ErrorIs(t, doc.MarkProcessing(), ErrDocumentInvalidState)
}

func TestDocument_MarkError(t *testing.T) {
	doc, err := NewDocument(uuid.New(), DocumentKindInvoice, testAccessKey, OriginAutomatic)
	require.NoError(t, err)

	// Only a document stuck mid-processing can turn error.
	assert.ErrorIs(t, doc.MarkError(), ErrDocumentInvalidState)

	require.NoError(t, doc.MarkProcessing())
	require.NoError(t, doc.MarkError())
	assert.Equal(t, DocumentStatusError, doc.Status)

	doc.MarkReadyToBook()
	assert.ErrorIs(t, doc.MarkError(), ErrDocumentInvalidState)
}

func TestDocument_MarkPendingMatching(t *testing.T) {
	doc, err := NewDocument(uuid.New(), DocumentKindInvoice, testAccessKey, OriginAutomatic)
	require.NoError(t, err)

	doc.MarkPendingMatching(4, 1)

	assert.Equal(t, DocumentStatusPendingMatching, doc.Status)
	assert.Equal(t, 4, doc.MatchedItems)
	assert.Equal(t, 1, doc.PendingItems)
}

func TestDocument_MarkAcknowledged(t *testing.T) {
	doc, err := NewDocument(uuid.New(), DocumentKindInvoice, testAccessKey, OriginAutomatic)
	require.NoError(t, err)

	doc.MarkAcknowledged()

	assert.True(t, doc.Acknowledged)
	require.NotNil(t, doc.AcknowledgedAt)
}

func TestDocument_HasPayload(t *testing.T) {
	doc, err := NewDocument(uuid.New(), DocumentKindInvoice, testAccessKey, OriginAutomatic)
	require.NoError(t, err)

	assert.False(t, doc.HasPayload())
	doc.RawPayload = []byte("<nfeProc/>")
	assert.True(t, doc.HasPayload())
}
