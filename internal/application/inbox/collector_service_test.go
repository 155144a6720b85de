package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiscalhub/backend/internal/domain/distribution"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAccessKey  = "35240112345678000190550010000001231000001234"
	otherAccessKey = "35240198765432000121550010000009871000009876"
)

// minimal invoice payload carrying the access key in the protocol block
var testPayload = []byte(`<nfeProc><NFe><infNFe Id="NFe` + testAccessKey + `"></infNFe></NFe><protNFe><infProt><chNFe>` + testAccessKey + `</chNFe></infProt></protNFe></nfeProc>`)

// MockDistributionClient is a mock implementation of distribution.Client
type MockDistributionClient struct {
	mock.Mock
}

func (m *MockDistributionClient) RequestBatch(ctx context.Context, issuerTaxID string) error {
	args := m.Called(ctx, issuerTaxID)
	return args.Error(0)
}

func (m *MockDistributionClient) ListDocuments(ctx context.Context, offset, limit int) ([]distribution.RemoteDocument, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]distribution.RemoteDocument), args.Error(1)
}

func (m *MockDistributionClient) FetchPayload(ctx context.Context, externalID string) ([]byte, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDistributionClient) Acknowledge(ctx context.Context, event distribution.AckEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of inbox.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *inbox.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *inbox.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inbox.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbox.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByAccessKey(ctx context.Context, tenantID uuid.UUID, accessKey string) (*inbox.Document, error) {
	args := m.Called(ctx, tenantID, accessKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbox.Document), args.Error(1)
}

func (m *MockDocumentRepository) ExistsByAccessKey(ctx context.Context, tenantID uuid.UUID, accessKey string) (bool, error) {
	args := m.Called(ctx, tenantID, accessKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter inbox.DocumentFilter) ([]inbox.Document, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]inbox.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) FindUnacknowledgedByIssuers(ctx context.Context, tenantID uuid.UUID, issuerTaxIDs []string) ([]inbox.Document, error) {
	args := m.Called(ctx, tenantID, issuerTaxIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbox.Document), args.Error(1)
}

// MockTrustedIssuerRepository is a mock implementation of inbox.TrustedIssuerRepository
type MockTrustedIssuerRepository struct {
	mock.Mock
}

func (m *MockTrustedIssuerRepository) Save(ctx context.Context, issuer *inbox.TrustedIssuer) error {
	args := m.Called(ctx, issuer)
	return args.Error(0)
}

func (m *MockTrustedIssuerRepository) FindAutoAcknowledge(ctx context.Context, tenantID uuid.UUID) ([]inbox.TrustedIssuer, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbox.TrustedIssuer), args.Error(1)
}

// MockQueueRepository is a mock implementation of pipeline.QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Enqueue(ctx context.Context, units ...*pipeline.QueueUnit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

func (m *MockQueueRepository) ClaimPending(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*pipeline.QueueUnit, error) {
	args := m.Called(ctx, tenantID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pipeline.QueueUnit), args.Error(1)
}

func (m *MockQueueRepository) Update(ctx context.Context, unit *pipeline.QueueUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockQueueRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*pipeline.QueueUnit, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pipeline.QueueUnit), args.Error(1)
}

type collectorFixture struct {
	client    *MockDistributionClient
	documents *MockDocumentRepository
	issuers   *MockTrustedIssuerRepository
	queue     *MockQueueRepository
	service   *CollectorService
}

func newCollectorFixture() *collectorFixture {
	f := &collectorFixture{
		client:    new(MockDistributionClient),
		documents: new(MockDocumentRepository),
		issuers:   new(MockTrustedIssuerRepository),
		queue:     new(MockQueueRepository),
	}
	f.service = NewCollectorService(f.client, f.documents, f.issuers, f.queue, shared.NopAuditSink{}, zap.NewNop())
	return f
}

func remoteDoc(accessKey string, hasPayload bool) distribution.RemoteDocument {
	return distribution.RemoteDocument{
		ExternalID:     "ext-" + accessKey[:8],
		AccessKey:      accessKey,
		Kind:           "nfe",
		IssuerTaxID:    "12345678000190",
		IssuerName:     "Fornecedor Exemplo LTDA",
		RecipientTaxID: "98765432000121",
		IssuedAt:       time.Now().Add(-time.Hour),
		TotalValue:     decimal.NewFromFloat(1234.56),
		HasPayload:     hasPayload,
	}
}

func TestCollect_NewDocumentInsertedAndEnqueued(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()
	remote := remoteDoc(testAccessKey, true)
	f.service.SetMaxAttempts(5)

	f.client.On("RequestBatch", mock.Anything, "").Return(nil)
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{remote}, nil)
	f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, testAccessKey).Return(false, nil)
	f.client.On("FetchPayload", mock.Anything, remote.ExternalID).Return(testPayload, nil)
	f.documents.On("Save", mock.Anything, mock.AnythingOfType("*inbox.Document")).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("[]*pipeline.QueueUnit")).Return(nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{}, nil)

	result, err := f.service.Collect(context.Background(), tenantID, "")
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, 1, result.NewDocuments)

	f.documents.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(doc *inbox.Document) bool {
		return doc.AccessKey == testAccessKey &&
			doc.Origin == inbox.OriginAutomatic &&
			doc.Status == inbox.DocumentStatusPending &&
			doc.HasPayload()
	}))
	f.queue.AssertCalled(t, "Enqueue", mock.Anything, mock.MatchedBy(func(units []*pipeline.QueueUnit) bool {
		return len(units) == 1 &&
			units[0].Stage == pipeline.StageParseXML &&
			units[0].MaxAttempts == 5
	}))
}

func TestCollect_DuplicateAccessKeyIsNoOp(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()

	f.client.On("RequestBatch", mock.Anything, "").Return(nil)
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{remoteDoc(testAccessKey, true)}, nil)
	f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, testAccessKey).Return(true, nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{}, nil)

	result, err := f.service.Collect(context.Background(), tenantID, "")
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, 0, result.NewDocuments)
	f.documents.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestCollect_PayloadFetchFailureStillInserts(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()
	remote := remoteDoc(testAccessKey, true)

	f.client.On("RequestBatch", mock.Anything, "").Return(nil)
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{remote}, nil)
	f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, testAccessKey).Return(false, nil)
	f.client.On("FetchPayload", mock.Anything, remote.ExternalID).Return(nil, errors.New("gateway timeout"))
	f.documents.On("Save", mock.Anything, mock.AnythingOfType("*inbox.Document")).Return(nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{}, nil)

	result, err := f.service.Collect(context.Background(), tenantID, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewDocuments)
	assert.False(t, result.Success())
	// No payload means nothing to parse yet.
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestCollect_OneBadDocumentDoesNotBlockBatch(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()
	bad := remoteDoc(testAccessKey, false)
	good := remoteDoc(otherAccessKey, false)

	f.client.On("RequestBatch", mock.Anything, "").Return(nil)
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{bad, good}, nil)
	f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, testAccessKey).
		Return(false, errors.New("connection reset"))
	f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, otherAccessKey).Return(false, nil)
	f.documents.On("Save", mock.Anything, mock.AnythingOfType("*inbox.Document")).Return(nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{}, nil)

	result, err := f.service.Collect(context.Background(), tenantID, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewDocuments)
	assert.Len(t, result.Errors, 1)
}

func TestCollect_BatchRequestFailureIsRecordedNotFatal(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()

	f.client.On("RequestBatch", mock.Anything, "12345678000190").Return(errors.New("service unavailable"))
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{}, nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{}, nil)

	result, err := f.service.Collect(context.Background(), tenantID, "12345678000190")
	require.NoError(t, err)

	assert.Len(t, result.Errors, 1)
	f.client.AssertCalled(t, "ListDocuments", mock.Anything, 0, collectPageSize)
}

func TestCollect_AutoAcknowledgesTrustedIssuers(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()

	doc, err := inbox.NewDocument(tenantID, inbox.DocumentKindInvoice, testAccessKey, inbox.OriginAutomatic)
	require.NoError(t, err)
	doc.RecipientTaxID = "98765432000121"

	f.client.On("RequestBatch", mock.Anything, "").Return(nil)
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{}, nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{
		{ID: uuid.New(), TenantID: tenantID, TaxID: "12345678000190", AutoAcknowledge: true, Active: true},
	}, nil)
	f.documents.On("FindUnacknowledgedByIssuers", mock.Anything, tenantID, []string{"12345678000190"}).
		Return([]inbox.Document{*doc}, nil)
	f.client.On("Acknowledge", mock.Anything, mock.MatchedBy(func(event distribution.AckEvent) bool {
		return event.AccessKey == testAccessKey && event.OperationCode == "210210"
	})).Return(nil)
	f.documents.On("Update", mock.Anything, mock.AnythingOfType("*inbox.Document")).Return(nil)

	result, err := f.service.Collect(context.Background(), tenantID, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Acknowledged)
	assert.True(t, result.Success())
}

func TestCollect_AckFailureContinuesLoop(t *testing.T) {
	f := newCollectorFixture()
	tenantID := uuid.New()

	first, err := inbox.NewDocument(tenantID, inbox.DocumentKindInvoice, testAccessKey, inbox.OriginAutomatic)
	require.NoError(t, err)
	second, err := inbox.NewDocument(tenantID, inbox.DocumentKindInvoice, otherAccessKey, inbox.OriginAutomatic)
	require.NoError(t, err)

	f.client.On("RequestBatch", mock.Anything, "").Return(nil)
	f.client.On("ListDocuments", mock.Anything, 0, collectPageSize).
		Return([]distribution.RemoteDocument{}, nil)
	f.issuers.On("FindAutoAcknowledge", mock.Anything, tenantID).Return([]inbox.TrustedIssuer{
		{ID: uuid.New(), TenantID: tenantID, TaxID: "12345678000190", AutoAcknowledge: true, Active: true},
	}, nil)
	f.documents.On("FindUnacknowledgedByIssuers", mock.Anything, tenantID, []string{"12345678000190"}).
		Return([]inbox.Document{*first, *second}, nil)
	f.client.On("Acknowledge", mock.Anything, mock.MatchedBy(func(event distribution.AckEvent) bool {
		return event.AccessKey == testAccessKey
	})).Return(errors.New("circuit open"))
	f.client.On("Acknowledge", mock.Anything, mock.MatchedBy(func(event distribution.AckEvent) bool {
		return event.AccessKey == otherAccessKey
	})).Return(nil)
	f.documents.On("Update", mock.Anything, mock.AnythingOfType("*inbox.Document")).Return(nil)

	result, err := f.service.Collect(context.Background(), tenantID, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Acknowledged)
	assert.Len(t, result.Errors, 1)
}

func TestCollect_NilTenantRejected(t *testing.T) {
	f := newCollectorFixture()

	_, err := f.service.Collect(context.Background(), uuid.Nil, "")
	assert.ErrorIs(t, err, inbox.ErrDocumentInvalidTenantID)
}

func TestManualImport(t *testing.T) {
	t.Run("imports and enqueues parse unit", func(t *testing.T) {
		f := newCollectorFixture()
		tenantID := uuid.New()

		f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, testAccessKey).Return(false, nil)
		f.documents.On("Save", mock.Anything, mock.AnythingOfType("*inbox.Document")).Return(nil)
		f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("[]*pipeline.QueueUnit")).Return(nil)

		doc, err := f.service.ManualImport(context.Background(), tenantID, testPayload, inbox.DocumentKindInvoice)
		require.NoError(t, err)

		assert.Equal(t, testAccessKey, doc.AccessKey)
		assert.Equal(t, inbox.OriginManual, doc.Origin)
		assert.True(t, doc.HasPayload())
	})

	t.Run("duplicate access key conflicts", func(t *testing.T) {
		f := newCollectorFixture()
		tenantID := uuid.New()

		f.documents.On("ExistsByAccessKey", mock.Anything, tenantID, testAccessKey).Return(true, nil)

		_, err := f.service.ManualImport(context.Background(), tenantID, testPayload, inbox.DocumentKindInvoice)
		assert.ErrorIs(t, err, inbox.ErrDocumentAlreadyExists)
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		f := newCollectorFixture()

		_, err := f.service.ManualImport(context.Background(), uuid.New(), nil, inbox.DocumentKindInvoice)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("payload without access key rejected", func(t *testing.T) {
		f := newCollectorFixture()

		_, err := f.service.ManualImport(context.Background(), uuid.New(), []byte(`<nfeProc><NFe><infNFe Id="NFe123"></infNFe></NFe></nfeProc>`), inbox.DocumentKindInvoice)
		assert.ErrorIs(t, err, inbox.ErrDocumentInvalidAccessKey)
	})
}

func TestAcknowledge(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("submits event and records acknowledgment", func(t *testing.T) {
		f := newCollectorFixture()
		doc, err := inbox.NewDocument(tenantID, inbox.DocumentKindInvoice, testAccessKey, inbox.OriginAutomatic)
		require.NoError(t, err)
		doc.RecipientTaxID = "98765432000121"

		f.documents.On("FindByID", mock.Anything, tenantID, doc.ID).Return(doc, nil)
		f.client.On("Acknowledge", mock.Anything, mock.MatchedBy(func(event distribution.AckEvent) bool {
			return event.OperationCode == "210200" && event.AccessKey == testAccessKey
		})).Return(nil)
		f.documents.On("Update", mock.Anything, doc).Return(nil)

		err = f.service.Acknowledge(context.Background(), tenantID, userID, "", doc.ID, inbox.AckConfirmation, "")
		require.NoError(t, err)
		assert.True(t, doc.Acknowledged)
	})

	t.Run("justification required for non recognition", func(t *testing.T) {
		f := newCollectorFixture()

		err := f.service.Acknowledge(context.Background(), tenantID, userID, "", uuid.New(), inbox.AckNonRecognition, "")
		assert.ErrorIs(t, err, inbox.ErrAckJustificationRequired)
		f.client.AssertNotCalled(t, "Acknowledge", mock.Anything, mock.Anything)
	})

	t.Run("remote failure leaves document untouched", func(t *testing.T) {
		f := newCollectorFixture()
		doc, err := inbox.NewDocument(tenantID, inbox.DocumentKindInvoice, testAccessKey, inbox.OriginAutomatic)
		require.NoError(t, err)

		f.documents.On("FindByID", mock.Anything, tenantID, doc.ID).Return(doc, nil)
		f.client.On("Acknowledge", mock.Anything, mock.Anything).Return(errors.New("upstream 500"))

		err = f.service.Acknowledge(context.Background(), tenantID, userID, "", doc.ID, inbox.AckAwareness, "")
		require.Error(t, err)
		assert.False(t, doc.Acknowledged)
		f.documents.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
