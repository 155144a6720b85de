package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestExecutor returns an executor that never sleeps between attempts.
func newTestExecutor() *Executor {
	e := NewExecutor(zap.NewNop())
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor()
	calls := 0

	err := e.Do(context.Background(), "svc.op", DefaultOptions(), func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryExhaustion(t *testing.T) {
	e := newTestExecutor()
	calls := 0
	opts := DefaultOptions()
	opts.MaxRetries = 3

	err := e.Do(context.Background(), "", opts, func(ctx context.Context) error {
		calls++
		return NewStatusError(503, "unavailable")
	})

	// maxRetries=3 means exactly 4 total tries before the final error.
	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.StatusCode)
}

func TestDo_PermanentFailureNotRetried(t *testing.T) {
	e := newTestExecutor()
	calls := 0

	err := e.Do(context.Background(), "svc.op", DefaultOptions(), func(ctx context.Context) error {
		calls++
		return NewStatusError(404, "not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_AllowListRestrictsUnknownCodes(t *testing.T) {
	e := newTestExecutor()
	calls := 0
	opts := DefaultOptions()
	opts.MaxRetries = 2
	opts.RetryableCodes = []int{418}

	// 409 is neither in the fixed lists nor in the allow-list: no retry.
	err := e.Do(context.Background(), "", opts, func(ctx context.Context) error {
		calls++
		return NewStatusError(409, "conflict")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CircuitOpensAfterFiveFailures(t *testing.T) {
	e := newTestExecutor()
	opts := DefaultOptions()
	opts.MaxRetries = 0
	calls := 0
	fail := func(ctx context.Context) error {
		calls++
		return NewStatusError(400, "bad request")
	}

	for i := 0; i < 5; i++ {
		err := e.Do(context.Background(), "svc.flaky", opts, fail)
		require.Error(t, err)
	}
	assert.Equal(t, 5, calls)
	assert.Equal(t, "open", e.Breaker().State("svc.flaky"))

	// Sixth call fails fast without invoking the operation.
	err := e.Do(context.Background(), "svc.flaky", opts, fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, calls)
}

func TestDo_HalfOpenProbeAfterRecoveryWindow(t *testing.T) {
	e := newTestExecutor()
	base := time.Now()
	e.breaker.now = func() time.Time { return base }

	opts := DefaultOptions()
	opts.MaxRetries = 0
	fail := func(ctx context.Context) error { return NewStatusError(400, "bad request") }

	for i := 0; i < 5; i++ {
		_ = e.Do(context.Background(), "svc.probe", opts, fail)
	}
	assert.Equal(t, "open", e.Breaker().State("svc.probe"))

	// Before the window elapses: fast fail.
	err := e.Do(context.Background(), "svc.probe", opts, fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	// After the window: exactly one probe is allowed through.
	e.breaker.now = func() time.Time { return base.Add(RecoveryWindow + time.Second) }
	assert.NoError(t, e.breaker.Allow("svc.probe"))
	assert.ErrorIs(t, e.breaker.Allow("svc.probe"), ErrCircuitOpen)
}

func TestDo_SuccessResetsCircuit(t *testing.T) {
	e := newTestExecutor()
	opts := DefaultOptions()
	opts.MaxRetries = 0

	for i := 0; i < 4; i++ {
		_ = e.Do(context.Background(), "svc.reset", opts, func(ctx context.Context) error {
			return NewStatusError(500, "boom")
		})
	}
	err := e.Do(context.Background(), "svc.reset", opts, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "closed", e.Breaker().State("svc.reset"))

	// The failure counter was reset: four more failures do not open it.
	for i := 0; i < 4; i++ {
		_ = e.Do(context.Background(), "svc.reset", opts, func(ctx context.Context) error {
			return NewStatusError(500, "boom")
		})
	}
	assert.Equal(t, "closed", e.Breaker().State("svc.reset"))
}

func TestDo_ContextCanceledAborts(t *testing.T) {
	e := newTestExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	err := e.Do(ctx, "", DefaultOptions(), func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		allowed   []int
		retryable bool
	}{
		{"429 too many requests", NewStatusError(429, ""), nil, true},
		{"500 server error", NewStatusError(500, ""), nil, true},
		{"502 bad gateway", NewStatusError(502, ""), nil, true},
		{"503 unavailable", NewStatusError(503, ""), nil, true},
		{"504 gateway timeout", NewStatusError(504, ""), nil, true},
		{"400 bad request", NewStatusError(400, ""), nil, false},
		{"401 unauthorized", NewStatusError(401, ""), nil, false},
		{"403 forbidden", NewStatusError(403, ""), nil, false},
		{"404 not found", NewStatusError(404, ""), nil, false},
		{"422 unprocessable", NewStatusError(422, ""), nil, false},
		{"unknown status defaults retryable", NewStatusError(409, ""), nil, true},
		{"unknown status with allow-list hit", NewStatusError(409, ""), []int{409}, true},
		{"unknown status with allow-list miss", NewStatusError(409, ""), []int{418}, false},
		{"deadline exceeded", context.DeadlineExceeded, nil, true},
		{"canceled", context.Canceled, nil, false},
		{"unknown error defaults retryable", errors.New("boom"), nil, true},
		{"nil error", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err, tt.allowed))
		})
	}
}
