package routing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/routing"
)

type stubProvider struct {
	name string
	fail func() bool
}

func TestRouter_CircuitOpensAfterFailureThreshold(t *testing.T) {
	opts := routing.DefaultOptions()
	opts.MaxAttempts = 1
	opts.FailureThreshold = 2
	opts.RecoveryTimeout = time.Hour
	r := routing.NewRouter[*stubProvider](opts)

	always := true
	r.Register("p1", &stubProvider{name: "p1", fail: func() bool { return always }}, routing.CostProfile{}, 1)

	for i := 0; i < 2; i++ {
		_, err := routing.Call(context.Background(), r, routing.CallOptions{MaxAttempts: 1}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
			return "", routing.Usage{}, cerr.New(cerr.NetworkError, "embed", "boom").WithProvider(p.name)
		})
		require.Error(t, err)
	}

	status := r.Status()
	assert.Equal(t, "open", string(status["p1"].Circuit.Phase))

	_, err := routing.Call(context.Background(), r, routing.CallOptions{MaxAttempts: 1}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
		t.Fatal("should not be called while circuit is open")
		return "", routing.Usage{}, nil
	})
	require.Error(t, err)
	assert.Equal(t, cerr.AllProvidersDown, cerr.KindOf(err))
}

func TestRouter_FailoverToSecondProvider(t *testing.T) {
	opts := routing.DefaultOptions()
	opts.MaxAttempts = 2
	r := routing.NewRouter[*stubProvider](opts)
	r.Register("primary", &stubProvider{name: "primary"}, routing.CostProfile{}, 1)
	r.Register("backup", &stubProvider{name: "backup"}, routing.CostProfile{}, 2)

	result, err := routing.Call(context.Background(), r, routing.CallOptions{MaxAttempts: 2}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
		if p.name == "primary" {
			return "", routing.Usage{}, cerr.New(cerr.Timeout, "embed", "slow").WithProvider(p.name)
		}
		return "ok-from-" + p.name, routing.Usage{Units: 1, UnitType: "token"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok-from-backup", result)
}

func TestRouter_NonTransientErrorSurfacesImmediately(t *testing.T) {
	r := routing.NewRouter[*stubProvider](routing.DefaultOptions())
	r.Register("p1", &stubProvider{name: "p1"}, routing.CostProfile{}, 1)
	r.Register("p2", &stubProvider{name: "p2"}, routing.CostProfile{}, 2)

	calls := 0
	_, err := routing.Call(context.Background(), r, routing.CallOptions{MaxAttempts: 2}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
		calls++
		return "", routing.Usage{}, cerr.New(cerr.InvalidInput, "embed", "bad dims").WithProvider(p.name)
	})
	require.Error(t, err)
	assert.Equal(t, cerr.InvalidInput, cerr.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestRouter_CallSetsPerAttemptRequestID(t *testing.T) {
	r := routing.NewRouter[*stubProvider](routing.DefaultOptions())
	r.Register("p1", &stubProvider{name: "p1"}, routing.CostProfile{}, 1)

	var seenInCallback string
	_, err := routing.Call(context.Background(), r, routing.CallOptions{MaxAttempts: 1}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
		id, ok := routing.RequestID(ctx)
		require.True(t, ok)
		require.NotEmpty(t, id)
		seenInCallback = id
		return "", routing.Usage{}, cerr.New(cerr.NetworkError, "embed", "boom").WithProvider(p.name)
	})
	require.Error(t, err)

	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, seenInCallback, ce.RequestID)
}

func TestRouter_BudgetExceededBeforeDispatch(t *testing.T) {
	r := routing.NewRouter[*stubProvider](routing.DefaultOptions())
	r.Register("p1", &stubProvider{name: "p1"}, routing.CostProfile{UnitPrice: 1, BudgetCeiling: 5}, 1)

	calls := 0
	_, err := routing.Call(context.Background(), r, routing.CallOptions{MaxAttempts: 1, EstimatedUnits: 10}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
		calls++
		return "ok", routing.Usage{}, nil
	})
	require.Error(t, err)
	assert.Equal(t, cerr.BudgetExceeded, cerr.KindOf(err))
	assert.Equal(t, 0, calls)
}

func TestRouter_AllProvidersDownWhenNoneRegistered(t *testing.T) {
	r := routing.NewRouter[*stubProvider](routing.DefaultOptions())
	_, err := routing.Call(context.Background(), r, routing.CallOptions{}, func(ctx context.Context, p *stubProvider) (string, routing.Usage, error) {
		return "", routing.Usage{}, nil
	})
	require.Error(t, err)
	assert.Equal(t, cerr.AllProvidersDown, cerr.KindOf(err))
}
