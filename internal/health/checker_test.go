package health

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name    string
	err     error
	delay   time.Duration
	details map[string]interface{}
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

type detailedChecker struct {
	mockChecker
}

func (d *detailedChecker) Details() map[string]interface{} {
	return d.details
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func TestManager(t *testing.T) {
	logger := testLogger()

	t.Run("Register and RunChecks", func(t *testing.T) {
		manager := NewManager(logger)
		manager.Register(&mockChecker{name: "catalog"})
		manager.Register(&mockChecker{name: "redis", err: errors.New("connection refused")})
		manager.Register(&mockChecker{name: "disk"})

		results := manager.RunChecks(context.Background())
		require.Len(t, results, 3)

		assert.Equal(t, StatusOK, results["catalog"].Status)
		assert.Empty(t, results["catalog"].Message)

		assert.Equal(t, StatusDown, results["redis"].Status)
		assert.Contains(t, results["redis"].Message, "connection refused")

		assert.Equal(t, []string{"catalog", "disk", "redis"}, manager.Names())
	})

	t.Run("GetResults returns copies", func(t *testing.T) {
		manager := NewManager(logger)
		manager.Register(&mockChecker{name: "test"})
		manager.RunChecks(context.Background())

		results := manager.GetResults()
		require.Contains(t, results, "test")
		results["test"].Status = StatusDown

		assert.Equal(t, StatusOK, manager.GetResults()["test"].Status)
	})

	t.Run("GetOverallStatus", func(t *testing.T) {
		tests := []struct {
			name     string
			checkers []Checker
			want     Status
		}{
			{
				name:     "all healthy",
				checkers: []Checker{&mockChecker{name: "c1"}, &mockChecker{name: "c2"}},
				want:     StatusOK,
			},
			{
				name: "one degraded",
				checkers: []Checker{
					&mockChecker{name: "c1"},
					&mockChecker{name: "c2", err: Degraded(errors.New("slow"))},
				},
				want: StatusDegraded,
			},
			{
				name: "down wins over degraded",
				checkers: []Checker{
					&mockChecker{name: "c1", err: Degraded(errors.New("slow"))},
					&mockChecker{name: "c2", err: errors.New("error")},
				},
				want: StatusDown,
			},
			{
				name:     "no checkers",
				checkers: []Checker{},
				want:     StatusDown,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				manager := NewManager(logger)
				for _, checker := range tt.checkers {
					manager.Register(checker)
				}
				if len(tt.checkers) > 0 {
					manager.RunChecks(context.Background())
				}
				assert.Equal(t, tt.want, manager.GetOverallStatus())
			})
		}
	})

	t.Run("Timeout handling", func(t *testing.T) {
		manager := NewManager(logger)
		manager.SetTimeout(50 * time.Millisecond)
		manager.Register(&mockChecker{name: "slow", delay: 10 * time.Second})

		start := time.Now()
		results := manager.RunChecks(context.Background())
		assert.Less(t, time.Since(start), 5*time.Second)

		check := results["slow"]
		require.NotNil(t, check)
		assert.Equal(t, StatusDown, check.Status)
		assert.Contains(t, check.Message, "timed out")
	})

	t.Run("Details", func(t *testing.T) {
		manager := NewManager(logger)
		manager.Register(&detailedChecker{mockChecker{name: "d", details: map[string]interface{}{"k": "v"}}})

		results := manager.RunChecks(context.Background())
		assert.Equal(t, "v", results["d"].Details["k"])
	})
}

func TestDegraded(t *testing.T) {
	assert.NoError(t, Degraded(nil))

	base := errors.New("info unavailable")
	err := Degraded(base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "info unavailable", err.Error())

	var d *DegradedError
	assert.ErrorAs(t, err, &d)
}

func TestCheckerFunc(t *testing.T) {
	called := false
	c := NewCheckerFunc("marks", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Equal(t, "marks", c.Name())
	assert.NoError(t, c.Check(context.Background()))
	assert.True(t, called)
}

func TestStartPeriodicChecks(t *testing.T) {
	manager := NewManager(testLogger())

	runs := make(chan struct{}, 16)
	manager.Register(NewCheckerFunc("counter", func(ctx context.Context) error {
		select {
		case runs <- struct{}{}:
		default:
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.StartPeriodicChecks(ctx, 20*time.Millisecond)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatal("periodic check did not run")
		}
	}
	cancel()
	<-done

	assert.Equal(t, StatusOK, manager.GetOverallStatus())
}

func TestCheckDurationTracking(t *testing.T) {
	manager := NewManager(testLogger())
	manager.Register(&mockChecker{name: "delayed", delay: 50 * time.Millisecond})

	check := manager.RunChecks(context.Background())["delayed"]
	require.NotNil(t, check)
	assert.GreaterOrEqual(t, check.Duration, 50*time.Millisecond)
	assert.GreaterOrEqual(t, check.DurationMS, float64(50))
}

func TestCatalogChecker(t *testing.T) {
	c := NewCatalogChecker()
	assert.Equal(t, "catalog", c.Name())
	assert.NoError(t, c.Check(context.Background()))
	assert.Equal(t, 6, c.Details()["rates"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Check(ctx), context.Canceled)
}
