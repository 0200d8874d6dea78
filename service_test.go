package scorepool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/scorepool"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/optimizer"
	"github.com/viant/scorepool/service/dispatcher"
	"github.com/viant/scorepool/service/queue"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newService(t *testing.T, options ...scorepool.Option) *scorepool.Service {
	t.Helper()
	cfg := scorepool.DefaultConfig()
	cfg.Dispatcher.Concurrency = 2
	cfg.Dispatcher.BufferCapacity = 7
	options = append([]scorepool.Option{scorepool.WithConfig(cfg), scorepool.WithLogger(zap.NewNop())}, options...)
	srv, err := scorepool.New(options...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestService_Optimize(t *testing.T) {
	registry := prometheus.NewRegistry()
	srv := newService(t, scorepool.WithRegisterer(registry))

	request := optimizer.Request{
		Weights: map[string]float64{"ATK%": 1.5, "CRIT Rate": 2, "CRIT DMG": 1, "SPD": 0.5},
		Slots:   optimizer.Generate(11, 3, 4),
	}
	whole := request
	whole.Limit = optimizer.Combinations(request.Slots)
	expected, err := optimizer.Evaluate(context.Background(), &whole, make([]float64, whole.Limit))
	require.NoError(t, err)

	actual, err := srv.Optimize(context.Background(), "character-1", request)
	require.NoError(t, err)
	assert.Equal(t, 64, actual.Evaluated)
	assert.Equal(t, expected.Score, actual.Score)
	assert.Len(t, actual.Best, 3)
	assert.False(t, actual.Truncated)

	require.Eventually(t, func() bool {
		state := srv.State()
		return state.Progress.Completed == 10 && state.Buffers.Idle == int(state.Buffers.Allocated)
	}, 2*time.Second, 5*time.Millisecond)
	state := srv.State()
	assert.LessOrEqual(t, state.Buffers.Allocated, int64(2))
	assert.LessOrEqual(t, state.Units.Spawned, 2)
	assert.Equal(t, float64(10), testutil.ToFloat64(srv.Metrics().Dispatched))
}

func TestService_OptimizeCancelledToken(t *testing.T) {
	srv := newService(t)
	srv.Cancel("x")
	_, err := srv.Optimize(context.Background(), "x", optimizer.Request{Slots: optimizer.Generate(1, 2, 2)})
	assert.ErrorIs(t, err, scorepool.ErrTokenCancelled)
}

func TestService_OptimizeDeadline(t *testing.T) {
	kernel := func(ctx context.Context, task *model.Task) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	srv := newService(t, scorepool.WithKernel(kernel))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := srv.Optimize(ctx, "", optimizer.Request{Slots: optimizer.Generate(1, 3, 3)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	state := srv.State()
	assert.Equal(t, 0, state.Queue.Length)
	assert.Equal(t, 2, state.Units.Busy)
}

func TestService_SubmitPassThrough(t *testing.T) {
	kernel := func(ctx context.Context, task *model.Task) (any, error) { return task.Buffer.Cap(), nil }
	srv := newService(t, scorepool.WithKernel(kernel))

	done := make(chan any, 1)
	require.NoError(t, srv.Submit(context.Background(), "", model.NewTask("t1", nil), func(r *model.Result) {
		done <- r.Output
	}))
	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestService_SaveState(t *testing.T) {
	srv := newService(t)
	URL := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, srv.SaveState(context.Background(), URL))

	data, err := os.ReadFile(URL)
	require.NoError(t, err)
	var snapshot dispatcher.Snapshot
	require.NoError(t, yaml.Unmarshal(data, &snapshot))
	assert.Equal(t, 2, snapshot.Units.Limit)
	assert.Equal(t, 7, snapshot.Buffers.Capacity)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "scorepool.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
dispatcher:
  concurrency: 3
  unitTimeout: 250ms
  preciseCancel: true
logging:
  level: debug
metrics:
  enabled: true
`), 0o644))
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("dispatcher:\n  maxQueue: -1\n"), 0o644))

	expected := scorepool.DefaultConfig()
	expected.Dispatcher.Concurrency = 3
	expected.Dispatcher.UnitTimeout = 250 * time.Millisecond
	expected.Dispatcher.PreciseCancel = true
	expected.Logging.Level = "debug"
	expected.Metrics.Enabled = true

	actual, err := scorepool.LoadConfig(context.Background(), valid)
	require.NoError(t, err)
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	_, err = scorepool.LoadConfig(context.Background(), invalid)
	assert.Error(t, err)
	_, err = scorepool.LoadConfig(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := scorepool.DefaultConfig()
	cfg.Logging.Level = "loud"
	_, err := scorepool.NewFromConfig(cfg)
	assert.Error(t, err)

	cfg = scorepool.DefaultConfig()
	cfg.Logging.Level = "error"
	srv, err := scorepool.NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Same(t, cfg, srv.Config())
	assert.Nil(t, srv.Metrics())
	require.NoError(t, srv.Shutdown(context.Background()))
}

// blockingKernel holds tasks with a string payload until release is closed
// and scores everything else.
func blockingKernel(release chan struct{}) model.Kernel {
	return func(ctx context.Context, task *model.Task) (any, error) {
		if payload, ok := task.Payload.(string); ok {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return payload, nil
		}
		return optimizer.Kernel(ctx, task)
	}
}

func occupyUnits(t *testing.T, srv *scorepool.Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, srv.Submit(context.Background(), "", model.NewTask("", "block"), nil))
	}
	require.Eventually(t, func() bool {
		return srv.State().Units.Busy == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestService_OptimizeForeignCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := newService(t, scorepool.WithKernel(blockingKernel(release)))
	occupyUnits(t, srv, 2)

	errs := make(chan error, 1)
	go func() {
		_, err := srv.Optimize(context.Background(), "mine", optimizer.Request{Slots: optimizer.Generate(1, 2, 4)})
		errs <- err
	}()
	require.Eventually(t, func() bool {
		return srv.State().Queue.Length == 3
	}, 2*time.Second, 5*time.Millisecond)

	srv.Cancel("someone-else")
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, scorepool.ErrTasksDropped)
		assert.ErrorIs(t, err, dispatcher.ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("Optimize did not return after its tasks were flushed")
	}
}

func TestService_OptimizeKeepsForeignWork(t *testing.T) {
	release := make(chan struct{})
	srv := newService(t,
		scorepool.WithKernel(blockingKernel(release)),
		scorepool.WithDispatcherOptions(dispatcher.WithMaxQueue(2)))
	occupyUnits(t, srv, 2)

	foreign := make(chan any, 1)
	require.NoError(t, srv.Submit(context.Background(), "other", model.NewTask("foreign", "foreign"), func(r *model.Result) {
		foreign <- r.Output
	}))

	_, err := srv.Optimize(context.Background(), "mine", optimizer.Request{Slots: optimizer.Generate(1, 2, 4)})
	assert.ErrorIs(t, err, queue.ErrFull)
	assert.Equal(t, 1, srv.State().Queue.Length, "only the caller's own tasks are withdrawn")
	assert.True(t, srv.Dispatcher().Enabled("other"))
	assert.False(t, srv.Dispatcher().Enabled("mine"))

	close(release)
	select {
	case v := <-foreign:
		assert.Equal(t, "foreign", v)
	case <-time.After(2 * time.Second):
		t.Fatal("foreign task never ran")
	}
}

func TestService_OptimizeSpaceTooLarge(t *testing.T) {
	srv := newService(t)
	_, err := srv.Optimize(context.Background(), "", optimizer.Request{Slots: optimizer.Generate(1, 6, 2000)})
	assert.ErrorIs(t, err, optimizer.ErrSpaceTooLarge)
	assert.Equal(t, 0, srv.State().Progress.Submitted)
}
