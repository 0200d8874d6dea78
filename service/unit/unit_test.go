package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/scorepool/model"
)

func TestUnit_SendReportsOnce(t *testing.T) {
	results := make(chan *model.Result, 2)
	kernel := func(ctx context.Context, task *model.Task) (any, error) {
		task.Buffer.Floats()[0] = 42
		return task.Payload.(int) * 2, nil
	}
	u := New(context.Background(), 1, kernel, func(_ *Unit, r *model.Result) { results <- r }, nil)
	defer u.Stop()

	task := model.NewTask("t1", 21)
	task.Attach(model.NewBuffer(9, 4))
	require.NoError(t, u.Send(task))

	select {
	case r := <-results:
		assert.Equal(t, "t1", r.TaskID)
		assert.Equal(t, 1, r.UnitID)
		assert.Equal(t, 42, r.Output)
		assert.NoError(t, r.Err)
		require.True(t, r.Buffer.Valid(), "buffer travels back with the result")
		assert.Equal(t, uint64(9), r.Buffer.ID())
		assert.Equal(t, 42.0, r.Buffer.Floats()[0])
		assert.False(t, task.Buffer.Valid(), "task handle invalidated on return")
	case <-time.After(time.Second):
		t.Fatal("no result")
	}
	assert.Len(t, results, 0)
}

func TestUnit_KernelError(t *testing.T) {
	results := make(chan *model.Result, 1)
	boom := errors.New("boom")
	u := New(context.Background(), 2, func(context.Context, *model.Task) (any, error) {
		return nil, boom
	}, func(_ *Unit, r *model.Result) { results <- r }, nil)
	defer u.Stop()

	require.NoError(t, u.Send(model.NewTask("t", nil)))
	r := <-results
	assert.ErrorIs(t, r.Err, boom)
}

func TestUnit_Busy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	u := New(context.Background(), 3, func(context.Context, *model.Task) (any, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	}, func(*Unit, *model.Result) {}, nil)
	defer u.Stop()

	require.NoError(t, u.Send(model.NewTask("a", nil)))
	<-started
	require.NoError(t, u.Send(model.NewTask("b", nil)), "inbox holds one task while running")
	assert.ErrorIs(t, u.Send(model.NewTask("c", nil)), ErrBusy)
	close(release)
}

func TestUnit_PanicLosesUnit(t *testing.T) {
	reported := make(chan struct{}, 1)
	u := New(context.Background(), 4, func(context.Context, *model.Task) (any, error) {
		panic("kernel bug")
	}, func(*Unit, *model.Result) { reported <- struct{}{} }, nil)

	require.NoError(t, u.Send(model.NewTask("t", nil)))
	select {
	case <-u.Done():
	case <-time.After(time.Second):
		t.Fatal("unit goroutine did not exit")
	}
	assert.Len(t, reported, 0)
}

func TestUnit_Stop(t *testing.T) {
	u := New(context.Background(), 5, func(ctx context.Context, _ *model.Task) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, func(*Unit, *model.Result) {}, nil)
	u.Stop()
	<-u.Done()
	assert.ErrorIs(t, u.Send(model.NewTask("t", nil)), ErrStopped)
}
