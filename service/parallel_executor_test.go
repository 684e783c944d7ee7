package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/bcflow/domain"
)

func TestNewParallelExecutor(t *testing.T) {
	executor := NewParallelExecutor()

	require.NotNil(t, executor)
	assert.Equal(t, 0, executor.maxConcurrency)
	assert.Equal(t, 10*time.Minute, executor.timeout)
}

func TestParallelExecutor_Execute_EmptyTasks(t *testing.T) {
	assert.NoError(t, NewParallelExecutor().Execute(context.Background(), nil))
}

func TestParallelExecutor_Execute_MultipleTasks(t *testing.T) {
	executor := NewParallelExecutor()

	var counter int32
	tasks := make([]domain.ExecutableTask, 5)
	for i := range tasks {
		tasks[i] = NewSimpleTask("task", true, func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&counter, 1)
			return nil, nil
		})
	}

	require.NoError(t, executor.Execute(context.Background(), tasks))
	assert.Equal(t, int32(5), atomic.LoadInt32(&counter))
}

func TestParallelExecutor_Execute_DisabledTasks(t *testing.T) {
	executor := NewParallelExecutor()

	var counter int32
	count := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&counter, 1)
		return nil, nil
	}
	tasks := []domain.ExecutableTask{
		NewSimpleTask("enabled", true, count),
		NewSimpleTask("disabled", false, count),
	}

	require.NoError(t, executor.Execute(context.Background(), tasks))
	assert.Equal(t, int32(1), atomic.LoadInt32(&counter))
}

func TestParallelExecutor_Execute_JoinsErrors(t *testing.T) {
	executor := NewParallelExecutor()
	errA := errors.New("a broke")
	errB := errors.New("b broke")

	var ran int32
	tasks := []domain.ExecutableTask{
		NewSimpleTask("a", true, func(ctx context.Context) (interface{}, error) { return nil, errA }),
		NewSimpleTask("b", true, func(ctx context.Context) (interface{}, error) { return nil, errB }),
		NewSimpleTask("c", true, func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&ran, 1)
			return nil, nil
		}),
	}

	err := executor.Execute(context.Background(), tasks)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "2 errors")
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran), "healthy tasks still run")
}

func TestParallelExecutor_Execute_ContextCancellation(t *testing.T) {
	executor := NewParallelExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	task := NewSimpleTask("task", true, func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&ran, 1)
		return nil, nil
	})

	err := executor.Execute(ctx, []domain.ExecutableTask{task})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestParallelExecutor_Execute_WithConcurrencyLimit(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(2)

	var current, peak int32
	tasks := make([]domain.ExecutableTask, 6)
	for i := range tasks {
		tasks[i] = NewSimpleTask("task", true, func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil, nil
		})
	}

	require.NoError(t, executor.Execute(context.Background(), tasks))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestParallelExecutor_Execute_Timeout(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetTimeout(20 * time.Millisecond)

	task := NewSimpleTask("slow", true, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	err := executor.Execute(context.Background(), []domain.ExecutableTask{task})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSimpleTask(t *testing.T) {
	task := NewSimpleTask("name", false, nil)
	assert.Equal(t, "name", task.Name())
	assert.False(t, task.IsEnabled())

	_, err := task.Execute(context.Background())
	assert.Error(t, err)

	task = NewSimpleTask("ok", true, func(ctx context.Context) (interface{}, error) { return 42, nil })
	result, err := task.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}
