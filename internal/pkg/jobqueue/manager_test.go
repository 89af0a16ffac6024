package jobqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/internal/pkg/cache/cachetest"
)

func resetManager() {
	globalManager = nil
	managerOnce = sync.Once{}
}

func TestGetManager(t *testing.T) {
	resetManager()
	t.Cleanup(resetManager)

	manager1 := GetManager()
	manager2 := GetManager()

	assert.NotNil(t, manager1)
	assert.Same(t, manager1, manager2, "GetManager should return the same instance")
	assert.NotNil(t, manager1.GetQueue())
	assert.Equal(t, 3, manager1.GetQueue().workers)
	assert.False(t, manager1.IsRunning())
}

func TestManagerSingletonReset(t *testing.T) {
	resetManager()
	manager1 := GetManager()
	resetManager()
	manager2 := GetManager()
	t.Cleanup(resetManager)

	assert.NotSame(t, manager1, manager2)
}

func TestManager_StopWithoutStart(t *testing.T) {
	manager := NewManager(NewQueue(nil, 1))

	assert.False(t, manager.IsRunning())
	manager.Stop()
	assert.False(t, manager.IsRunning())
}

func TestManager_AddTaskDefaultsInterval(t *testing.T) {
	manager := NewManager(NewQueue(nil, 1))
	manager.AddTask(Task{Name: "noop", Run: func(context.Context) error { return nil }})

	require.Len(t, manager.tasks, 1)
	assert.Equal(t, 5*time.Minute, manager.tasks[0].Interval)
}

func TestManager_RunTaskOnce(t *testing.T) {
	manager := NewManager(NewQueue(nil, 1))
	boom := errors.New("boom")
	manager.AddTask(Task{Name: "fails", Interval: time.Hour, Run: func(context.Context) error { return boom }})

	assert.ErrorIs(t, manager.RunTaskOnce(context.Background(), "fails"), boom)
	assert.Error(t, manager.RunTaskOnce(context.Background(), "missing"))
}

func TestManager_RunsPeriodicTasks(t *testing.T) {
	client := cachetest.NewClient(t, 10)
	manager := NewManager(NewQueue(client, 1))

	var runs atomic.Int32
	manager.AddTask(Task{Name: "tick", Interval: 20 * time.Millisecond, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	manager.Start()
	assert.True(t, manager.IsRunning())
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)

	manager.Stop()
	assert.False(t, manager.IsRunning())

	// Restartable after a stop.
	manager.Start()
	assert.True(t, manager.IsRunning())
	manager.Stop()
}
