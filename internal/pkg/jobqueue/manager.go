package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/internal/pkg/cache"
	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

// Task is a periodic background task run by the Manager
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Manager manages the global job queue and background tasks
type Manager struct {
	queue   *Queue
	tasks   []Task
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton) on the shared redis client
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager(NewQueue(cache.GetClient(), env.GetEnvInt("JOBQUEUE_WORKERS", 3)))
	})
	return globalManager
}

func NewManager(queue *Queue) *Manager {
	return &Manager{
		queue:  queue,
		stopCh: make(chan struct{}),
	}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// AddTask registers a periodic task. Tasks added while running start with the next Start.
func (m *Manager) AddTask(t Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.Interval <= 0 {
		t.Interval = 5 * time.Minute
	}
	m.tasks = append(m.tasks, t)
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// A fresh stop channel per cycle lets the manager be restarted.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	for _, t := range m.tasks {
		m.wg.Add(1)
		go m.taskWorker(t, m.stopCh)
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")
	close(m.stopCh)
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

func (m *Manager) taskWorker(t Task, stopCh chan struct{}) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started %s worker (interval: %s)", t.Name, t.Interval)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			log.Infof("[JobQueue Manager] %s worker stopping", t.Name)
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), t.Interval)
			if err := t.Run(ctx); err != nil {
				log.Errorf("[JobQueue Manager] %s error: %v", t.Name, err)
			}
			cancel()
		}
	}
}

// RunTaskOnce runs a registered task immediately, for manual triggers.
func (m *Manager) RunTaskOnce(ctx context.Context, name string) error {
	m.mu.Lock()
	var task *Task
	for i := range m.tasks {
		if m.tasks[i].Name == name {
			task = &m.tasks[i]
			break
		}
	}
	m.mu.Unlock()

	if task == nil {
		return fmt.Errorf("unknown task %q", name)
	}
	return task.Run(ctx)
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
