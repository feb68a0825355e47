package a2a

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Task statuses.
const (
	StatusPending          = "pending"
	StatusCompleted        = "completed"
	StatusRequiresApproval = "requires_approval"
	StatusCancelled        = "cancelled"
	StatusError            = "error"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskNotCancelable = errors.New("task is in a terminal state")
)

// Task is the only per-call state this service keeps. Tasks live in process
// memory only: on an edge platform a later request may land on a cold
// instance, so this cache is strictly best effort.
type Task struct {
	ID        string    `json:"taskId"`
	Skill     string    `json:"skill,omitempty"`
	Status    string    `json:"status"`
	Output    string    `json:"output,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskManager is a warm-instance task cache with TTL cleanup.
type TaskManager struct {
	tasks  map[string]*Task
	mu     sync.RWMutex
	logger *logrus.Logger
}

func NewTaskManager(logger *logrus.Logger) *TaskManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &TaskManager{
		tasks:  make(map[string]*Task),
		logger: logger,
	}
}

// Create records a finished skill invocation under a fresh opaque id.
func (tm *TaskManager) Create(skill, status, output string) *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task := &Task{
		ID:        uuid.New().String(),
		Skill:     skill,
		Status:    status,
		Output:    output,
		CreatedAt: time.Now().UTC(),
	}
	tm.tasks[task.ID] = task
	tm.logger.Infof("[TaskID: %s] Task recorded with status '%s'", task.ID, status)
	return task
}

// Get retrieves a task if this instance still remembers it.
func (tm *TaskManager) Get(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	task, exists := tm.tasks[id]
	return task, exists
}

// Cancel marks a warm task cancelled. Terminal tasks stay as they are.
func (tm *TaskManager) Cancel(id string) (*Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, exists := tm.tasks[id]
	if !exists {
		return nil, ErrTaskNotFound
	}
	switch task.Status {
	case StatusCompleted, StatusCancelled, StatusError:
		tm.logger.Warnf("[TaskID: %s] Attempted to cancel task in state '%s'", id, task.Status)
		return task, ErrTaskNotCancelable
	}
	task.Status = StatusCancelled
	tm.logger.Infof("[TaskID: %s] Task cancelled", id)
	return task, nil
}

// CleanupExpired drops tasks older than the given age and reports how many
// were removed.
func (tm *TaskManager) CleanupExpired(olderThan time.Duration) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	cleaned := 0
	for id, task := range tm.tasks {
		if task.CreatedAt.Before(cutoff) {
			delete(tm.tasks, id)
			cleaned++
		}
	}
	if cleaned > 0 {
		tm.logger.Infof("Cleaned up %d tasks older than %v", cleaned, olderThan)
	}
	return cleaned
}
