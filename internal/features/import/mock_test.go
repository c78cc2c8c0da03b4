package import_feature

import (
	"context"
	"sync"
	"time"

	"go-fwpm/internal/features/task"
)

type MockAttemptRepo struct {
	mu        sync.Mutex
	Attempts  map[string]ImportAttempt
	UpdateErr error
}

func NewMockAttemptRepo() *MockAttemptRepo {
	return &MockAttemptRepo{Attempts: map[string]ImportAttempt{}}
}

func (m *MockAttemptRepo) Get(ctx context.Context, id string) (*ImportAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return &a, nil
}

func (m *MockAttemptRepo) Claim(ctx context.Context, attempt *ImportAttempt, staleBefore time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Attempts[attempt.ID]; ok {
		if a.Status == AttemptCompleted || (a.Status == AttemptProcessing && !a.UpdatedAt.Before(staleBefore)) {
			return ErrImportInProgress
		}
	}
	now := time.Now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	attempt.UpdatedAt = now
	attempt.Status = AttemptProcessing
	m.Attempts[attempt.ID] = *attempt
	return nil
}

func (m *MockAttemptRepo) Update(ctx context.Context, attempt *ImportAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	attempt.UpdatedAt = time.Now()
	m.Attempts[attempt.ID] = *attempt
	return nil
}

func (m *MockAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]ImportAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ImportAttempt
	for id, a := range m.Attempts {
		expired := a.Status != AttemptProcessing && a.CreatedAt.Before(cutoff)
		stuck := a.Status == AttemptProcessing && a.UpdatedAt.Before(cutoff)
		if expired || stuck {
			out = append(out, a)
			delete(m.Attempts, id)
		}
	}
	return out, nil
}

type MockTaskRepo struct {
	Tasks     []task.Task
	InsertErr error
}

func (m *MockTaskRepo) List(ctx context.Context, filter task.TaskFilter) ([]task.Task, error) {
	return m.Tasks, nil
}

func (m *MockTaskRepo) Create(ctx context.Context, t *task.Task) error {
	m.Tasks = append(m.Tasks, *t)
	return nil
}

func (m *MockTaskRepo) InsertBatch(ctx context.Context, tasks []task.Task) (int, error) {
	if m.InsertErr != nil {
		return 0, m.InsertErr
	}
	n := 0
	for _, t := range tasks {
		dup := false
		for _, existing := range m.Tasks {
			if existing.ImportID == t.ImportID && existing.ImportRow == t.ImportRow {
				dup = true
				break
			}
		}
		if !dup {
			m.Tasks = append(m.Tasks, t)
			n++
		}
	}
	return n, nil
}

func (m *MockTaskRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (m *MockTaskRepo) EnsureIndexes(ctx context.Context) error { return nil }

type recordingNotifier struct {
	events []any
}

func (n *recordingNotifier) Broadcast(event any) {
	n.events = append(n.events, event)
}
