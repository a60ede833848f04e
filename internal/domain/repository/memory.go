package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"
)

// MemoryStore keeps users and tasks in process memory. It backs
// DB_DRIVER=memory and the service and router tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]model.User
	tasks map[string]model.Task
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]model.User),
		tasks: make(map[string]model.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

func (s *MemoryStore) Tasks() TaskRepository { return memoryTasks{s} }

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return common.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r memoryUsers) find(match func(model.User) bool) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r memoryUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r memoryUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

type memoryTasks struct{ s *MemoryStore }

func cloneTask(t model.Task) model.Task {
	t.Attachments = append([]model.Attachment{}, t.Attachments...)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		t.AssignedTo = &a
	}
	return t
}

func (r memoryTasks) Create(_ context.Context, task *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[task.ID]; ok {
		return common.Errorf("task already exists: %w", common.ErrConflict)
	}
	now := r.s.now()
	task.CreatedAt, task.UpdatedAt = now, now
	if task.Attachments == nil {
		task.Attachments = []model.Attachment{}
	}
	r.s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r memoryTasks) FindByID(_ context.Context, id string) (*model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	t = cloneTask(t)
	return &t, nil
}

func (r memoryTasks) ListByOwner(_ context.Context, ownerID string) ([]model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := []model.Task{}
	for _, t := range r.s.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r memoryTasks) Update(_ context.Context, task *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return common.ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = r.s.now()
	if task.Attachments == nil {
		task.Attachments = []model.Attachment{}
	}
	r.s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r memoryTasks) Delete(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tasks[id]
	if !ok || existing.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}
