package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/habitstack/service-habit-go/internal/habit/entity"
)

// MemoryRepo is a mutex-guarded in-process habit store. It backs tests and
// the no-database development mode of cmd/api.
type MemoryRepo struct {
	mu     sync.Mutex
	habits map[int64]entity.Habit
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{habits: make(map[int64]entity.Habit)}
}

func (r *MemoryRepo) ListByOwner(_ context.Context, ownerID int64) ([]entity.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []entity.Habit{}
	for _, h := range r.habits {
		if h.OwnerID == ownerID {
			if h.Completions == nil {
				h.Completions = []entity.Completion{}
			}
			out = append(out, h)
		}
	}
	// map iteration is unordered; insertion order == id order for snowflakes
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int64) (*entity.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (r *MemoryRepo) Insert(_ context.Context, h *entity.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	r.habits[h.ID] = *h
	return nil
}

func (r *MemoryRepo) Update(_ context.Context, h *entity.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.habits[h.ID]; !ok {
		return ErrNotFound
	}
	h.UpdatedAt = time.Now().UTC()
	r.habits[h.ID] = *h
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.habits[id]; !ok {
		return ErrNotFound
	}
	delete(r.habits, id)
	return nil
}
