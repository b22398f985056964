package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/habitstack/service-habit-go/internal/user/entity"
)

// MemoryRepo is a mutex-guarded in-process user store. It backs tests and
// the no-database development mode of cmd/api.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]entity.User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[int64]entity.User)}
}

func (r *MemoryRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}

	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
