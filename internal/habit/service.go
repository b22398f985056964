package habit

import (
	"context"
	"errors"

	"github.com/habitstack/service-habit-go/internal/habit/entity"
	habitrepo "github.com/habitstack/service-habit-go/internal/habit/repo"
	"github.com/habitstack/service-habit-go/pkg/utilities"
)

// Repository is the habit store contract. Satisfied by both the sqlx-backed
// and the in-memory repo.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]entity.Habit, error)
	GetByID(ctx context.Context, id int64) (*entity.Habit, error)
	Insert(ctx context.Context, h *entity.Habit) error
	Update(ctx context.Context, h *entity.Habit) error
	Delete(ctx context.Context, id int64) error
}

var (
	// ErrNotFound covers both a missing habit and one owned by someone
	// else, so callers cannot probe for other users' habit ids.
	ErrNotFound      = errors.New("habit not found")
	ErrTitleRequired = errors.New("title is required")
)

// Patch carries a partial update; nil fields keep their prior value.
type Patch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Service implements habit CRUD scoped to the caller's identity.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all habits owned by callerID in insertion order.
func (s *Service) List(ctx context.Context, callerID int64) ([]entity.Habit, error) {
	return s.repo.ListByOwner(ctx, callerID)
}

// Create inserts a new habit owned by callerID.
func (s *Service) Create(ctx context.Context, callerID int64, title string, description *string) (*entity.Habit, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	h := &entity.Habit{
		ID:          utilities.NewSnowflakeID(),
		Title:       title,
		Description: description,
		OwnerID:     callerID,
		Completions: []entity.Completion{},
	}
	if err := s.repo.Insert(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// loadOwned fetches a habit and enforces the ownership gate. Absence and
// ownership mismatch are reported identically.
func (s *Service) loadOwned(ctx context.Context, callerID, habitID int64) (*entity.Habit, error) {
	h, err := s.repo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, habitrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if h.OwnerID != callerID {
		return nil, ErrNotFound
	}
	return h, nil
}

// Update applies only the fields present in patch and returns the updated
// record. Concurrent updates are last-writer-wins.
func (s *Service) Update(ctx context.Context, callerID, habitID int64, patch Patch) (*entity.Habit, error) {
	h, err := s.loadOwned(ctx, callerID, habitID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, ErrTitleRequired
		}
		h.Title = *patch.Title
	}
	if patch.Description != nil {
		h.Description = patch.Description
	}
	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Delete removes a habit after the same ownership gate as Update.
func (s *Service) Delete(ctx context.Context, callerID, habitID int64) error {
	if _, err := s.loadOwned(ctx, callerID, habitID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, habitID)
}
