package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/habitstack/service-habit-go/internal/habit/entity"
)

// ErrNotFound is returned when no habit matches the lookup id.
var ErrNotFound = errors.New("habit not found")

// HabitRepo provides data access for the habits table using sqlx.
type HabitRepo struct {
	db *sqlx.DB
}

func NewHabitRepo(db *sqlx.DB) *HabitRepo { return &HabitRepo{db: db} }

// EnsureTable creates the habits and habit_completions tables if not exists
// (idempotent). Convenience for early development; prefer migrations in
// production.
func (r *HabitRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS habits (
  id BIGINT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  owner_id BIGINT NOT NULL REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_habits_owner ON habits(owner_id);
CREATE TABLE IF NOT EXISTS habit_completions (
  id BIGINT PRIMARY KEY,
  habit_id BIGINT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
  completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_habit_completions_habit ON habit_completions(habit_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// ListByOwner returns all habits owned by ownerID in insertion order, with
// their completions embedded.
func (r *HabitRepo) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Habit, error) {
	const q = `SELECT id, title, description, owner_id, created_at, updated_at
	           FROM habits WHERE owner_id=$1 ORDER BY id`
	habits := []entity.Habit{}
	if err := r.db.SelectContext(ctx, &habits, q, ownerID); err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return habits, nil
	}

	ids := make([]int64, 0, len(habits))
	byID := make(map[int64]*entity.Habit, len(habits))
	for i := range habits {
		habits[i].Completions = []entity.Completion{}
		ids = append(ids, habits[i].ID)
		byID[habits[i].ID] = &habits[i]
	}

	const cq = `SELECT id, habit_id, completed_at FROM habit_completions
	            WHERE habit_id IN (?) ORDER BY completed_at`
	query, args, err := sqlx.In(cq, ids)
	if err != nil {
		return nil, err
	}
	var completions []entity.Completion
	if err := r.db.SelectContext(ctx, &completions, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, c := range completions {
		if h, ok := byID[c.HabitID]; ok {
			h.Completions = append(h.Completions, c)
		}
	}
	return habits, nil
}

// GetByID fetches a single habit row or ErrNotFound.
func (r *HabitRepo) GetByID(ctx context.Context, id int64) (*entity.Habit, error) {
	const q = `SELECT id, title, description, owner_id, created_at, updated_at
	           FROM habits WHERE id=$1`
	var row entity.Habit
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Insert stores a new habit and fills in its timestamps.
func (r *HabitRepo) Insert(ctx context.Context, h *entity.Habit) error {
	const q = `INSERT INTO habits (id, title, description, owner_id)
	           VALUES (:id, :title, :description, :owner_id)
	           RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, map[string]any{
		"id":          h.ID,
		"title":       h.Title,
		"description": h.Description,
		"owner_id":    h.OwnerID,
	})
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&h.CreatedAt, &h.UpdatedAt)
	}
	return errors.New("no row returned")
}

// Update persists title and description and bumps updated_at.
func (r *HabitRepo) Update(ctx context.Context, h *entity.Habit) error {
	const q = `UPDATE habits SET title=$1, description=$2, updated_at=NOW()
	           WHERE id=$3 RETURNING updated_at`
	if err := r.db.QueryRowContext(ctx, q, h.Title, h.Description, h.ID).Scan(&h.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a habit row (completions cascade).
func (r *HabitRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
