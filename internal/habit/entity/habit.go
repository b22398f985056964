package entity

import "time"

// Habit represents a row in the `habits` table, owned by exactly one user.
type Habit struct {
	ID          int64        `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description"`
	OwnerID     int64        `db:"owner_id" json:"ownerId"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
	Completions []Completion `db:"-" json:"completions"`
}

// Completion is a single recorded completion of a habit. The table exists
// and completions are embedded in habit listings, but no endpoint mutates
// them yet.
type Completion struct {
	ID          int64     `db:"id" json:"id"`
	HabitID     int64     `db:"habit_id" json:"habitId"`
	CompletedAt time.Time `db:"completed_at" json:"completedAt"`
}
