package domain

import "time"

type Category string

const (
	CategoryBook  Category = "book"
	CategoryMovie Category = "movie"
	CategoryShow  Category = "show"
	CategoryGame  Category = "game"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBook, CategoryMovie, CategoryShow, CategoryGame:
		return true
	}
	return false
}

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDropped    Status = "dropped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// Entry is one logged piece of media for one user.
type Entry struct {
	ID         string
	UserID     string
	Category   Category
	Title      string
	ExternalID *string
	Score      *int
	Status     Status
	Notes      string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
