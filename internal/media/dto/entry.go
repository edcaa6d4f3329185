package dto

import (
	"time"

	"github.com/mouthful-app/mouthful/internal/media/domain"
)

type CreateEntryInput struct {
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	ExternalID *string `json:"externalId"`
	Score      *int    `json:"score"`
	Status     string  `json:"status"`
	Notes      string  `json:"notes"`
	StartedAt  *string `json:"startedAt"`
	FinishedAt *string `json:"finishedAt"`
}

type EntryOutput struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	ExternalID *string `json:"externalId,omitempty"`
	Score      *int    `json:"score"`
	Status     string  `json:"status"`
	Notes      string  `json:"notes"`
	StartedAt  *string `json:"startedAt"`
	FinishedAt *string `json:"finishedAt"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func NewEntryOutput(e *domain.Entry) EntryOutput {
	return EntryOutput{
		ID:         e.ID,
		Category:   string(e.Category),
		Title:      e.Title,
		ExternalID: e.ExternalID,
		Score:      e.Score,
		Status:     string(e.Status),
		Notes:      e.Notes,
		StartedAt:  formatDate(e.StartedAt),
		FinishedAt: formatDate(e.FinishedAt),
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
