package service

//go:generate mockgen -destination=../../mocks/mock_entry_repository.go -package=mocks github.com/mouthful-app/mouthful/internal/media/domain EntryRepository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mouthful-app/mouthful/internal/media/domain"
	"github.com/mouthful-app/mouthful/internal/media/dto"
	"github.com/mouthful-app/mouthful/internal/media/fieldset"
)

// PatchSchema declares the fields a client may change on an entry, replacing
// per-category allow-list code with one shared definition.
var PatchSchema = fieldset.Schema{
	"title":      {Column: "title", Convert: fieldset.String(500)},
	"externalId": {Column: "external_id", Nullable: true, Convert: fieldset.String(100)},
	"score":      {Column: "score", Nullable: true, Convert: fieldset.IntRange(0, 10)},
	"status": {Column: "status", Convert: fieldset.Enum(
		string(domain.StatusPlanned), string(domain.StatusInProgress),
		string(domain.StatusCompleted), string(domain.StatusDropped))},
	"notes":      {Column: "notes", Convert: fieldset.String(10000)},
	"startedAt":  {Column: "started_at", Nullable: true, Convert: fieldset.Date()},
	"finishedAt": {Column: "finished_at", Nullable: true, Convert: fieldset.Date()},
}

type EntryService struct {
	repo domain.EntryRepository
}

func NewEntryService(repo domain.EntryRepository) *EntryService {
	return &EntryService{repo: repo}
}

func (s *EntryService) Create(ctx context.Context, userID string, input dto.CreateEntryInput) (*domain.Entry, error) {
	category := domain.Category(input.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("invalid category %q", input.Category)
	}

	status := domain.Status(input.Status)
	if input.Status == "" {
		status = domain.StatusPlanned
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", input.Status)
	}

	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	if input.Score != nil && (*input.Score < 0 || *input.Score > 10) {
		return nil, fmt.Errorf("score must be between 0 and 10")
	}

	startedAt, err := parseDate(input.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("startedAt: %w", err)
	}
	finishedAt, err := parseDate(input.FinishedAt)
	if err != nil {
		return nil, fmt.Errorf("finishedAt: %w", err)
	}

	now := time.Now()

	entry := &domain.Entry{
		ID:         uuid.New().String(),
		UserID:     userID,
		Category:   category,
		Title:      input.Title,
		ExternalID: input.ExternalID,
		Score:      input.Score,
		Status:     status,
		Notes:      input.Notes,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *EntryService) ListByCategory(ctx context.Context, userID string, category domain.Category) ([]domain.Entry, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("invalid category %q", category)
	}
	return s.repo.ListByCategory(ctx, userID, category)
}

func (s *EntryService) Get(ctx context.Context, userID, entryID string) (*domain.Entry, error) {
	return s.repo.GetByID(ctx, userID, entryID)
}

// Patch validates the raw JSON patch against PatchSchema and applies the
// resulting column updates.
func (s *EntryService) Patch(ctx context.Context, userID, entryID string, patch map[string]any) (*domain.Entry, error) {
	columns, err := PatchSchema.Apply(patch)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, userID, entryID, columns); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, userID, entryID)
}

func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	return s.repo.Delete(ctx, userID, entryID)
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD")
	}
	return &t, nil
}
