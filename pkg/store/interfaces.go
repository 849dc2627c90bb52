package store

import (
	"context"

	"storyvoice/pkg/model"
)

// HistoryStore handles the generation event ledger.
type HistoryStore interface {
	RecordEvent(ctx context.Context, ev model.GenerationEvent) error
	RunEvents(ctx context.Context, runID string) ([]model.GenerationEvent, error)
	LastRunID(ctx context.Context, variant string) (string, bool)
	StoryEvents(ctx context.Context, variant, storyID string) ([]model.GenerationEvent, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
}
