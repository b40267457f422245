package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dispatcher/infrastructure/kvstore"
	"dispatcher/models"
)

// LoadDraft returns the saved vehicle entry draft. A missing or unreadable slot reads as no draft.
func LoadDraft(ctx context.Context, kv kvstore.Store) (models.VehicleEntryDraft, bool) {
	raw, ok, err := kv.Get(ctx, kvstore.VehicleEntryDraftKey)
	if err != nil {
		slog.Warn("load vehicle entry draft failed", slog.Any("err", err))
		return models.VehicleEntryDraft{}, false
	}
	if !ok {
		return models.VehicleEntryDraft{}, false
	}
	var draft models.VehicleEntryDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		slog.Warn("discarding unreadable vehicle entry draft", slog.Any("err", err))
		return models.VehicleEntryDraft{}, false
	}
	return draft, true
}

// SaveDraft replaces the draft slot and stamps SavedAt.
func SaveDraft(ctx context.Context, kv kvstore.Store, draft models.VehicleEntryDraft, now time.Time) (models.VehicleEntryDraft, error) {
	draft.SavedAt = now.UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return draft, fmt.Errorf("encode vehicle entry draft: %w", err)
	}
	if err := kv.Set(ctx, kvstore.VehicleEntryDraftKey, string(payload)); err != nil {
		return draft, fmt.Errorf("save vehicle entry draft: %w", err)
	}
	return draft, nil
}

func ClearDraft(ctx context.Context, kv kvstore.Store) error {
	if err := kv.Delete(ctx, kvstore.VehicleEntryDraftKey); err != nil {
		return fmt.Errorf("clear vehicle entry draft: %w", err)
	}
	return nil
}
