package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"dispatcher/infrastructure/sqlite"
	"dispatcher/models"
)

type actorKey struct{}

// WithActor attaches the operator name recorded on entries written under ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the operator attached with WithActor, or "".
func Actor(ctx context.Context) string {
	return actorFrom(ctx, "")
}

func actorFrom(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return fallback
}

// Service writes audit records for order and material changes.
type Service struct {
	db    *sqlite.DB
	actor string
}

// NewService returns a service that stamps every entry with actor, usually the device id.
func NewService(db *sqlite.DB, actor string) *Service {
	if actor == "" {
		actor = "device"
	}
	return &Service{db: db, actor: actor}
}

// Record writes one entry in its own write transaction.
func (s *Service) Record(ctx context.Context, action, entityType, entityID string, before, after any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("audit service is not initialized")
	}
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.Write(ctx, tx, action, entityType, entityID, before, after)
	})
}

// Write inserts an entry inside the caller transaction.
func (s *Service) Write(ctx context.Context, tx bun.Tx, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}
	log := &models.AuditLog{
		Actor:      actorFrom(ctx, s.actor),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	_, err = tx.NewInsert().Model(log).Exec(ctx)
	return err
}

// List returns the entries for one entity, newest first.
func (s *Service) List(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	logs := make([]models.AuditLog, 0)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&logs).
			Where("entity_type = ?", entityType).
			Where("entity_id = ?", entityID).
			OrderExpr("id DESC").
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries for %s %s: %w", entityType, entityID, err)
	}
	return logs, nil
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
