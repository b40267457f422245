// Package orderstore persists downloaded sales orders in the device key-value store and applies
// quantity mutations to them.
package orderstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/ledger"
	"dispatcher/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrMaterialNotFound  = errors.New("material not found in order")
	ErrDuplicateMaterial = errors.New("material code appears more than once in order")
)

// Recorder receives an entry for every change made through the store.
type Recorder interface {
	Record(ctx context.Context, action, entityType, entityID string, before, after any) error
}

// Store owns the persisted representation of every local order.
//
// Writes for one sale order are serialised by a per-order mutex so concurrent mutations of the
// same order are applied one after another instead of overwriting each other.
type Store struct {
	kv       kvstore.Store
	recorder Recorder
	locks    *xsync.MapOf[string, *orderLock]

	// Now stamps completion times; tests replace it.
	Now func() time.Time
}

func New(kv kvstore.Store, recorder Recorder) *Store {
	return &Store{
		kv:       kv,
		recorder: recorder,
		locks:    xsync.NewMapOf[string, *orderLock](),
		Now:      time.Now,
	}
}

// orderLock is shared by every caller working on one sale order. refs is only touched inside
// locks.Compute, so the entry is dropped exactly when nobody holds or waits for it.
type orderLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Store) lock(saleOrderNumber string) func() {
	l, _ := s.locks.Compute(saleOrderNumber, func(old *orderLock, loaded bool) (*orderLock, bool) {
		if !loaded {
			old = &orderLock{}
		}
		old.refs++
		return old, false
	})
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locks.Compute(saleOrderNumber, func(old *orderLock, loaded bool) (*orderLock, bool) {
			if !loaded {
				return old, true
			}
			old.refs--
			return old, old.refs <= 0
		})
	}
}

// Save normalises lines and replaces the whole stored order.
func (s *Store) Save(ctx context.Context, saleOrderNumber string, lines []models.MaterialLine) error {
	if strings.TrimSpace(saleOrderNumber) == "" {
		return fmt.Errorf("sale order number is required")
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if seen[l.MaterialCode] {
			return fmt.Errorf("save order %s: %w: %q", saleOrderNumber, ErrDuplicateMaterial, l.MaterialCode)
		}
		seen[l.MaterialCode] = true
	}
	unlock := s.lock(saleOrderNumber)
	defer unlock()
	return s.save(ctx, models.StoredOrder{SaleOrderNumber: saleOrderNumber, Materials: lines})
}

func (s *Store) save(ctx context.Context, order models.StoredOrder) error {
	order.Materials = ledger.NormalizeLines(order.Materials)
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.SaleOrderNumber, err)
	}
	if err := s.kv.Set(ctx, kvstore.OrderKey(order.SaleOrderNumber), string(payload)); err != nil {
		return fmt.Errorf("save order %s: %w", order.SaleOrderNumber, err)
	}
	return nil
}

// Get returns the stored order with quantities re-clamped. Missing, unreadable and corrupt
// records all report ok=false; the caller should ask for a fresh download.
func (s *Store) Get(ctx context.Context, saleOrderNumber string) (models.StoredOrder, bool) {
	return s.get(ctx, saleOrderNumber)
}

func (s *Store) get(ctx context.Context, saleOrderNumber string) (models.StoredOrder, bool) {
	raw, ok, err := s.kv.Get(ctx, kvstore.OrderKey(saleOrderNumber))
	if err != nil {
		slog.Warn("order store read failed", slog.String("sale_order", saleOrderNumber), slog.Any("err", err))
		return models.StoredOrder{}, false
	}
	if !ok {
		return models.StoredOrder{}, false
	}

	var order models.StoredOrder
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		slog.Warn("discarding unreadable stored order", slog.String("sale_order", saleOrderNumber), slog.Any("err", err))
		return models.StoredOrder{}, false
	}
	order.SaleOrderNumber = saleOrderNumber
	order.Materials = ledger.NormalizeLines(order.Materials)
	return order, true
}

// Has reports whether a local copy of the order exists.
func (s *Store) Has(ctx context.Context, saleOrderNumber string) bool {
	_, ok := s.get(ctx, saleOrderNumber)
	return ok
}

// Delete removes the order and its download timestamp.
func (s *Store) Delete(ctx context.Context, saleOrderNumber string) error {
	unlock := s.lock(saleOrderNumber)
	defer unlock()

	before, existed := s.get(ctx, saleOrderNumber)
	err := errors.Join(
		s.kv.Delete(ctx, kvstore.OrderKey(saleOrderNumber)),
		s.kv.Delete(ctx, kvstore.DownloadedAtKey(saleOrderNumber)),
	)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", saleOrderNumber, err)
	}
	if existed {
		s.record(ctx, "order.delete", saleOrderNumber, before, nil)
	}
	return nil
}

// List returns the sale order numbers held locally, in key order.
func (s *Store) List(ctx context.Context) []string {
	keys, err := s.kv.Keys(ctx, kvstore.OrderKeyPrefix)
	if err != nil {
		slog.Warn("order store list failed", slog.Any("err", err))
		return []string{}
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, kvstore.OrderKeyPrefix))
	}
	return out
}

// Phase derives the order phase, reporting not_downloaded when there is no local copy.
func (s *Store) Phase(ctx context.Context, saleOrderNumber string) ledger.Phase {
	order, ok := s.get(ctx, saleOrderNumber)
	if !ok {
		return ledger.PhaseNotDownloaded
	}
	return ledger.DerivePhase(order.Materials)
}

// MarkDownloaded stores the download time shown as "downloaded N ago".
func (s *Store) MarkDownloaded(ctx context.Context, saleOrderNumber string, at time.Time) error {
	return s.kv.Set(ctx, kvstore.DownloadedAtKey(saleOrderNumber), at.UTC().Format(time.RFC3339Nano))
}

func (s *Store) DownloadedAt(ctx context.Context, saleOrderNumber string) (time.Time, bool) {
	raw, ok, err := s.kv.Get(ctx, kvstore.DownloadedAtKey(saleOrderNumber))
	if err != nil || !ok {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

func (s *Store) record(ctx context.Context, action, saleOrderNumber string, before, after any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, action, "orders", saleOrderNumber, before, after); err != nil {
		slog.Warn("audit record failed", slog.String("action", action), slog.String("sale_order", saleOrderNumber), slog.Any("err", err))
	}
}
