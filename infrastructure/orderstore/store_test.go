package orderstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/ledger"
	"dispatcher/infrastructure/sqlite"
	"dispatcher/models"
)

type recordedEntry struct {
	Action   string
	EntityID string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (f *fakeRecorder) Record(_ context.Context, action, _, entityID string, _, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedEntry{Action: action, EntityID: entityID})
	return nil
}

func qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newMemoryStore(t *testing.T) (*Store, *kvstore.MemoryStore) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	return New(kv, nil), kv
}

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "orderstore-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return New(kvstore.NewSQLiteStore(db), nil)
}

func seedOrder(t *testing.T, s *Store, so string, lines ...models.MaterialLine) {
	t.Helper()
	if err := s.Save(context.Background(), so, lines); err != nil {
		t.Fatalf("save %s: %v", so, err)
	}
}

func TestSaveGet_RoundTripReturnsNormalisedLines(t *testing.T) {
	for name, s := range map[string]*Store{"memory": func() *Store { s, _ := newMemoryStore(t); return s }(), "sqlite": newSQLiteStore(t)} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := []models.MaterialLine{
				{MaterialCode: "M1", Description: "Valve", BatchNo: "B-7", RequiredQty: qty(5), IssuedQty: qty(9), PackedQty: qty(-3)},
				{MaterialCode: "M2", RequiredQty: decimal.RequireFromString("2.5"), IssuedQty: decimal.RequireFromString("1.25")},
				{MaterialCode: "M3", RequiredQty: qty(-1), IssuedQty: qty(1)},
			}
			seedOrder(t, s, "SO-1", in...)

			got, ok := s.Get(ctx, "SO-1")
			if !ok {
				t.Fatalf("expected stored order")
			}
			want := ledger.NormalizeLines(in)
			if len(got.Materials) != len(want) {
				t.Fatalf("expected %d lines, got %d", len(want), len(got.Materials))
			}
			for i := range want {
				assertLineEqual(t, got.Materials[i], want[i])
			}
			if got.SaleOrderNumber != "SO-1" {
				t.Fatalf("unexpected sale order number %q", got.SaleOrderNumber)
			}
			if !got.Materials[0].IssuedQty.Equal(qty(5)) || !got.Materials[0].PackedQty.IsZero() {
				t.Fatalf("expected clamped quantities, got %+v", got.Materials[0])
			}
		})
	}
}

func assertLineEqual(t *testing.T, got, want models.MaterialLine) {
	t.Helper()
	if got.MaterialCode != want.MaterialCode || got.Description != want.Description || got.BatchNo != want.BatchNo ||
		got.SODonorBatch != want.SODonorBatch || got.CertNo != want.CertNo || got.BinNo != want.BinNo || got.ADF != want.ADF {
		t.Fatalf("string fields differ: got %+v want %+v", got, want)
	}
	if !got.RequiredQty.Equal(want.RequiredQty) || !got.IssuedQty.Equal(want.IssuedQty) || !got.PackedQty.Equal(want.PackedQty) {
		t.Fatalf("quantities differ: got %s/%s/%s want %s/%s/%s",
			got.RequiredQty, got.IssuedQty, got.PackedQty, want.RequiredQty, want.IssuedQty, want.PackedQty)
	}
}

func TestSave_ReplacesWholeOrder(t *testing.T) {
	s, _ := newMemoryStore(t)
	seedOrder(t, s, "SO-1", models.MaterialLine{MaterialCode: "A", RequiredQty: qty(1)}, models.MaterialLine{MaterialCode: "B", RequiredQty: qty(1)})
	seedOrder(t, s, "SO-1", models.MaterialLine{MaterialCode: "C", RequiredQty: qty(2)})

	got, _ := s.Get(context.Background(), "SO-1")
	if len(got.Materials) != 1 || got.Materials[0].MaterialCode != "C" {
		t.Fatalf("expected order replaced by single line C, got %+v", got.Materials)
	}
}

func TestSave_RequiresSaleOrderNumber(t *testing.T) {
	s, _ := newMemoryStore(t)
	if err := s.Save(context.Background(), " ", nil); err == nil {
		t.Fatalf("expected error for blank sale order number")
	}
}

func TestSave_RejectsDuplicateMaterialCodes(t *testing.T) {
	s, kv := newMemoryStore(t)
	ctx := context.Background()
	err := s.Save(ctx, "SO-1", []models.MaterialLine{
		{MaterialCode: "M1", RequiredQty: qty(1)},
		{MaterialCode: "M2", RequiredQty: qty(1)},
		{MaterialCode: "M1", RequiredQty: qty(3)},
	})
	if !errors.Is(err, ErrDuplicateMaterial) {
		t.Fatalf("expected ErrDuplicateMaterial, got %v", err)
	}
	if _, ok, _ := kv.Get(ctx, kvstore.OrderKey("SO-1")); ok {
		t.Fatalf("expected nothing written for a rejected order")
	}
}

func TestSave_CaseDifferentCodesAreDistinct(t *testing.T) {
	s, _ := newMemoryStore(t)
	seedOrder(t, s, "SO-1",
		models.MaterialLine{MaterialCode: "m1", RequiredQty: qty(1)},
		models.MaterialLine{MaterialCode: "M1", RequiredQty: qty(1)},
	)
	got, ok := s.Get(context.Background(), "SO-1")
	if !ok || len(got.Materials) != 2 {
		t.Fatalf("expected both lines stored, got %+v", got)
	}
}

func TestLocks_ReleasedWhenIdle(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	seedOrder(t, s, "SO-1", models.MaterialLine{MaterialCode: "M1", RequiredQty: qty(50)})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateQty(ctx, "SO-1", "M1", ledger.FieldIssued, ledger.ActionInc, qty(1))
		}()
	}
	wg.Wait()
	if err := s.Delete(ctx, "SO-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := s.locks.Size(); n != 0 {
		t.Fatalf("expected no lock entries left, got %d", n)
	}
}

func TestGet_ReclampsCorruptedQuantities(t *testing.T) {
	s, kv := newMemoryStore(t)
	raw := `{"saleOrderNumber":"SO-9","materials":[{"materialCode":"M1","requiredQty":"3","issuedQty":"8","packedQty":"-2"}]}`
	if err := kv.Set(context.Background(), kvstore.OrderKey("SO-9"), raw); err != nil {
		t.Fatalf("seed raw: %v", err)
	}
	got, ok := s.Get(context.Background(), "SO-9")
	if !ok {
		t.Fatalf("expected order")
	}
	if !got.Materials[0].IssuedQty.Equal(qty(3)) || !got.Materials[0].PackedQty.IsZero() {
		t.Fatalf("expected re-clamped quantities, got %+v", got.Materials[0])
	}
}

func TestGet_MalformedJSONIsNotFound(t *testing.T) {
	s, kv := newMemoryStore(t)
	if err := kv.Set(context.Background(), kvstore.OrderKey("SO-BAD"), "{not json"); err != nil {
		t.Fatalf("seed raw: %v", err)
	}
	if _, ok := s.Get(context.Background(), "SO-BAD"); ok {
		t.Fatalf("expected corrupt record to read as not found")
	}
	if s.Has(context.Background(), "SO-BAD") {
		t.Fatalf("expected Has=false for corrupt record")
	}
	if p := s.Phase(context.Background(), "SO-BAD"); p != ledger.PhaseNotDownloaded {
		t.Fatalf("expected not_downloaded phase, got %s", p)
	}
}

func TestDelete_ThenGetIsNotFound(t *testing.T) {
	s, _ := newMemoryStore(t)
	rec := &fakeRecorder{}
	s.recorder = rec
	ctx := context.Background()
	seedOrder(t, s, "SO-1", models.MaterialLine{MaterialCode: "M1", RequiredQty: qty(1)})
	if err := s.MarkDownloaded(ctx, "SO-1", time.Now()); err != nil {
		t.Fatalf("mark downloaded: %v", err)
	}

	if err := s.Delete(ctx, "SO-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get(ctx, "SO-1"); ok {
		t.Fatalf("expected not found after delete")
	}
	if _, ok := s.DownloadedAt(ctx, "SO-1"); ok {
		t.Fatalf("expected download timestamp removed with the order")
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != "order.delete" {
		t.Fatalf("expected one order.delete audit entry, got %+v", rec.entries)
	}
}

func TestListAndDownloadedAt(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()
	seedOrder(t, s, "SO-2")
	seedOrder(t, s, "SO-1")

	list := s.List(ctx)
	if len(list) != 2 || list[0] != "SO-1" || list[1] != "SO-2" {
		t.Fatalf("unexpected list %v", list)
	}

	at := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)
	if err := s.MarkDownloaded(ctx, "SO-1", at); err != nil {
		t.Fatalf("mark downloaded: %v", err)
	}
	got, ok := s.DownloadedAt(ctx, "SO-1")
	if !ok || !got.Equal(at) {
		t.Fatalf("expected %v, got %v ok=%v", at, got, ok)
	}
	if _, ok := s.DownloadedAt(ctx, "SO-2"); ok {
		t.Fatalf("expected no timestamp for SO-2")
	}
}

func TestUpdateQty_NotFound(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()
	if _, err := s.UpdateQty(ctx, "SO-X", "M1", ledger.FieldIssued, ledger.ActionInc, qty(1)); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	seedOrder(t, s, "SO-1", models.MaterialLine{MaterialCode: "M1", RequiredQty: qty(1)})
	if _, err := s.UpdateQty(ctx, "SO-1", "m1", ledger.FieldIssued, ledger.ActionInc, qty(1)); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("expected case-sensitive ErrMaterialNotFound, got %v", err)
	}
	got, _ := s.Get(ctx, "SO-1")
	if !got.Materials[0].IssuedQty.IsZero() {
		t.Fatalf("expected no write on material miss")
	}
}
