package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/models"
)

func seededRouter(t *testing.T) http.Handler {
	t.Helper()
	store := orderstore.New(kvstore.NewMemoryStore(), nil)
	issuedAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Save(context.Background(), "SO-1", []models.MaterialLine{
		{MaterialCode: "M1", Description: "Valve, 2\"", BatchNo: "B1", BinNo: "A-01", RequiredQty: decimal.NewFromInt(2), IssuedQty: decimal.NewFromInt(2), IssuedAt: &issuedAt},
		{MaterialCode: "M2", RequiredQty: decimal.RequireFromString("1.5")},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/orders/{so}/export", OrderExportHandler(store))
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestOrderExportHandler_CSV(t *testing.T) {
	rr := get(seededRouter(t), "/orders/SO-1/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	records, err := csv.NewReader(bytes.NewReader(rr.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "Material Code" || records[0][8] != "Packed At" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][1] != `Valve, 2"` || records[1][5] != "2" || records[1][7] != "2026-04-01T10:00:00Z" || records[1][8] != "" {
		t.Fatalf("unexpected row %v", records[1])
	}
	if records[2][4] != "1.5" {
		t.Fatalf("unexpected required %v", records[2])
	}
	if got := rr.Header().Get("Content-Disposition"); got != "attachment; filename=order-SO-1.csv" {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestOrderExportHandler_XLSX(t *testing.T) {
	rr := get(seededRouter(t), "/orders/SO-1/export?format=xlsx")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Order")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Material Code" || rows[1][0] != "M1" {
		t.Fatalf("unexpected sheet rows %v", rows)
	}
}

func TestOrderExportHandler_Errors(t *testing.T) {
	h := seededRouter(t)
	if rr := get(h, "/orders/SO-1/export?format=pdf"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := get(h, "/orders/SO-9/export"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
