package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/remote"
	"dispatcher/models"
)

type fakeSubmitter struct {
	err       error
	submitted []models.VehicleEntryDraft
}

func (f *fakeSubmitter) SubmitVehicleEntry(_ context.Context, d models.VehicleEntryDraft) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, d)
	return nil
}

func newRouter(kv kvstore.Store, sub Submitter) http.Handler {
	r := chi.NewRouter()
	r.Get("/gate/draft", GetDraftQueryHandler(kv))
	r.Put("/gate/draft", SaveDraftCommandHandler(kv))
	r.Delete("/gate/draft", ClearDraftCommandHandler(kv))
	r.Post("/gate/submit", SubmitCommandHandler(kv, sub))
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

func TestDraftLifecycle(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	sub := &fakeSubmitter{}
	h := newRouter(kv, sub)

	if rr := do(h, http.MethodGet, "/gate/draft", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", rr.Code)
	}
	rr := do(h, http.MethodPut, "/gate/draft", `{"vehicleNumber":" ka01ab1234 ","driverName":"Ravi","saleOrderNumber":"SO-1"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "KA01AB1234") || !strings.Contains(rr.Body.String(), "savedAt") {
		t.Fatalf("unexpected save response %d %s", rr.Code, rr.Body.String())
	}
	draft, ok := LoadDraft(context.Background(), kv)
	if !ok || draft.SavedAt.IsZero() {
		t.Fatalf("expected stamped draft, got %+v", draft)
	}

	if rr := do(h, http.MethodPost, "/gate/submit", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected submit 200, got %d %s", rr.Code, rr.Body.String())
	}
	if len(sub.submitted) != 1 || sub.submitted[0].VehicleNumber != "KA01AB1234" {
		t.Fatalf("unexpected submissions %+v", sub.submitted)
	}
	if _, ok := LoadDraft(context.Background(), kv); ok {
		t.Fatalf("expected slot cleared after submit")
	}
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	h := newRouter(kv, &fakeSubmitter{err: errors.Join(errors.New("submit"), remote.ErrTimeout)})
	if rr := do(h, http.MethodPut, "/gate/draft", `{"vehicleNumber":"MH12"}`); rr.Code != http.StatusOK {
		t.Fatalf("save: %d", rr.Code)
	}
	if rr := do(h, http.MethodPost, "/gate/submit", ""); rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rr.Code)
	}
	if _, ok := LoadDraft(context.Background(), kv); !ok {
		t.Fatalf("expected draft kept after failed submit")
	}
}

func TestSubmit_RequiresVehicleNumber(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	sub := &fakeSubmitter{}
	h := newRouter(kv, sub)
	if rr := do(h, http.MethodPut, "/gate/draft", `{"driverName":"Ravi"}`); rr.Code != http.StatusOK {
		t.Fatalf("save: %d", rr.Code)
	}
	if rr := do(h, http.MethodPost, "/gate/submit", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(sub.submitted) != 0 {
		t.Fatalf("expected no submission")
	}
}

func TestClearDraft(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	h := newRouter(kv, &fakeSubmitter{})
	_ = do(h, http.MethodPut, "/gate/draft", `{"vehicleNumber":"X1"}`)
	if rr := do(h, http.MethodDelete, "/gate/draft", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if _, ok := LoadDraft(context.Background(), kv); ok {
		t.Fatalf("expected slot empty")
	}
}
