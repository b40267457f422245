package scan

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"dispatcher/frontend/shared/response"
	"dispatcher/infrastructure/events"
	"dispatcher/infrastructure/ledger"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/infrastructure/syncer"
	"dispatcher/models"
)

// ScanCommandHandler books one scanned quantity against the issue or pack stage of a line.
func ScanCommandHandler(store *orderstore.Store, publisher syncer.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := strings.TrimSpace(chi.URLParam(r, "so"))
		var req scanRequest
		if err := response.Decode(w, r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid scan body")
			return
		}
		stage, err := ledger.ParseField(req.Stage)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "stage must be issue or pack")
			return
		}
		qty := req.Qty
		if qty.IsZero() {
			qty = ledger.DefaultStep
		}

		order, ok := store.Get(r.Context(), so)
		if !ok {
			response.Error(w, http.StatusNotFound, "order "+so+" is not on this device, please download first")
			return
		}
		idx, err := ResolveLine(order, req.Code)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := CheckScan(order, idx, stage, qty); err != nil {
			writeErr(w, err)
			return
		}
		apply(w, r, store, publisher, so, order.Materials[idx].MaterialCode, stage, ledger.ActionInc, qty)
	}
}

// UpdateLineCommandHandler applies a typed inc, dec or set to one line.
func UpdateLineCommandHandler(store *orderstore.Store, publisher syncer.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := strings.TrimSpace(chi.URLParam(r, "so"))
		field, err := ledger.ParseField(chi.URLParam(r, "field"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		var req editRequest
		if err := response.Decode(w, r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid edit body")
			return
		}
		action, err := ledger.ParseAction(req.Action)
		if err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		order, ok := store.Get(r.Context(), so)
		if !ok {
			response.Error(w, http.StatusNotFound, "order "+so+" is not on this device, please download first")
			return
		}
		idx, err := ResolveLine(order, chi.URLParam(r, "code"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := CheckManual(order, idx, field, action, req.Amount); err != nil {
			writeErr(w, err)
			return
		}
		apply(w, r, store, publisher, so, order.Materials[idx].MaterialCode, field, action, req.Amount)
	}
}

func apply(w http.ResponseWriter, r *http.Request, store *orderstore.Store, publisher syncer.Publisher, so, code string, field ledger.Field, action ledger.Action, amount decimal.Decimal) {
	updated, err := store.UpdateQty(r.Context(), so, code, field, action, amount)
	if err != nil {
		response.Err(w, err)
		return
	}
	result := lineResult(updated, code)
	if publisher != nil {
		publisher.Publish(events.Event{Type: events.OrderUpdated, SaleOrderNumber: so, MaterialCode: code, Phase: string(result.Phase)})
	}
	response.JSON(w, http.StatusOK, result)
}

func lineResult(order models.StoredOrder, code string) LineResult {
	res := LineResult{
		SaleOrderNumber: order.SaleOrderNumber,
		Phase:           ledger.DerivePhase(order.Materials),
		Progress:        ledger.Summarize(order.Materials),
	}
	if idx := order.Line(code); idx >= 0 {
		res.Line = order.Materials[idx]
	}
	return res
}

func writeErr(w http.ResponseWriter, err error) {
	var rej *RejectError
	if errors.As(err, &rej) {
		response.Error(w, rej.Status, rej.Message)
		return
	}
	response.Err(w, err)
}
