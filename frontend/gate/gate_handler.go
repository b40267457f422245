package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dispatcher/frontend/shared/response"
	"dispatcher/infrastructure/kvstore"
	"dispatcher/models"
)

type Submitter interface {
	SubmitVehicleEntry(ctx context.Context, draft models.VehicleEntryDraft) error
}

func trimDraft(d models.VehicleEntryDraft) models.VehicleEntryDraft {
	d.VehicleNumber = strings.ToUpper(strings.TrimSpace(d.VehicleNumber))
	d.DriverName = strings.TrimSpace(d.DriverName)
	d.DriverPhone = strings.TrimSpace(d.DriverPhone)
	d.Transporter = strings.TrimSpace(d.Transporter)
	d.Purpose = strings.TrimSpace(d.Purpose)
	d.SaleOrderNumber = strings.TrimSpace(d.SaleOrderNumber)
	d.Remarks = strings.TrimSpace(d.Remarks)
	return d
}

func GetDraftQueryHandler(kv kvstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := LoadDraft(r.Context(), kv)
		if !ok {
			response.Error(w, http.StatusNotFound, "no saved draft")
			return
		}
		response.JSON(w, http.StatusOK, draft)
	}
}

func SaveDraftCommandHandler(kv kvstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft models.VehicleEntryDraft
		if err := response.Decode(w, r, &draft); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid draft body")
			return
		}
		saved, err := SaveDraft(r.Context(), kv, trimDraft(draft), time.Now())
		if err != nil {
			response.Err(w, err)
			return
		}
		response.JSON(w, http.StatusOK, saved)
	}
}

func ClearDraftCommandHandler(kv kvstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ClearDraft(r.Context(), kv); err != nil {
			response.Err(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SubmitCommandHandler posts the saved draft to the ERP and clears the slot on success.
func SubmitCommandHandler(kv kvstore.Store, submitter Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := LoadDraft(r.Context(), kv)
		if !ok {
			response.Error(w, http.StatusNotFound, "no saved draft to submit")
			return
		}
		draft = trimDraft(draft)
		if draft.VehicleNumber == "" {
			response.Error(w, http.StatusBadRequest, "vehicle number is required")
			return
		}
		if err := submitter.SubmitVehicleEntry(r.Context(), draft); err != nil {
			response.Err(w, err)
			return
		}
		if err := ClearDraft(r.Context(), kv); err != nil {
			slog.Error("vehicle entry submitted but draft not cleared", slog.String("vehicle", draft.VehicleNumber), slog.Any("err", err))
		}
		response.JSON(w, http.StatusOK, map[string]string{"vehicleNumber": draft.VehicleNumber, "status": "submitted"})
	}
}
