package orders

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dispatcher/frontend/shared/response"
	"dispatcher/infrastructure/events"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/infrastructure/syncer"
)

func saleOrderParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "so"))
}

// ListOrdersQueryHandler lists ERP orders merged with local progress. With ?local=1 only orders
// held on the device are listed and the ERP is not called.
func ListOrdersQueryHandler(lister Lister, store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		if r.URL.Query().Get("local") == "1" {
			response.JSON(w, http.StatusOK, ListData{Orders: MergeList(r.Context(), store, nil, now)})
			return
		}
		data := ListData{}
		summaries, err := lister.FetchOrderSummaries(r.Context())
		if err != nil {
			slog.Warn("fetch order summaries failed, listing local orders", slog.Any("err", err))
			data.RemoteError = err.Error()
		}
		data.Orders = MergeList(r.Context(), store, summaries, now)
		response.JSON(w, http.StatusOK, data)
	}
}

func OrderDetailQueryHandler(store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := saleOrderParam(r)
		detail, ok := LoadDetail(r.Context(), store, so, time.Now())
		if !ok {
			response.Error(w, http.StatusNotFound, "order "+so+" is not on this device, please download first")
			return
		}
		response.JSON(w, http.StatusOK, detail)
	}
}

// OrderPageQueryHandler renders the progress page for a downloaded order.
func OrderPageQueryHandler(store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := saleOrderParam(r)
		detail, ok := LoadDetail(r.Context(), store, so, time.Now())
		if !ok {
			http.Error(w, "order not downloaded, please download first", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := OrderProgressPage(detail).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render order page", http.StatusInternalServerError)
			return
		}
	}
}

func DownloadOrderCommandHandler(sync Syncer, store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := saleOrderParam(r)
		if _, err := sync.Download(r.Context(), so); err != nil {
			response.Err(w, err)
			return
		}
		detail, _ := LoadDetail(r.Context(), store, so, time.Now())
		response.JSON(w, http.StatusOK, detail)
	}
}

// BulkDownloadCommandHandler downloads several orders and reports each outcome.
func BulkDownloadCommandHandler(sync Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkDownloadRequest
		if err := response.Decode(w, r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sos := make([]string, 0, len(req.SaleOrderNumbers))
		for _, so := range req.SaleOrderNumbers {
			if so = strings.TrimSpace(so); so != "" {
				sos = append(sos, so)
			}
		}
		if len(sos) == 0 {
			response.Error(w, http.StatusBadRequest, "saleOrderNumbers is required")
			return
		}
		response.JSON(w, http.StatusOK, sync.DownloadAll(r.Context(), sos))
	}
}

// UploadOrderCommandHandler uploads a fully packed order; the local copy is removed on success.
func UploadOrderCommandHandler(sync Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := saleOrderParam(r)
		if err := sync.Upload(r.Context(), so); err != nil {
			response.Err(w, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"saleOrderNumber": so, "status": "uploaded"})
	}
}

func DeleteOrderCommandHandler(store *orderstore.Store, publisher syncer.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := saleOrderParam(r)
		if !store.Has(r.Context(), so) {
			response.Err(w, orderstore.ErrOrderNotFound)
			return
		}
		if err := store.Delete(r.Context(), so); err != nil {
			response.Err(w, err)
			return
		}
		if publisher != nil {
			publisher.Publish(events.Event{Type: events.OrderDeleted, SaleOrderNumber: so, Phase: "not_downloaded"})
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func OrderHistoryQueryHandler(history History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := history.List(r.Context(), "orders", saleOrderParam(r))
		if err != nil {
			response.Err(w, err)
			return
		}
		response.JSON(w, http.StatusOK, logs)
	}
}

func AttachmentsQueryHandler(remote Remote) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := remote.ListAttachments(r.Context(), saleOrderParam(r))
		if err != nil {
			response.Err(w, err)
			return
		}
		response.JSON(w, http.StatusOK, list)
	}
}
