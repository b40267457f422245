package exports

import (
	"bytes"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"dispatcher/frontend/shared/response"
	"dispatcher/infrastructure/orderstore"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OrderExportHandler exports the progress of one order as csv (default) or xlsx.
func OrderExportHandler(store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := strings.TrimSpace(chi.URLParam(r, "so"))
		format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "xlsx" {
			response.Error(w, http.StatusBadRequest, "format must be csv or xlsx")
			return
		}
		order, ok := store.Get(r.Context(), so)
		if !ok {
			response.Err(w, orderstore.ErrOrderNotFound)
			return
		}

		rows := orderRows(order)
		base := "order-" + unsafeFilename.ReplaceAllString(so, "_")
		var buf bytes.Buffer
		var err error
		if format == "xlsx" {
			err = writeXLSX(&buf, "Order", orderHeaders, rows)
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		} else {
			err = writeCSV(&buf, orderHeaders, rows)
			w.Header().Set("Content-Type", "text/csv")
		}
		if err != nil {
			slog.Error("export order failed", slog.String("sale_order", so), slog.String("format", format), slog.Any("err", err))
			w.Header().Del("Content-Type")
			response.Error(w, http.StatusInternalServerError, "failed to export order")
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename="+base+"."+format)
		_, _ = w.Write(buf.Bytes())
	}
}
