package labels

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dispatcher/frontend/scan"
	"dispatcher/frontend/shared/response"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/models"
)

func labelFor(so string, line models.MaterialLine, printedAt time.Time) MaterialLabelData {
	return MaterialLabelData{
		SaleOrderNumber: so,
		MaterialCode:    line.MaterialCode,
		Description:     line.Description,
		BatchNo:         line.BatchNo,
		BinNo:           line.BinNo,
		CertNo:          line.CertNo,
		RequiredQty:     line.RequiredQty.String(),
		PrintedAt:       printedAt,
	}
}

// OrderLabelsHandler returns one label page per material line of the order.
func OrderLabelsHandler(store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := strings.TrimSpace(chi.URLParam(r, "so"))
		order, ok := store.Get(r.Context(), so)
		if !ok {
			response.Err(w, orderstore.ErrOrderNotFound)
			return
		}
		if len(order.Materials) == 0 {
			response.Error(w, http.StatusNotFound, "order "+so+" has no materials to label")
			return
		}
		now := time.Now()
		labels := make([]MaterialLabelData, 0, len(order.Materials))
		for _, line := range order.Materials {
			labels = append(labels, labelFor(so, line, now))
		}
		writePDF(w, labels, "labels-"+so+".pdf")
	}
}

func LineLabelHandler(store *orderstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		so := strings.TrimSpace(chi.URLParam(r, "so"))
		order, ok := store.Get(r.Context(), so)
		if !ok {
			response.Err(w, orderstore.ErrOrderNotFound)
			return
		}
		idx, err := scan.ResolveLine(order, chi.URLParam(r, "code"))
		if err != nil {
			response.Error(w, http.StatusNotFound, err.Error())
			return
		}
		line := order.Materials[idx]
		writePDF(w, []MaterialLabelData{labelFor(so, line, time.Now())}, "label-"+so+"-"+line.MaterialCode+".pdf")
	}
}

func writePDF(w http.ResponseWriter, labels []MaterialLabelData, filename string) {
	pdfBytes, err := renderMaterialLabelsPDF(labels)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to render labels: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+sanitizeFilename(filename)+`"`)
	_, _ = w.Write(pdfBytes)
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
