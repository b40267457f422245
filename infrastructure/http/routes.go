package http

import (
	"github.com/go-chi/chi/v5"

	exportspage "dispatcher/frontend/exports"
	"dispatcher/frontend/gate"
	"dispatcher/frontend/labels"
	"dispatcher/frontend/orders"
	"dispatcher/frontend/scan"
)

// RegisterOrderRoutes registers the order list, detail, sync and progress routes.
func (s *Server) RegisterOrderRoutes(r chi.Router) chi.Router {
	r.Get("/orders", orders.ListOrdersQueryHandler(s.Summaries, s.Orders))
	r.Post("/orders/download", orders.BulkDownloadCommandHandler(s.Sync))

	r.Route("/orders/{so}", func(r chi.Router) {
		r.Get("/", orders.OrderDetailQueryHandler(s.Orders))
		r.Delete("/", orders.DeleteOrderCommandHandler(s.Orders, s.Hub))
		r.Get("/view", orders.OrderPageQueryHandler(s.Orders))
		r.Post("/download", orders.DownloadOrderCommandHandler(s.Sync, s.Orders))
		r.Post("/upload", orders.UploadOrderCommandHandler(s.Sync))
		r.Get("/history", orders.OrderHistoryQueryHandler(s.History))
		r.Get("/attachments", orders.AttachmentsQueryHandler(s.ERP))

		r.Post("/scan", scan.ScanCommandHandler(s.Orders, s.Hub))
		r.Put("/lines/{code}/{field}", scan.UpdateLineCommandHandler(s.Orders, s.Hub))

		r.Get("/labels", labels.OrderLabelsHandler(s.Orders))
		r.Get("/lines/{code}/label", labels.LineLabelHandler(s.Orders))
		r.Get("/export", exportspage.OrderExportHandler(s.Orders))
	})
	return r
}

// RegisterGateRoutes registers the vehicle entry draft routes.
func (s *Server) RegisterGateRoutes(r chi.Router) chi.Router {
	r.Get("/gate/draft", gate.GetDraftQueryHandler(s.KV))
	r.Put("/gate/draft", gate.SaveDraftCommandHandler(s.KV))
	r.Delete("/gate/draft", gate.ClearDraftCommandHandler(s.KV))
	r.Post("/gate/submit", gate.SubmitCommandHandler(s.KV, s.ERP))
	return r
}
