// Package syncer moves orders between the ERP and the device: download overwrites the local copy,
// upload posts a finished order and removes it.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dispatcher/infrastructure/events"
	"dispatcher/infrastructure/ledger"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/models"
)

const DefaultConcurrency = 4

// ErrNotReady is returned when an upload is asked for an order that is not fully packed.
var ErrNotReady = errors.New("order is not fully issued and packed")

// Remote is the part of the ERP client the syncer needs.
type Remote interface {
	FetchOrderDetails(ctx context.Context, saleOrderNumber string) ([]models.MaterialLine, error)
	UploadIssuePack(ctx context.Context, saleOrderNumber string, lines []models.MaterialLine, idempotencyKey string) error
}

type Publisher interface {
	Publish(evt events.Event)
}

type Service struct {
	remote      Remote
	orders      *orderstore.Store
	recorder    orderstore.Recorder
	publisher   Publisher
	concurrency int

	Now    func() time.Time
	NewKey func() string
}

func New(remote Remote, orders *orderstore.Store, recorder orderstore.Recorder, publisher Publisher, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		remote:      remote,
		orders:      orders,
		recorder:    recorder,
		publisher:   publisher,
		concurrency: concurrency,
		Now:         time.Now,
		NewKey:      uuid.NewString,
	}
}

// Download replaces the local copy of the order with fresh ERP data. Local progress is lost.
func (s *Service) Download(ctx context.Context, saleOrderNumber string) (models.StoredOrder, error) {
	lines, err := s.remote.FetchOrderDetails(ctx, saleOrderNumber)
	if err != nil {
		return models.StoredOrder{}, err
	}
	before, existed := s.orders.Get(ctx, saleOrderNumber)
	if err := s.orders.Save(ctx, saleOrderNumber, lines); err != nil {
		return models.StoredOrder{}, err
	}
	if err := s.orders.MarkDownloaded(ctx, saleOrderNumber, s.Now()); err != nil {
		slog.Warn("mark downloaded failed", slog.String("sale_order", saleOrderNumber), slog.Any("err", err))
	}

	order, ok := s.orders.Get(ctx, saleOrderNumber)
	if !ok {
		return models.StoredOrder{}, fmt.Errorf("reload order %s: %w", saleOrderNumber, orderstore.ErrOrderNotFound)
	}
	var prior any
	if existed {
		prior = before
	}
	s.record(ctx, "order.download", saleOrderNumber, prior, order)
	s.publish(events.OrderDownloaded, saleOrderNumber, ledger.DerivePhase(order.Materials))
	return order, nil
}

// Result is the outcome of one order in a bulk download.
type Result struct {
	SaleOrderNumber string             `json:"saleOrderNumber"`
	Order           models.StoredOrder `json:"-"`
	Phase           ledger.Phase       `json:"phase,omitempty"`
	Err             error              `json:"-"`
	Error           string             `json:"error,omitempty"`
}

// DownloadAll downloads each order with bounded parallelism. A failing order does not stop the
// others; results keep the input order.
func (s *Service) DownloadAll(ctx context.Context, saleOrderNumbers []string) []Result {
	results := make([]Result, len(saleOrderNumbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, so := range saleOrderNumbers {
		g.Go(func() error {
			order, err := s.Download(gctx, so)
			res := Result{SaleOrderNumber: so, Order: order, Err: err}
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Phase = ledger.DerivePhase(order.Materials)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Upload posts a fully packed order and deletes the local copy once the ERP accepts it.
// A failed post leaves the local copy untouched.
func (s *Service) Upload(ctx context.Context, saleOrderNumber string) error {
	order, ok := s.orders.Get(ctx, saleOrderNumber)
	if !ok {
		return orderstore.ErrOrderNotFound
	}
	if !ledger.DerivePhase(order.Materials).ReadyForUpload() {
		return ErrNotReady
	}
	if err := s.remote.UploadIssuePack(ctx, saleOrderNumber, order.Materials, s.NewKey()); err != nil {
		return err
	}
	s.record(ctx, "order.upload", saleOrderNumber, order, nil)
	if err := s.orders.Delete(ctx, saleOrderNumber); err != nil {
		return fmt.Errorf("order %s uploaded but local copy was not removed: %w", saleOrderNumber, err)
	}
	s.publish(events.OrderUploaded, saleOrderNumber, ledger.PhaseNotDownloaded)
	return nil
}

func (s *Service) record(ctx context.Context, action, saleOrderNumber string, before, after any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, action, "orders", saleOrderNumber, before, after); err != nil {
		slog.Warn("audit record failed", slog.String("action", action), slog.String("sale_order", saleOrderNumber), slog.Any("err", err))
	}
}

func (s *Service) publish(eventType, saleOrderNumber string, phase ledger.Phase) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.Event{Type: eventType, SaleOrderNumber: saleOrderNumber, Phase: string(phase)})
}
