package orders

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"dispatcher/infrastructure/ledger"
	"dispatcher/infrastructure/orderstore"
	"dispatcher/models"
)

// LoadDetail reads the stored order and derives its phase and progress.
func LoadDetail(ctx context.Context, store *orderstore.Store, saleOrderNumber string, now time.Time) (Detail, bool) {
	order, ok := store.Get(ctx, saleOrderNumber)
	if !ok {
		return Detail{}, false
	}
	d := Detail{
		SaleOrderNumber: order.SaleOrderNumber,
		Phase:           ledger.DerivePhase(order.Materials),
		Progress:        ledger.Summarize(order.Materials),
		Materials:       order.Materials,
	}
	if at, ok := store.DownloadedAt(ctx, saleOrderNumber); ok {
		d.DownloadedAt = &at
		d.DownloadedAgo = humanize.RelTime(at, now, "ago", "from now")
	}
	return d, true
}

// MergeList joins the ERP summaries with what is held on the device. Local orders the ERP no
// longer lists are appended so they can still be uploaded or reset.
func MergeList(ctx context.Context, store *orderstore.Store, summaries []models.OrdersSummaryItem, now time.Time) []ListItem {
	local := store.List(ctx)
	held := make(map[string]bool, len(local))
	for _, so := range local {
		held[so] = true
	}

	items := make([]ListItem, 0, len(summaries)+len(local))
	seen := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		if s.SaleOrderNumber == "" || seen[s.SaleOrderNumber] {
			continue
		}
		seen[s.SaleOrderNumber] = true
		item := ListItem{
			SaleOrderNumber: s.SaleOrderNumber,
			Priority:        s.Priority,
			Status:          s.Status,
			TotalMaterials:  s.TotalMaterials,
			TotalItems:      s.TotalItems,
			Phase:           ledger.PhaseNotDownloaded,
		}
		if held[s.SaleOrderNumber] {
			fillLocal(ctx, store, &item, now)
		}
		items = append(items, item)
	}
	for _, so := range local {
		if seen[so] {
			continue
		}
		item := ListItem{SaleOrderNumber: so}
		if fillLocal(ctx, store, &item, now) {
			items = append(items, item)
		}
	}
	return items
}

func fillLocal(ctx context.Context, store *orderstore.Store, item *ListItem, now time.Time) bool {
	d, ok := LoadDetail(ctx, store, item.SaleOrderNumber, now)
	if !ok {
		item.Phase = ledger.PhaseNotDownloaded
		return false
	}
	item.Downloaded = true
	item.Phase = d.Phase
	item.DownloadedAt = d.DownloadedAt
	item.DownloadedAgo = d.DownloadedAgo
	if item.TotalMaterials == 0 {
		item.TotalMaterials = len(d.Materials)
	}
	return true
}
