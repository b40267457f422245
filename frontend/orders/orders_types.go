package orders

import (
	"context"
	"time"

	"dispatcher/infrastructure/ledger"
	"dispatcher/infrastructure/syncer"
	"dispatcher/models"
)

type Lister interface {
	FetchOrderSummaries(ctx context.Context) ([]models.OrdersSummaryItem, error)
}

// Remote is the part of the ERP client the order screens read from.
type Remote interface {
	Lister
	ListAttachments(ctx context.Context, saleOrderNumber string) ([]models.Attachment, error)
}

type Syncer interface {
	Download(ctx context.Context, saleOrderNumber string) (models.StoredOrder, error)
	DownloadAll(ctx context.Context, saleOrderNumbers []string) []syncer.Result
	Upload(ctx context.Context, saleOrderNumber string) error
}

type History interface {
	List(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

type ListItem struct {
	SaleOrderNumber string       `json:"saleOrderNumber"`
	Priority        string       `json:"priority,omitempty"`
	Status          string       `json:"status,omitempty"`
	TotalMaterials  int          `json:"totalMaterials"`
	TotalItems      int          `json:"totalItems"`
	Downloaded      bool         `json:"downloaded"`
	Phase           ledger.Phase `json:"phase"`
	DownloadedAt    *time.Time   `json:"downloadedAt,omitempty"`
	DownloadedAgo   string       `json:"downloadedAgo,omitempty"`
}

type ListData struct {
	Orders      []ListItem `json:"orders"`
	RemoteError string     `json:"remoteError,omitempty"`
}

type Detail struct {
	SaleOrderNumber string                `json:"saleOrderNumber"`
	Phase           ledger.Phase          `json:"phase"`
	Progress        ledger.Progress       `json:"progress"`
	Materials       []models.MaterialLine `json:"materials"`
	DownloadedAt    *time.Time            `json:"downloadedAt,omitempty"`
	DownloadedAgo   string                `json:"downloadedAgo,omitempty"`
}

type bulkDownloadRequest struct {
	SaleOrderNumbers []string `json:"saleOrderNumbers"`
}
