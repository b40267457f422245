package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MaterialLine is one row of a sales order's material list.
type MaterialLine struct {
	MaterialCode string          `json:"materialCode"`
	Description  string          `json:"description"`
	BatchNo      string          `json:"batchNo"`
	SODonorBatch string          `json:"soDonorBatch"`
	CertNo       string          `json:"certNo"`
	BinNo        string          `json:"binNo"`
	ADF          string          `json:"adf"`
	RequiredQty  decimal.Decimal `json:"requiredQty"`
	IssuedQty    decimal.Decimal `json:"issuedQty"`
	PackedQty    decimal.Decimal `json:"packedQty"`
	IssuedAt     *time.Time      `json:"issuedAt,omitempty"`
	PackedAt     *time.Time      `json:"packedAt,omitempty"`
}

// StoredOrder is the locally persisted copy of a sales order.
type StoredOrder struct {
	SaleOrderNumber string         `json:"saleOrderNumber"`
	Materials       []MaterialLine `json:"materials"`
}

// Line returns the index of the line with the exact material code, or -1.
func (o StoredOrder) Line(materialCode string) int {
	for i := range o.Materials {
		if o.Materials[i].MaterialCode == materialCode {
			return i
		}
	}
	return -1
}

// OrdersSummaryItem is the server-provided order header used before any local detail exists.
type OrdersSummaryItem struct {
	SaleOrderNumber string `json:"saleOrderNumber"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	TotalMaterials  int    `json:"totalMaterials"`
	TotalItems      int    `json:"totalItems"`
}

// Attachment is a file the ERP holds against a sales order.
type Attachment struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	URL        string `json:"url"`
	MIMEType   string `json:"mimeType"`
	UploadedAt string `json:"uploadedAt"`
}

// VehicleEntryDraft is the in-progress gate entry form.
type VehicleEntryDraft struct {
	VehicleNumber   string    `json:"vehicleNumber"`
	DriverName      string    `json:"driverName"`
	DriverPhone     string    `json:"driverPhone"`
	Transporter     string    `json:"transporter"`
	Purpose         string    `json:"purpose"`
	SaleOrderNumber string    `json:"saleOrderNumber"`
	Remarks         string    `json:"remarks"`
	SavedAt         time.Time `json:"savedAt"`
}

// KVEntry backs the device key-value store.
type KVEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key       string    `bun:"entry_key,pk"`
	Value     string    `bun:"entry_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for order operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	Actor      string    `bun:"actor,notnull" json:"actor"`
	Action     string    `bun:"action,notnull" json:"action"`
	EntityType string    `bun:"entity_type,notnull" json:"entityType"`
	EntityID   string    `bun:"entity_id,notnull" json:"entityId"`
	BeforeJSON string    `bun:"before_json" json:"before,omitempty"`
	AfterJSON  string    `bun:"after_json" json:"after,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
