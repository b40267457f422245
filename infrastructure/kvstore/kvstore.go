// Package kvstore is the device-local key-value store the order cache lives in.
package kvstore

import "context"

// Store is a string key-value store. Get reports a missing key with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const (
	OrderKeyPrefix        = "order:"
	DownloadedAtKeyPrefix = "downloadedAt:"
	VehicleEntryDraftKey  = "draft:vehicleEntry"
)

// OrderKey is the key holding the JSON-encoded order for a sale order number.
func OrderKey(saleOrderNumber string) string {
	return OrderKeyPrefix + saleOrderNumber
}

// DownloadedAtKey is the key holding the last download time for a sale order number.
func DownloadedAtKey(saleOrderNumber string) string {
	return DownloadedAtKeyPrefix + saleOrderNumber
}
