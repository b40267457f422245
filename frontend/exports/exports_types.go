package exports

import (
	"time"

	"dispatcher/models"
)

var orderHeaders = []string{"Material Code", "Description", "Batch No", "Bin No", "Required", "Issued", "Packed", "Issued At", "Packed At"}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func orderRows(order models.StoredOrder) [][]string {
	rows := make([][]string, 0, len(order.Materials))
	for _, line := range order.Materials {
		rows = append(rows, []string{
			line.MaterialCode,
			line.Description,
			line.BatchNo,
			line.BinNo,
			line.RequiredQty.String(),
			line.IssuedQty.String(),
			line.PackedQty.String(),
			formatStamp(line.IssuedAt),
			formatStamp(line.PackedAt),
		})
	}
	return rows
}
