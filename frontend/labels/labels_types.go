package labels

import "time"

// MaterialLabelData is what one material label prints.
type MaterialLabelData struct {
	SaleOrderNumber string
	MaterialCode    string
	Description     string
	BatchNo         string
	BinNo           string
	CertNo          string
	RequiredQty     string
	PrintedAt       time.Time
}
