package scan

import (
	"github.com/shopspring/decimal"

	"dispatcher/infrastructure/ledger"
	"dispatcher/models"
)

type scanRequest struct {
	Code  string          `json:"code"`
	Stage string          `json:"stage"`
	Qty   decimal.Decimal `json:"qty"`
}

type editRequest struct {
	Action string          `json:"action"`
	Amount decimal.Decimal `json:"amount"`
}

// LineResult is returned after a successful scan or edit so the screen can redraw.
type LineResult struct {
	SaleOrderNumber string              `json:"saleOrderNumber"`
	Line            models.MaterialLine `json:"line"`
	Phase           ledger.Phase        `json:"phase"`
	Progress        ledger.Progress     `json:"progress"`
}
