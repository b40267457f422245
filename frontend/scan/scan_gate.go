package scan

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"dispatcher/infrastructure/ledger"
	"dispatcher/models"
)

// RejectError is a scan or edit the operator is not allowed to make. Nothing is written.
type RejectError struct {
	Status  int
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

func reject(status int, format string, args ...any) *RejectError {
	return &RejectError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ResolveLine finds the line for a scanned or typed code. An exact match wins; otherwise a
// single case-insensitive match is accepted.
func ResolveLine(order models.StoredOrder, code string) (int, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return -1, reject(http.StatusBadRequest, "material code is required")
	}
	if idx := order.Line(code); idx >= 0 {
		return idx, nil
	}
	found := -1
	for i, line := range order.Materials {
		if !strings.EqualFold(line.MaterialCode, code) {
			continue
		}
		if found >= 0 {
			return -1, reject(http.StatusConflict, "code %s matches more than one material, scan the exact code", code)
		}
		found = i
	}
	if found < 0 {
		return -1, reject(http.StatusNotFound, "material %s is not part of order %s", code, order.SaleOrderNumber)
	}
	return found, nil
}

// CheckScan validates adding qty to the stage of one line.
func CheckScan(order models.StoredOrder, idx int, stage ledger.Field, qty decimal.Decimal) error {
	line := order.Materials[idx]
	if !qty.IsPositive() {
		return reject(http.StatusBadRequest, "quantity must be greater than 0")
	}
	if stage == ledger.FieldPacked && !ledger.IsIssuedComplete(order.Materials) {
		return reject(http.StatusConflict, "finish issuing every material before packing")
	}
	if ledger.IsLineComplete(line, stage) {
		return reject(http.StatusConflict, "%s is already fully %s", line.MaterialCode, stage)
	}
	if remaining := ledger.Remaining(line, stage); qty.GreaterThan(remaining) {
		return reject(http.StatusConflict, "quantity %s exceeds the remaining %s for %s", qty, remaining, line.MaterialCode)
	}
	return nil
}

// CheckManual validates a typed quantity edit.
func CheckManual(order models.StoredOrder, idx int, field ledger.Field, action ledger.Action, amount decimal.Decimal) error {
	line := order.Materials[idx]
	if field == ledger.FieldPacked && action != ledger.ActionDec && !ledger.IsIssuedComplete(order.Materials) {
		return reject(http.StatusConflict, "finish issuing every material before packing")
	}
	switch action {
	case ledger.ActionSet:
		if amount.IsNegative() || amount.GreaterThan(line.RequiredQty) {
			return reject(http.StatusBadRequest, "quantity must be between 0 and %s", line.RequiredQty)
		}
	case ledger.ActionInc, ledger.ActionDec:
		if amount.IsNegative() {
			return reject(http.StatusBadRequest, "amount must not be negative")
		}
	}
	return nil
}
