package orderstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"dispatcher/infrastructure/ledger"
	"dispatcher/models"
)

// UpdateQty applies one inc/dec/set to the issued or packed quantity of a single line and
// persists the whole order.
//
// The result is clamped to [0, required]. The completion timestamp of the field is stamped
// the first time the quantity reaches the required amount and is never changed afterwards.
// A zero amount with inc or dec means a step of one.
func (s *Store) UpdateQty(ctx context.Context, saleOrderNumber, materialCode string, field ledger.Field, action ledger.Action, amount decimal.Decimal) (models.StoredOrder, error) {
	if field != ledger.FieldIssued && field != ledger.FieldPacked {
		return models.StoredOrder{}, fmt.Errorf("invalid quantity field: %q", field)
	}

	unlock := s.lock(saleOrderNumber)
	defer unlock()

	order, ok := s.get(ctx, saleOrderNumber)
	if !ok {
		return models.StoredOrder{}, ErrOrderNotFound
	}
	idx := order.Line(materialCode)
	if idx < 0 {
		return order, fmt.Errorf("%w: %s", ErrMaterialNotFound, materialCode)
	}

	line := &order.Materials[idx]
	before := *line
	current := ledger.Quantity(*line, field)
	next, err := applyAction(current, action, amount)
	if err != nil {
		return order, err
	}
	next = ledger.Clamp(next, line.RequiredQty)

	wasComplete := current.GreaterThanOrEqual(line.RequiredQty)
	nowComplete := next.GreaterThanOrEqual(line.RequiredQty)
	stampNow := !wasComplete && nowComplete

	switch field {
	case ledger.FieldIssued:
		line.IssuedQty = next
		if stampNow && line.IssuedAt == nil {
			at := s.Now().UTC()
			line.IssuedAt = &at
		}
	case ledger.FieldPacked:
		line.PackedQty = next
		if stampNow && line.PackedAt == nil {
			at := s.Now().UTC()
			line.PackedAt = &at
		}
	}

	if err := s.save(ctx, order); err != nil {
		return models.StoredOrder{}, err
	}
	if !current.Equal(next) {
		s.record(ctx, fmt.Sprintf("material.%s.%s", field, action), saleOrderNumber, before, *line)
	}
	return order, nil
}

func applyAction(current decimal.Decimal, action ledger.Action, amount decimal.Decimal) (decimal.Decimal, error) {
	switch action {
	case ledger.ActionInc:
		if amount.IsZero() {
			amount = ledger.DefaultStep
		}
		return current.Add(amount), nil
	case ledger.ActionDec:
		if amount.IsZero() {
			amount = ledger.DefaultStep
		}
		return current.Sub(amount), nil
	case ledger.ActionSet:
		return amount, nil
	default:
		return current, fmt.Errorf("invalid quantity action: %q", action)
	}
}
