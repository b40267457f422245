// Package ledger holds the quantity rules for material lines: clamping, normalisation,
// completion predicates and phase derivation. Everything here is pure.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dispatcher/models"
)

// Field selects which progressing quantity a mutation targets.
type Field string

const (
	FieldIssued Field = "issued"
	FieldPacked Field = "packed"
)

// Action selects how a mutation combines the amount with the current quantity.
type Action string

const (
	ActionInc Action = "inc"
	ActionDec Action = "dec"
	ActionSet Action = "set"
)

// DefaultStep is applied by inc/dec when no amount is given.
var DefaultStep = decimal.NewFromInt(1)

func ParseField(v string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(v))) {
	case FieldIssued, "issue":
		return FieldIssued, nil
	case FieldPacked, "pack":
		return FieldPacked, nil
	default:
		return "", fmt.Errorf("invalid quantity field: %q", v)
	}
}

func ParseAction(v string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(v))); a {
	case ActionInc, ActionDec, ActionSet:
		return a, nil
	default:
		return "", fmt.Errorf("invalid quantity action: %q", v)
	}
}

// Clamp constrains v into [0, max]. A negative max clamps to zero.
func Clamp(v, max decimal.Decimal) decimal.Decimal {
	if max.IsNegative() {
		max = decimal.Zero
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

// NormalizeLine applies the storage invariants to a single line.
func NormalizeLine(line models.MaterialLine) models.MaterialLine {
	if line.RequiredQty.IsNegative() {
		line.RequiredQty = decimal.Zero
	}
	line.IssuedQty = Clamp(line.IssuedQty, line.RequiredQty)
	line.PackedQty = Clamp(line.PackedQty, line.RequiredQty)
	line.IssuedAt = utcCopy(line.IssuedAt)
	line.PackedAt = utcCopy(line.PackedAt)
	return line
}

// NormalizeLines returns normalised copies; the input slice is not modified.
func NormalizeLines(lines []models.MaterialLine) []models.MaterialLine {
	out := make([]models.MaterialLine, len(lines))
	for i, line := range lines {
		out[i] = NormalizeLine(line)
	}
	return out
}

func utcCopy(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

// Quantity returns the current value of field on line.
func Quantity(line models.MaterialLine, field Field) decimal.Decimal {
	if field == FieldPacked {
		return line.PackedQty
	}
	return line.IssuedQty
}

// Remaining is how much of field is still outstanding on line.
func Remaining(line models.MaterialLine, field Field) decimal.Decimal {
	return Clamp(line.RequiredQty.Sub(Quantity(line, field)), line.RequiredQty)
}

func IsLineIssued(line models.MaterialLine) bool {
	return line.IssuedQty.GreaterThanOrEqual(line.RequiredQty)
}

func IsLinePacked(line models.MaterialLine) bool {
	return line.PackedQty.GreaterThanOrEqual(line.RequiredQty)
}

// IsLineComplete reports completion of the given field on line.
func IsLineComplete(line models.MaterialLine, field Field) bool {
	if field == FieldPacked {
		return IsLinePacked(line)
	}
	return IsLineIssued(line)
}

// IsIssuedComplete is true when every line is fully issued. An empty list counts as complete.
func IsIssuedComplete(lines []models.MaterialLine) bool {
	for _, line := range lines {
		if !IsLineIssued(line) {
			return false
		}
	}
	return true
}

// IsPackedComplete is true when every line is fully packed. An empty list counts as complete.
func IsPackedComplete(lines []models.MaterialLine) bool {
	for _, line := range lines {
		if !IsLinePacked(line) {
			return false
		}
	}
	return true
}
