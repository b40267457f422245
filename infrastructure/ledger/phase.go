package ledger

import (
	"github.com/shopspring/decimal"

	"dispatcher/models"
)

// Phase is derived from the material list on every load and never persisted.
type Phase string

const (
	PhaseNotDownloaded Phase = "not_downloaded"
	PhaseIssuing       Phase = "issuing"
	PhasePacking       Phase = "packing"
	PhasePacked        Phase = "packed"
)

// DerivePhase returns issuing until every line is issued, then packing until every line is packed.
func DerivePhase(lines []models.MaterialLine) Phase {
	if !IsIssuedComplete(lines) {
		return PhaseIssuing
	}
	if !IsPackedComplete(lines) {
		return PhasePacking
	}
	return PhasePacked
}

// PackingUnlocked reports whether packed quantities may be recorded.
func (p Phase) PackingUnlocked() bool {
	return p == PhasePacking || p == PhasePacked
}

// ReadyForUpload reports whether the order may be uploaded and removed.
func (p Phase) ReadyForUpload() bool {
	return p == PhasePacked
}

// Progress is the per-order roll-up screens display.
type Progress struct {
	Phase         Phase           `json:"phase"`
	TotalLines    int             `json:"totalLines"`
	IssuedLines   int             `json:"issuedLines"`
	PackedLines   int             `json:"packedLines"`
	RequiredQty   decimal.Decimal `json:"requiredQty"`
	IssuedQty     decimal.Decimal `json:"issuedQty"`
	PackedQty     decimal.Decimal `json:"packedQty"`
	IssuedPercent int             `json:"issuedPercent"`
	PackedPercent int             `json:"packedPercent"`
}

func Summarize(lines []models.MaterialLine) Progress {
	p := Progress{Phase: DerivePhase(lines), TotalLines: len(lines)}
	for _, line := range lines {
		if IsLineIssued(line) {
			p.IssuedLines++
		}
		if IsLinePacked(line) {
			p.PackedLines++
		}
		p.RequiredQty = p.RequiredQty.Add(line.RequiredQty)
		p.IssuedQty = p.IssuedQty.Add(line.IssuedQty)
		p.PackedQty = p.PackedQty.Add(line.PackedQty)
	}
	p.IssuedPercent = percent(p.IssuedQty, p.RequiredQty)
	p.PackedPercent = percent(p.PackedQty, p.RequiredQty)
	return p
}

func percent(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 100
	}
	return int(part.Mul(decimal.NewFromInt(100)).Div(whole).IntPart())
}
