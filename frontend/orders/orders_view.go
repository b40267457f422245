package orders

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"dispatcher/frontend/shared/html"
	"dispatcher/infrastructure/ledger"
)

func OrderProgressPage(d Detail) templ.Component {
	return html.Layout("Order "+d.SaleOrderNumber, orderProgressBody(d))
}

func orderProgressBody(d Detail) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		var b []byte
		b = fmt.Appendf(b, `<main class="container" data-sale-order="%s">`, esc(d.SaleOrderNumber))
		b = fmt.Appendf(b, `<h1>%s</h1><p class="phase phase-%s">%s</p>`, esc(d.SaleOrderNumber), esc(string(d.Phase)), esc(phaseLabel(d.Phase)))
		if d.DownloadedAgo != "" {
			b = fmt.Appendf(b, `<p class="muted">Downloaded %s</p>`, esc(d.DownloadedAgo))
		}
		b = fmt.Appendf(b, `<p>Issued %d/%d lines (%d%%), packed %d/%d lines (%d%%)</p>`,
			d.Progress.IssuedLines, d.Progress.TotalLines, d.Progress.IssuedPercent,
			d.Progress.PackedLines, d.Progress.TotalLines, d.Progress.PackedPercent)
		b = append(b, `<table class="table"><thead><tr><th>Material</th><th>Description</th><th>Batch</th><th>Bin</th><th>Required</th><th>Issued</th><th>Packed</th></tr></thead><tbody>`...)
		for _, line := range d.Materials {
			rowClass := ""
			switch {
			case ledger.IsLinePacked(line):
				rowClass = "line-packed"
			case ledger.IsLineIssued(line):
				rowClass = "line-issued"
			}
			b = fmt.Appendf(b, `<tr class="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				rowClass, esc(line.MaterialCode), esc(line.Description), esc(line.BatchNo), esc(line.BinNo),
				line.RequiredQty.String(), line.IssuedQty.String(), line.PackedQty.String())
		}
		b = append(b, `</tbody></table>`...)
		if d.Phase.ReadyForUpload() {
			b = fmt.Appendf(b, `<form method="post" action="/orders/%s/upload"><button class="btn">Upload</button></form>`, esc(url.PathEscape(d.SaleOrderNumber)))
		}
		b = append(b, `</main>`...)
		_, err := w.Write(b)
		return err
	})
}

func phaseLabel(p ledger.Phase) string {
	switch p {
	case ledger.PhaseIssuing:
		return "Issuing"
	case ledger.PhasePacking:
		return "Packing"
	case ledger.PhasePacked:
		return "Ready to upload"
	default:
		return "Not downloaded"
	}
}
