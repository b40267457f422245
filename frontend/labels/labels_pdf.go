package labels

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
)

func renderMaterialLabelsPDF(labels []MaterialLabelData) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels to render")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Material Labels", false)
	pdf.SetAutoPageBreak(false, 0)
	for i, label := range labels {
		if err := addMaterialLabelPage(pdf, label, i); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func orDash(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "-"
	}
	return v
}

func addMaterialLabelPage(pdf *gofpdf.Fpdf, label MaterialLabelData, pageIndex int) error {
	code := strings.TrimSpace(label.MaterialCode)
	if code == "" {
		return fmt.Errorf("label %d has no material code", pageIndex+1)
	}
	barcodePNG, err := renderCode128PNG(code, 1200, 220)
	if err != nil {
		return fmt.Errorf("encode barcode %s: %w", code, err)
	}
	description := strings.TrimSpace(label.Description)
	if description == "" {
		description = "N/A"
	}

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	margin := 12.0
	x0, y0 := margin, margin
	w0, h0 := pageW-2*margin, pageH-2*margin

	pdf.SetLineWidth(0.35)
	pdf.Rect(x0, y0, w0, h0, "")

	rowHeader := 24.0
	rowDescription := 26.0
	rowDetails := 34.0
	rowBarcode := h0 - rowHeader - rowDescription - rowDetails

	yDescription := y0 + rowHeader
	yDetails := yDescription + rowDescription
	yBarcode := yDetails + rowDetails
	colW := w0 / 4

	pdf.Line(x0, yDescription, x0+w0, yDescription)
	pdf.Line(x0, yDetails, x0+w0, yDetails)
	pdf.Line(x0, yBarcode, x0+w0, yBarcode)
	for i := 1; i < 4; i++ {
		pdf.Line(x0+colW*float64(i), yDetails, x0+colW*float64(i), yBarcode)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(x0+w0-80, y0+2)
	pdf.CellFormat(78, 5, "Printed "+label.PrintedAt.Format("02/01/2006 15:04"), "", 0, "R", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	header := "SO " + orDash(label.SaleOrderNumber)
	pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 34, 18, header, w0-8))
	pdf.SetXY(x0+4, y0+4)
	pdf.CellFormat(w0-8, rowHeader-8, header, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10.5)
	pdf.SetXY(x0+2.5, yDescription+2)
	pdf.CellFormat(w0-5, 5, "Description:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 16, 9.5, description, w0-8))
	pdf.SetXY(x0+4, yDescription+9)
	pdf.CellFormat(w0-8, 10, description, "", 0, "L", false, 0, "")

	details := []struct{ title, value string }{
		{"Batch No:", orDash(label.BatchNo)},
		{"Bin:", orDash(label.BinNo)},
		{"Cert No:", orDash(label.CertNo)},
		{"Required Qty:", orDash(label.RequiredQty)},
	}
	for i, d := range details {
		x := x0 + colW*float64(i)
		pdf.SetFont("Helvetica", "B", 10.5)
		pdf.SetXY(x+2.5, yDetails+2)
		pdf.CellFormat(colW-5, 5, d.title, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 26, 12, d.value, colW-8))
		pdf.SetXY(x+4, yDetails+10)
		pdf.CellFormat(colW-8, rowDetails-12, d.value, "", 0, "L", false, 0, "")
	}

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	imageName := "material-barcode-" + strconv.Itoa(pageIndex)
	pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
	barcodeW := w0 * 0.7
	barcodeH := rowBarcode - 22
	if barcodeH < 12 {
		barcodeH = 12
	}
	pdf.ImageOptions(imageName, x0+(w0-barcodeW)/2, yBarcode+6, barcodeW, barcodeH, false, opt, 0, "")

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(x0+4, yBarcode+rowBarcode-14)
	pdf.CellFormat(w0-8, 12, code, "", 0, "C", false, 0, "")
	return nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
