package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"dispatcher/models"
)

// FetchOrderSummaries lists the sales orders the ERP has open for picking.
func (c *Client) FetchOrderSummaries(ctx context.Context) ([]models.OrdersSummaryItem, error) {
	body, err := c.do(ctx, http.MethodGet, "/sales-orders/summary", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch order summaries: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("decode order summaries: %w", shapeErr(err))
	}
	out := make([]models.OrdersSummaryItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.OrdersSummaryItem{
			SaleOrderNumber: r.str("SO_Number"),
			Priority:        r.str("Priority"),
			Status:          r.str("Status"),
			TotalMaterials:  r.count("Total_Materials"),
			TotalItems:      r.count("Total_Items"),
		})
	}
	return out, nil
}

// FetchOrderDetails returns the material lines of one sales order as the ERP reports them.
func (c *Client) FetchOrderDetails(ctx context.Context, saleOrderNumber string) ([]models.MaterialLine, error) {
	body, err := c.do(ctx, http.MethodGet, "/sales-orders/"+url.PathEscape(saleOrderNumber)+"/materials", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", saleOrderNumber, err)
	}
	lines, err := DecodeMaterialRows(body)
	if err != nil {
		return nil, fmt.Errorf("decode order %s: %w", saleOrderNumber, err)
	}
	return lines, nil
}

// DecodeMaterialRows maps a JSON array of ERP material rows onto material lines, one line per
// row. Missing or null strings become "", missing or garbage numbers become 0 and numeric
// strings are parsed.
func DecodeMaterialRows(body []byte) ([]models.MaterialLine, error) {
	rows, err := decodeRows(body)
	if err != nil {
		return nil, shapeErr(err)
	}
	lines := make([]models.MaterialLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, models.MaterialLine{
			MaterialCode: r.str("Material_Code"),
			Description:  r.str("Description"),
			BatchNo:      r.str("Batch_No"),
			SODonorBatch: r.str("SO_Donor_Batch"),
			CertNo:       r.str("Cert_No"),
			BinNo:        r.str("Bin_No"),
			ADF:          r.str("ADF"),
			RequiredQty:  r.dec("Required_Qty"),
			IssuedQty:    r.dec("Issued_Qty"),
			PackedQty:    r.dec("Packed_Qty"),
		})
	}
	return lines, nil
}

type issuePackLine struct {
	MaterialCode string     `json:"Material_Code"`
	Description  string     `json:"Description"`
	BatchNo      string     `json:"Batch_No"`
	SODonorBatch string     `json:"SO_Donor_Batch"`
	CertNo       string     `json:"Cert_No"`
	BinNo        string     `json:"Bin_No"`
	ADF          string     `json:"ADF"`
	RequiredQty  float64    `json:"Required_Qty"`
	IssuedQty    float64    `json:"Issued_Qty"`
	PackedQty    float64    `json:"Packed_Qty"`
	IssuedAt     *time.Time `json:"Issued_At,omitempty"`
	PackedAt     *time.Time `json:"Packed_At,omitempty"`
}

type issuePackRequest struct {
	SONumber  string          `json:"SO_Number"`
	Materials []issuePackLine `json:"Materials"`
}

// UploadIssuePack posts the issued and packed quantities of a finished order. Any 2xx is success.
func (c *Client) UploadIssuePack(ctx context.Context, saleOrderNumber string, lines []models.MaterialLine, idempotencyKey string) error {
	req := issuePackRequest{SONumber: saleOrderNumber, Materials: make([]issuePackLine, 0, len(lines))}
	for _, l := range lines {
		req.Materials = append(req.Materials, issuePackLine{
			MaterialCode: l.MaterialCode,
			Description:  l.Description,
			BatchNo:      l.BatchNo,
			SODonorBatch: l.SODonorBatch,
			CertNo:       l.CertNo,
			BinNo:        l.BinNo,
			ADF:          l.ADF,
			RequiredQty:  l.RequiredQty.InexactFloat64(),
			IssuedQty:    l.IssuedQty.InexactFloat64(),
			PackedQty:    l.PackedQty.InexactFloat64(),
			IssuedAt:     l.IssuedAt,
			PackedAt:     l.PackedAt,
		})
	}
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	if _, err := c.do(ctx, http.MethodPost, "/sales-orders/"+url.PathEscape(saleOrderNumber)+"/issue-pack", req, header); err != nil {
		return fmt.Errorf("upload order %s: %w", saleOrderNumber, err)
	}
	return nil
}

func shapeErr(err error) error {
	if errors.Is(err, ErrUnexpectedShape) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
}
