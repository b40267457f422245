package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"dispatcher/models"
)

// ListAttachments returns the files the ERP holds against a sales order.
func (c *Client) ListAttachments(ctx context.Context, saleOrderNumber string) ([]models.Attachment, error) {
	body, err := c.do(ctx, http.MethodGet, "/sales-orders/"+url.PathEscape(saleOrderNumber)+"/attachments", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list attachments for %s: %w", saleOrderNumber, err)
	}
	out, err := DecodeAttachments(body)
	if err != nil {
		return nil, fmt.Errorf("decode attachments for %s: %w", saleOrderNumber, err)
	}
	return out, nil
}

// DecodeAttachments accepts either a bare array of attachments or an object carrying an
// "attachments" array. Every other shape is ErrUnexpectedShape.
func DecodeAttachments(body []byte) ([]models.Attachment, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, shapeErr(err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["attachments"].([]any)
		if !ok {
			return nil, ErrUnexpectedShape
		}
		items = list
	default:
		return nil, ErrUnexpectedShape
	}

	rows, err := toRows(items)
	if err != nil {
		return nil, err
	}
	out := make([]models.Attachment, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Attachment{
			ID:         r.str("id", "ID", "Attachment_ID"),
			FileName:   r.str("fileName", "File_Name", "name"),
			URL:        r.str("url", "URL"),
			MIMEType:   r.str("mimeType", "Mime_Type", "contentType"),
			UploadedAt: r.str("uploadedAt", "Uploaded_At"),
		})
	}
	return out, nil
}
