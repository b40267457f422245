package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type row map[string]any

// decodeRows decodes a JSON array of objects, keeping numbers as json.Number. null and every
// other non-array body is ErrUnexpectedShape.
func decodeRows(body []byte) ([]row, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, ErrUnexpectedShape
	}
	return toRows(list)
}

func toRows(raw []any) ([]row, error) {
	rows := make([]row, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, ErrUnexpectedShape
		}
		rows = append(rows, row(obj))
	}
	return rows, nil
}

// str returns the first present key as text. Numbers and booleans are formatted, null is "".
func (r row) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			return strings.TrimSpace(v)
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// dec returns the first present key as a decimal. Unparseable values read as zero.
func (r row) dec(keys ...string) decimal.Decimal {
	for _, k := range keys {
		switch v := r[k].(type) {
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d
			}
			return decimal.Zero
		case float64:
			return decimal.NewFromFloat(v)
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
				return d
			}
			return decimal.Zero
		}
	}
	return decimal.Zero
}

func (r row) count(keys ...string) int {
	return int(r.dec(keys...).IntPart())
}
