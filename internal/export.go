package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sheetNames = map[string]string{
	CollectionRegistrations: "Registrations",
	CollectionQuestions:     "Questions",
}

type Exporter struct {
	store Store
}

func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// Export renders a whole collection as an xlsx workbook. The header row is
// the union of record keys in the order they were first seen.
func (e *Exporter) Export(ctx context.Context, collection string) (filename string, data []byte, err error) {
	sheet, ok := sheetNames[collection]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	docs, err := e.store.ReadAll(ctx, collection)
	if err != nil {
		return "", nil, err
	}

	var columns []string
	index := map[string]int{}
	rows := make([]map[string]any, 0, len(docs))
	for i, d := range docs {
		keys, values, err := decodeOrdered(d)
		if err != nil {
			return "", nil, fmt.Errorf("decode %s record %d: %w", collection, i, err)
		}
		for _, k := range keys {
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		rows = append(rows, values)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", nil, err
	}

	if len(rows) > 0 {
		for c, name := range columns {
			if err := setCell(f, sheet, c+1, 1, name); err != nil {
				return "", nil, err
			}
		}
	}
	for r, values := range rows {
		for k, v := range values {
			if err := setCell(f, sheet, index[k]+1, r+2, v); err != nil {
				return "", nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("write workbook: %w", err)
	}
	return collection + ".xlsx", buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}

// decodeOrdered reads one JSON object keeping key order. Scalars map to
// cell values; nested values are kept as compact JSON text.
func decodeOrdered(doc json.RawMessage) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("record is not an object")
	}

	var keys []string
	values := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		v, err := cellValue(raw)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = v
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return keys, values, nil
}

func cellValue(raw json.RawMessage) (any, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return buf.String(), nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return v, nil
}
