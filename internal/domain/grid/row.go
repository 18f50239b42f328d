package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one record: an opaque mapping from field name to value.
// Rows have no identity beyond their position.
type Row map[string]Value

// Get returns the field value, or null when the field is missing
func (r Row) Get(key string) Value {
	if r == nil {
		return NullValue()
	}
	return r[key]
}

// RowFromMap converts a decoded JSON object into a Row
func RowFromMap(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = ValueOf(v)
	}
	return row
}

// RowsFromMaps converts a list of decoded JSON objects into rows
func RowsFromMaps(ms []map[string]any) []Row {
	rows := make([]Row, len(ms))
	for i, m := range ms {
		rows[i] = RowFromMap(m)
	}
	return rows
}

// RowsFromJSON decodes a JSON array of objects. Numbers keep full precision
// until they are converted to float64.
func RowsFromJSON(data []byte) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	rows := make([]Row, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode rows: element %d is %T, not an object", i, item)
		}
		rows = append(rows, RowFromMap(obj))
	}
	return rows, nil
}
