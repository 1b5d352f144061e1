package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Data is a generic column->value map used for primary keys and row
// pre-images. The monitored tables are defined by the schema registry at
// runtime, so values are dynamically typed.
//
// Data carries the reinsert contract for undo: when a deleted row is put
// back, identity columns must be dropped via Without so the store
// regenerates them. The restored row may therefore receive a new surrogate
// identity.
//
// Serialization is deterministic: keys are emitted in sorted order and
// integers survive a round trip as int64 (decoding uses json.Number, never
// bare float64).
type Data map[string]any

// SortedColumns returns the column names in sorted order. All SQL built
// from a Data value iterates in this order so generated statements are
// deterministic.
func (d Data) SortedColumns() []string {
	cols := make([]string, 0, len(d))
	for c := range d {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Without returns a copy of d with the named columns removed. Used to drop
// identity/auto-generated key columns before reinserting a deleted row.
func (d Data) Without(columns ...string) Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, c := range columns {
		delete(out, c)
	}
	return out
}

// Has reports whether the column is present.
func (d Data) Has(column string) bool {
	_, ok := d[column]
	return ok
}

// MarshalJSON emits the map with sorted keys for deterministic storage.
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.SortedColumns() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(d[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for column %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes with json.Number so integer column values come back
// as int64 instead of losing precision through float64.
func (d *Data) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(Data, len(raw))
	for k, v := range raw {
		conv, err := convertValue(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", k, err)
		}
		out[k] = conv
	}
	*d = out
	return nil
}

// convertValue normalizes decoded JSON values: json.Number becomes int64
// when integral, float64 otherwise. Nested containers are converted
// recursively so a Data round trip is stable.
func convertValue(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return f, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			conv, err := convertValue(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			conv, err := convertValue(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = conv
		}
		return out, nil
	default:
		return v, nil
	}
}
