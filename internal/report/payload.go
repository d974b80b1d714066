package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PayloadKind tags the variant held by a Payload.
type PayloadKind int

// Payload variants.
const (
	PayloadList PayloadKind = iota
	PayloadTable
	PayloadMapping
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadTable:
		return "table"
	case PayloadMapping:
		return "mapping"
	default:
		return "list"
	}
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Value any
	Key   string
}

// Mapping is an ordered key/value collection.
type Mapping []Entry

// Keys returns the keys in order.
func (m Mapping) Keys() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Key
	}
	return out
}

// Numbers returns the values coerced to numbers in key order.
func (m Mapping) Numbers() []float64 {
	out := make([]float64, len(m))
	for i, e := range m {
		out[i] = toNumber(e.Value)
	}
	return out
}

// Payload is the data handed to the auto-chart resolver. Exactly one of the
// variants is set, as reported by Kind.
type Payload struct {
	table   Table
	mapping Mapping
	list    []any
	kind    PayloadKind
}

// TablePayload wraps a table.
func TablePayload(t Table) Payload {
	return Payload{kind: PayloadTable, table: t}
}

// MappingPayload wraps an ordered mapping.
func MappingPayload(m Mapping) Payload {
	return Payload{kind: PayloadMapping, mapping: m}
}

// ListPayload wraps an arbitrary list.
func ListPayload(items []any) Payload {
	return Payload{kind: PayloadList, list: items}
}

// Kind reports which variant is held.
func (p Payload) Kind() PayloadKind { return p.kind }

// Table returns the table variant.
func (p Payload) Table() Table { return p.table }

// Mapping returns the mapping variant.
func (p Payload) Mapping() Mapping { return p.mapping }

// List returns the list variant.
func (p Payload) List() []any { return p.list }

// ErrUnsupportedFile is returned by LoadPayload for unknown file extensions.
var ErrUnsupportedFile = errors.New("unsupported file type")

// LoadPayload reads a .csv file as a Table or a .json file as a Mapping
// (objects) or a List (anything else).
func LoadPayload(path string) (Payload, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err := ReadCSV(path)
		if err != nil {
			return Payload{}, err
		}
		return TablePayload(t), nil
	case ".json":
		raw, err := os.ReadFile(path) //nolint:gosec // user supplied path
		if err != nil {
			return Payload{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return DecodeJSONPayload(raw)
	default:
		return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

// DecodeJSONPayload decodes raw JSON, keeping object keys in document order.
func DecodeJSONPayload(raw []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		m, err := decodeOrderedObject(trimmed)
		if err != nil {
			return Payload{}, err
		}
		return MappingPayload(m), nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return Payload{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if items, ok := v.([]any); ok {
		return ListPayload(items), nil
	}
	return ListPayload([]any{v}), nil
}

func decodeOrderedObject(raw []byte) (Mapping, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	m := Mapping{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to parse JSON: unexpected key %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to parse JSON value for %q: %w", key, err)
		}
		m = append(m, Entry{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return m, nil
}
