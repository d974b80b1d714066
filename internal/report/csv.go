package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// Delimiter separates fields in every CSV file the application writes.
const Delimiter = ';'

// ExportCSV writes the working table with the report header.
func ExportCSV(rows model.Table, path string) error {
	return WriteCSV(FromRows(rows), path)
}

// WriteCSV writes t as a semicolon separated UTF-8 file.
func WriteCSV(t Table, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // path comes from config
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	buf := bufio.NewWriter(f)
	if err := EncodeCSV(buf, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return buf.Flush()
}

// EncodeCSV writes t to w.
func EncodeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// ReadCSV loads a semicolon separated file whose first line is the header.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from config or the user
	if err != nil {
		return Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return DecodeCSV(f)
}

// DecodeCSV parses a semicolon separated table from r. Rows may have fewer
// fields than the header.
func DecodeCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	return Table{Columns: records[0], Rows: records[1:]}, nil
}
