package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

const utf8BOM = "\ufeff"

// Dataset is a header row plus rows keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter writes a Dataset as delimited text.
type CSVExporter struct {
	comma rune
	bom   bool
}

// CSVOption customises a CSVExporter.
type CSVOption func(*CSVExporter)

// WithDelimiter replaces the field separator. Zero keeps the comma.
func WithDelimiter(r rune) CSVOption {
	return func(e *CSVExporter) {
		if r != 0 {
			e.comma = r
		}
	}
}

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM(enabled bool) CSVOption {
	return func(e *CSVExporter) { e.bom = enabled }
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{comma: ','}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render encodes the dataset; cells missing from a row are left blank.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New("csv export needs at least one column")
	}

	var buf bytes.Buffer
	if e.bom {
		buf.WriteString(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.Comma = e.comma
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i, col := range data.Headers {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
