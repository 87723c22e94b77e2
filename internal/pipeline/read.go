package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"sursaud/internal"
	"sursaud/internal/util"
)

var ErrEmptyFile = errors.New("empty CSV file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable loads a CSV file into a Table.
func ReadTable(path string) (*internal.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	table, err := ParseTable(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ParseTable decodes CSV bytes. Extracts that are not valid UTF-8 are read as
// ISO-8859-1, and the delimiter (comma or semicolon) is taken from the header
// line. Short records are padded with nulls, long ones truncated to the header.
func ParseTable(blob []byte) (*internal.Table, error) {
	blob = bytes.TrimPrefix(blob, utf8BOM)
	if !utf8.Valid(blob) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(blob)
		if err != nil {
			return nil, fmt.Errorf("decode ISO-8859-1: %w", err)
		}
		blob = decoded
	}

	reader := csv.NewReader(bytes.NewReader(blob))
	reader.Comma = sniffDelimiter(blob)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	table := &internal.Table{Columns: make([]string, len(header))}
	for i, h := range header {
		table.Columns[i] = util.NormalizeHeader(h)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		row := make([]string, len(header))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func sniffDelimiter(blob []byte) rune {
	line := blob
	if i := bytes.IndexByte(blob, '\n'); i >= 0 {
		line = blob[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
