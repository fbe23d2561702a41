package grid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeCSV writes a cell grid as CSV, prefixed with a UTF-8 BOM so
// spreadsheet applications pick the right encoding when opening the
// file directly.
func EncodeCSV(w io.Writer, cells [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(cells); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// DecodeCSV parses uploaded CSV bytes into a cell grid. Real-world
// exports arrive in several encodings, so the bytes are normalized to
// UTF-8 first. Short and over-long rows are padded or truncated to the
// header width instead of failing the whole file.
func DecodeCSV(data []byte) ([][]string, error) {
	decoded, err := decodeToUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("decode csv encoding: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: no header row")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	width := len(header)

	cells := [][]string{header}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		} else if len(row) > width {
			row = row[:width]
		}
		cells = append(cells, row)
	}
	return cells, nil
}

// decodeToUTF8 strips BOMs and converts UTF-16 and Latin-1 input to
// UTF-8. A UTF-16 BOM selects the endianness; bytes that are already
// valid UTF-8 pass through untouched; anything else is read as
// ISO 8859-1, which cannot fail.
func decodeToUTF8(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return dec.Bytes(data)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(data)
}
