package listing

import (
	"bufio"
	"encoding/csv"
	"io"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// Column is one CSV column: a header and the cell value for a record.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// WriteCSV writes a header row then one row per record, flushing periodically
// so large exports stream instead of buffering whole.
func WriteCSV[T any](w io.Writer, columns []Column[T], items []T) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true

	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = col.Header
	}
	if err := writer.Write(row); err != nil {
		return err
	}
	for n, item := range items {
		for i, col := range columns {
			row[i] = col.Value(item)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		if (n+1)%csvFlushEvery == 0 {
			writer.Flush()
			if err := writer.Error(); err != nil {
				return err
			}
			if err := buf.Flush(); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
