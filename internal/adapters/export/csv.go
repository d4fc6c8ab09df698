// Package export renders merged tables for download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/combatlog/internal/domain/model"
)

// TimeHeader is the first CSV column.
const TimeHeader = "time"

// ErrColumnMismatch is returned when headers and table columns disagree.
var ErrColumnMismatch = errors.New("header count does not match table columns")

// FormatTimestamp renders ms as UTC "Y/M/D H:M:S" without zero padding,
// e.g. 2021/3/7 4:5:9.
func FormatTimestamp(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	return fmt.Sprintf("%d/%d/%d %d:%d:%d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// FormatAmount renders a damage amount in its shortest decimal form.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes "time,<headers...>" followed by one line per row. Empty
// cells are written as empty fields.
func WriteCSV(w io.Writer, headers []string, table model.MergedTable) error {
	if len(headers) != table.Columns {
		return fmt.Errorf("%w: %d headers, %d columns", ErrColumnMismatch, len(headers), table.Columns)
	}

	cw := csv.NewWriter(w)
	record := make([]string, 0, table.Columns+1)
	record = append(record, TimeHeader)
	record = append(record, headers...)
	if err := cw.Write(record); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record = record[:0]
		record = append(record, FormatTimestamp(row.Timestamp))
		for _, c := range row.Cells {
			if c.Valid {
				record = append(record, FormatAmount(c.Value))
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
