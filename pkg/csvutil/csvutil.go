package csvutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// Column maps a row key to its localized header.
type Column struct {
	Key    string
	Header string
}

// Render writes rows as CSV in column order. Values render through
// formatValue; missing keys become empty cells.
func Render(rows []map[string]any, columns []Column) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatValue(row[col.Key])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	case *float64:
		if v == nil {
			return ""
		}
		return formatValue(*v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ExportFilename builds "<prefix>_<local timestamp>.csv" with dashes in the
// timestamp replaced by underscores.
func ExportFilename(prefix string, now time.Time) string {
	timestamp := strings.ReplaceAll(now.Format("2006-01-02T15:04:05"), "-", "_")
	return fmt.Sprintf("%s_%s.csv", prefix, timestamp)
}

// SignedMinutes renders a minute difference with an explicit plus on
// positive values.
func SignedMinutes(minutes *int) string {
	if minutes == nil {
		return ""
	}
	if *minutes > 0 {
		return fmt.Sprintf("+%d", *minutes)
	}
	return fmt.Sprintf("%d", *minutes)
}
