package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"google.golang.org/api/iterator"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const nullCell = "NULL"

// Summary reports what WriteRows wrote.
type Summary struct {
	Written   int
	Truncated bool
}

// WriteRows drains rows into w in format f. maxRows <= 0 means no limit.
// The iterator is read until maxRows+1 rows to detect truncation, not beyond.
func WriteRows(w io.Writer, f Format, rows bqrun.RowIterator, maxRows int) (Summary, error) {
	if rows == nil {
		return Summary{}, nil
	}

	collected, truncated, err := collect(rows, maxRows)
	if err != nil {
		return Summary{}, err
	}
	columns := rows.Columns()
	summary := Summary{Written: len(collected), Truncated: truncated}

	switch Resolve(f, w) {
	case FormatJSON:
		err = writeJSON(w, columns, collected)
	default:
		err = writeTable(w, columns, collected, truncated, rows.TotalRows())
	}
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func collect(rows bqrun.RowIterator, maxRows int) ([][]any, bool, error) {
	var out [][]any
	for {
		row, err := rows.Next()
		if errors.Is(err, iterator.Done) {
			return out, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading rows: %w", err)
		}
		if maxRows > 0 && len(out) == maxRows {
			return out, true, nil
		}
		out = append(out, row)
	}
}

func writeJSON(w io.Writer, columns []string, rows [][]any) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		obj := make(map[string]any, len(row))
		for i, v := range row {
			obj[columnName(columns, i)] = v
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
	}
	return nil
}

func writeTable(w io.Writer, columns []string, rows [][]any, truncated bool, total uint64) error {
	if len(columns) == 0 && len(rows) == 0 {
		return nil
	}

	headers := make([]string, 0, len(columns))
	for i := range columns {
		headers = append(headers, columnName(columns, i))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		t.Row(cells...)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	if truncated {
		footer := fmt.Sprintf("showing %d of %d rows", len(rows), total)
		if _, err := fmt.Fprintln(w, footerStyle.Render(footer)); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(v any) string {
	if v == nil {
		return nullCell
	}
	return fmt.Sprint(v)
}

func columnName(columns []string, i int) string {
	if i < len(columns) && columns[i] != "" {
		return columns[i]
	}
	return fmt.Sprintf("f%d_", i)
}
