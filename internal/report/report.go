// Package report writes indicator output aligned on candle timestamps.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/amirphl/simple-ta/internal/series"
)

// Table is a set of indicator columns sharing one timestamp index.
type Table struct {
	Timestamps []time.Time
	Columns    []series.Result
	// Signals maps the %K column of each stochastic frame to the signal
	// of its last two rows.
	Signals map[string]string
}

// NewTable flattens frames into one table. Every column must have one value
// per timestamp and column names must be unique.
func NewTable(timestamps []time.Time, frames ...series.Frame) (Table, error) {
	t := Table{Timestamps: timestamps}
	seen := make(map[string]bool)
	for _, f := range frames {
		for _, col := range f.Columns {
			if len(col.Values) != len(timestamps) {
				return Table{}, fmt.Errorf("column %s has %d values, expected %d", col.Name, len(col.Values), len(timestamps))
			}
			if seen[col.Name] {
				return Table{}, fmt.Errorf("duplicate column %s", col.Name)
			}
			seen[col.Name] = true
			t.Columns = append(t.Columns, col)
		}
		if k, d, ok := indicator.KD(f); ok {
			if sig := indicator.StochSignal(k.Values, d.Values); sig != "" {
				if t.Signals == nil {
					t.Signals = make(map[string]string)
				}
				t.Signals[k.Name] = sig
			}
		}
	}
	return t, nil
}

// Write renders the table in the given format ("csv" or "json").
func Write(w io.Writer, format string, t Table) error {
	switch format {
	case "csv":
		return WriteCSV(w, t)
	case "json":
		return WriteJSON(w, t)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes a header row and one row per timestamp. Missing values are
// empty cells.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "timestamp")
	for _, col := range t.Columns {
		header = append(header, col.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	row := make([]string, len(header))
	for i, ts := range t.Timestamps {
		row[0] = ts.UTC().Format(time.RFC3339)
		for j, col := range t.Columns {
			row[j+1] = formatValue(col.Values[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

type jsonColumn struct {
	Name     string          `json:"name"`
	Category series.Category `json:"category"`
}

type jsonRow struct {
	Timestamp time.Time  `json:"timestamp"`
	Values    []*float64 `json:"values"`
}

type jsonTable struct {
	Columns []jsonColumn `json:"columns"`
	Rows    []jsonRow    `json:"rows"`
}

// WriteJSON writes the column list and one row per timestamp with missing
// values as null.
func WriteJSON(w io.Writer, t Table) error {
	out := jsonTable{
		Columns: make([]jsonColumn, len(t.Columns)),
		Rows:    make([]jsonRow, len(t.Timestamps)),
	}
	for j, col := range t.Columns {
		out.Columns[j] = jsonColumn{Name: col.Name, Category: col.Category}
	}
	for i, ts := range t.Timestamps {
		values := make([]*float64, len(t.Columns))
		for j, col := range t.Columns {
			if v := col.Values[i]; !math.IsNaN(v) {
				values[j] = &v
			}
		}
		out.Rows[i] = jsonRow{Timestamp: ts.UTC(), Values: values}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}

// SummaryLine is the latest value of one column.
type SummaryLine struct {
	Column   string
	Category series.Category
	Last     float64
	Missing  int
	Zone     string
	Signal   string
}

// Summarize returns the last value, missing count, zone and stochastic
// signal of every column.
func Summarize(t Table) []SummaryLine {
	lines := make([]SummaryLine, len(t.Columns))
	for i, col := range t.Columns {
		missing := 0
		for _, v := range col.Values {
			if math.IsNaN(v) {
				missing++
			}
		}
		last := col.Last()
		lines[i] = SummaryLine{
			Column:   col.Name,
			Category: col.Category,
			Last:     last,
			Missing:  missing,
			Zone:     indicator.Zone(col.Name, last),
			Signal:   t.Signals[col.Name],
		}
	}
	return lines
}
