package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// WriteSummary prints the summary lines as an aligned table.
func WriteSummary(w io.Writer, lines []SummaryLine) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tCATEGORY\tLAST\tMISSING\tZONE\tSIGNAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			l.Column, l.Category, lastValue(l.Last), l.Missing, orDash(l.Zone), orDash(l.Signal))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func lastValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}
