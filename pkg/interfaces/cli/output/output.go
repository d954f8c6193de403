package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Table is a titled grid of rendered cells
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// ValidFormat reports whether format can be rendered
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// Write renders a result. JSON encodes data itself; text and csv render the
// table.
func Write(w io.Writer, format string, data any, table Table) error {
	switch format {
	case FormatText:
		return writeText(w, table)
	case FormatJSON:
		return writeJSON(w, data)
	case FormatCSV:
		return writeCSV(w, table)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, t Table) error {
	if t.Title != "" {
		fmt.Fprintf(w, "%s\n%s\n\n", t.Title, strings.Repeat("=", len(t.Title)))
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	dashes := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
