package main

import (
	"fmt"
	"io"

	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// printSummary prints a picture shortcode for a single record, or the data
// keys as a YAML list when several images were processed.
func printSummary(w io.Writer, records []domain.Record) {
	switch len(records) {
	case 0:
		return
	case 1:
		fmt.Fprintf(w, "Shortcode:\n\n{{< picture name=%q caption=\"\" >}}\n", records[0].Name)
	default:
		for _, record := range records {
			fmt.Fprintf(w, "-  %s\n", record.Name)
		}
	}
}
