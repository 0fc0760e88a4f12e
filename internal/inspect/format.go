// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable prints the report as an aligned table followed by a summary line.
func WriteTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIES\tFILES\tDESCRIPTION\tRULE")
	for _, s := range r.Series {
		rule := "-"
		if s.Label != "" {
			rule = s.Label
			if len(s.Matches) > 1 {
				rule += fmt.Sprintf(" (+%d more)", len(s.Matches)-1)
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Number, s.Files, s.Description, rule)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d series, %d files, %d skipped\n", len(r.Series), r.Files, r.Skipped)
	return err
}

// WriteJSON prints the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
