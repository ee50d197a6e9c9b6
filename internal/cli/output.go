// Package cli provides CLI output utilities for kaiwa.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kaiwa/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteRuns writes the run list to w in the given format.
func WriteRuns(w io.Writer, runs []*models.Run, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"runs": runs})
	default:
		writeRunsText(w, runs)
		return nil
	}
}

func writeRunsText(w io.Writer, runs []*models.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  archive:     %s\n", run.ArchiveName)
		fmt.Fprintf(w, "  messages:    %d\n", run.MessageCount)
		fmt.Fprintf(w, "  attachments: %d\n", run.AttachmentCount)
	}
}
