package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/flarebyte/amqkill/internal/killer"
	"github.com/olekukonko/tablewriter"
)

type outputFormat string

const (
	outputText  outputFormat = "text"
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
)

func parseOutput(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case outputText, outputTable, outputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, table or json)", s)
	}
}

// summary is the one-line result printed after every run.
func summary(res killer.Result) string {
	switch {
	case res.DryRun && res.Matched > 0:
		return fmt.Sprintf("Would stop %d client connections", res.Matched)
	case !res.DryRun && res.Stopped > 0:
		return fmt.Sprintf("Stopped %d client connections", res.Stopped)
	default:
		return "No matching client connections"
	}
}

func render(w io.Writer, format outputFormat, res killer.Result) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputTable:
		if len(res.Actions) > 0 {
			table := tablewriter.NewWriter(w)
			table.SetHeader([]string{"TARGET", "OUTCOME", "REASON"})
			table.SetAutoWrapText(false)
			for _, a := range res.Actions {
				table.Append([]string{a.Target, a.Outcome.String(), a.Reason})
			}
			table.Render()
		}
	}
	_, err := fmt.Fprintln(w, summary(res))
	return err
}
