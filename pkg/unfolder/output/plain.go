package output

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"
)

// PlainFormatter writes unstyled, tab-aligned text for scripts and pipes.
// Every move is listed.
type PlainFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if r.Kind == KindHistory {
		fmt.Fprintln(tw, "TIME\tOPERATION\tFILES\tMISSING\tSTATUS\tROOT")
		for _, h := range r.History {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
				h.Time.Format(time.RFC3339), h.Operation, h.Files, h.Missing, plainStatus(h), h.Root)
		}
		return tw.Flush()
	}

	fmt.Fprintf(tw, "%s\t%s\n", r.Kind, r.Root)
	fmt.Fprintf(tw, "manifest\t%s\n", r.ManifestPath)
	fmt.Fprintf(tw, "manifest_kept\t%s\n", strconv.FormatBool(r.ManifestKept))
	fmt.Fprintf(tw, "absolute\t%s\n", strconv.FormatBool(r.Absolute))
	if r.Strategy != "" {
		fmt.Fprintf(tw, "strategy\t%s\n", r.Strategy)
	}
	if r.Discarded != "" {
		fmt.Fprintf(tw, "discarded\t%s\n", r.Discarded)
	}

	for _, m := range r.Moves {
		fmt.Fprintf(tw, "move\t%s\t%s\n", m.From, m.To)
	}
	for _, p := range r.Pending {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Reason, p.Flat, p.Original)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(tw, "warning\t%s\n", warning)
	}

	return tw.Flush()
}

func plainStatus(h HistoryRow) string {
	switch {
	case h.Error != "":
		return "failed"
	case h.Complete:
		return "complete"
	default:
		return "incomplete"
	}
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
