package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled summary for terminals. Individual
// moves are left to the verbose log; only pending entries are listed.
type PrettyFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Kind == KindHistory {
		w.WriteString(f.formatHistory(r))
		return nil
	}

	w.WriteString(HeaderBox.Render(f.formatHeader(r)))
	w.WriteString("\n")

	if len(r.Pending) > 0 {
		w.WriteString(WarningBox.Render(f.formatPending(r)))
		w.WriteString("\n")
	}

	for _, warning := range r.Warnings {
		w.WriteString(WarningStyle.Render(warning))
		w.WriteString("\n")
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Report) string {
	lines := []string{TitleStyle.Render(title(r))}
	lines = append(lines, field("Root:", r.Root))

	manifestValue := r.ManifestPath
	if !r.ManifestKept && r.Kind != KindAbandon {
		manifestValue += MutedStyle.Render(" (removed)")
	}
	lines = append(lines, field("Manifest:", manifestValue))

	mode := "relative paths"
	if r.Absolute {
		mode = "absolute paths"
	}
	if r.Strategy != "" {
		mode += ", " + r.Strategy + " names"
	}
	if r.Kind != KindAbandon {
		lines = append(lines, field("Mode:", mode))
	}

	lines = append(lines, strings.Join(f.summary(r), "  "))
	return strings.Join(lines, "\n")
}

func (f *PrettyFormatter) summary(r *Report) []string {
	var parts []string
	switch r.Kind {
	case KindUnfold:
		parts = append(parts,
			field("Files:", humanize.Comma(int64(len(r.Moves)))),
			field("Size:", SizeStyle.Render(humanize.IBytes(uint64(r.Bytes)))),
			field("Dirs removed:", humanize.Comma(int64(r.DirsRemoved))),
		)
	case KindRefold:
		parts = append(parts,
			field("Restored:", SuccessStyle.Render(humanize.Comma(int64(len(r.Moves))))),
			field("Size:", SizeStyle.Render(humanize.IBytes(uint64(r.Bytes)))),
			field("Dirs created:", humanize.Comma(int64(r.DirsCreated))),
		)
		if len(r.Pending) > 0 {
			parts = append(parts, field("Remaining:", WarningStyle.Render(humanize.Comma(int64(len(r.Pending))))))
		}
	case KindStatus:
		parts = append(parts,
			field("Entries:", humanize.Comma(int64(r.Total))),
			field("Ready:", SuccessStyle.Render(humanize.Comma(int64(len(r.Moves))))),
			field("Waiting:", WarningStyle.Render(humanize.Comma(int64(len(r.Pending))))),
		)
	case KindAbandon:
		parts = append(parts,
			field("Entries dropped:", humanize.Comma(int64(r.Total))),
			field("Manifest:", r.Discarded),
		)
	}
	if r.Elapsed > 0 {
		parts = append(parts, field("Took:", formatDuration(r.Elapsed)))
	}
	return parts
}

func (f *PrettyFormatter) formatPending(r *Report) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Waiting for refold:"))

	width := 0
	for _, p := range r.Pending {
		width = max(width, len(p.Reason))
	}
	for _, p := range r.Pending {
		sb.WriteString("\n")
		sb.WriteString(WarningStyle.Render(padRight(p.Reason, width)))
		sb.WriteString("  ")
		sb.WriteString(ValueStyle.Render(p.Flat))
		sb.WriteString(MutedStyle.Render(" -> "))
		sb.WriteString(ValueStyle.Render(p.Original))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatHistory(r *Report) string {
	if len(r.History) == 0 {
		return MutedStyle.Render("No runs recorded") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("WHEN", 16)),
		TableHeaderStyle.Render(padRight("OPERATION", 9)),
		TableHeaderStyle.Render(padLeft("FILES", 7)),
		TableHeaderStyle.Render(padRight("STATUS", 10)),
		TableHeaderStyle.Render("ROOT"),
	))

	for _, h := range r.History {
		sb.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
			MutedStyle.Render(padRight(humanize.Time(h.Time), 16)),
			ValueStyle.Render(padRight(h.Operation, 9)),
			SizeStyle.Render(padLeft(humanize.Comma(int64(h.Files)), 7)),
			historyStatus(h),
			ValueStyle.Render(h.Root),
		))
	}
	return sb.String()
}

func historyStatus(h HistoryRow) string {
	switch {
	case h.Error != "":
		return ErrorStyle.Render(padRight("failed", 10))
	case h.Complete:
		return SuccessStyle.Render(padRight("complete", 10))
	default:
		return WarningStyle.Render(padRight(fmt.Sprintf("%d left", h.Missing), 10))
	}
}

func title(r *Report) string {
	switch r.Kind {
	case KindUnfold:
		return "Unfolded"
	case KindRefold:
		if len(r.Pending) > 0 {
			return "Refold incomplete"
		}
		return "Refolded"
	case KindStatus:
		return "Refold pending"
	case KindAbandon:
		return "Manifest abandoned"
	default:
		return string(r.Kind)
	}
}

func field(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
