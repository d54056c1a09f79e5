package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"accentscan/internal/accent"
	"accentscan/internal/history"
	"accentscan/internal/logging"
	"accentscan/internal/pipeline"
	"accentscan/internal/textutil"
)

func titleCase(value string) string {
	return cases.Title(language.English).String(strings.TrimSpace(value))
}

// renderReport formats a finished analysis the way the web page lays it out.
func renderReport(report pipeline.Report, colorize bool) string {
	var b strings.Builder
	result := report.Accent

	heading := func(title string) {
		if colorize {
			title = ansiBold + title + ansiReset
		}
		b.WriteString(title + "\n")
	}

	heading("Transcription:")
	if transcript := strings.TrimSpace(report.Transcript); transcript != "" {
		b.WriteString(transcript + "\n")
	} else {
		b.WriteString("(no speech recognized)\n")
	}
	b.WriteString("\n")

	heading("Accent Detection Result:")
	label := result.Label
	if colorize {
		label = accentColor(result) + label + ansiReset
	}
	fmt.Fprintf(&b, "  %-13s %s\n", "Accent:", label)
	fmt.Fprintf(&b, "  %-13s %d%%\n", "Confidence:", result.Confidence)
	fmt.Fprintf(&b, "  %-13s %s\n", "Explanation:", result.Explanation)
	method := result.Method
	if result.Fallback != "" {
		method = fmt.Sprintf("%s (LLM unavailable: %s)", method, result.Fallback)
	}
	fmt.Fprintf(&b, "  %-13s %s\n", "Method:", method)
	if len(result.Matched) > 0 {
		fmt.Fprintf(&b, "  %-13s %s\n", "Keywords:", strings.Join(result.Matched, ", "))
	}
	b.WriteString("\n")

	source := report.Source
	if report.Title != "" {
		source = fmt.Sprintf("%s (%s)", report.Title, report.Source)
	}
	fmt.Fprintf(&b, "  %-13s %s\n", "Source:", source)
	fmt.Fprintf(&b, "  %-13s %s\n", "Transcriber:", report.Transcriber)
	fmt.Fprintf(&b, "  %-13s %s\n", "Run:", report.RunID)

	rows := make([][]string, 0, len(report.Timings)+1)
	for _, timing := range report.Timings {
		rows = append(rows, []string{titleCase(timing.Stage), formatDuration(timing.Duration)})
	}
	rows = append(rows, []string{"Total", formatDuration(report.Elapsed())})
	b.WriteString(renderTable([]string{"Stage", "Duration"}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteString("\n")
	return b.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

func historyRows(entries []*history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		label := entry.Title
		if label == "" {
			label = entry.Source
		}
		label = textutil.Truncate(label, 48)
		confidence := ""
		if entry.Succeeded() {
			confidence = fmt.Sprintf("%d%%", entry.Confidence)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.ID),
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			label,
			titleCase(string(entry.Status)),
			entry.Accent,
			confidence,
		})
	}
	return rows
}

func renderHistoryEntry(entry *history.Entry) string {
	var b strings.Builder
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%-14s %s\n", label+":", value)
	}
	field("ID", fmt.Sprintf("%d", entry.ID))
	field("Run", entry.RunID)
	field("Source", entry.Source)
	field("Title", entry.Title)
	field("Status", titleCase(string(entry.Status)))
	field("Created", entry.CreatedAt.Local().Format(time.RFC3339))
	if entry.DurationSeconds > 0 {
		field("Duration", formatDuration(time.Duration(entry.DurationSeconds*float64(time.Second))))
	}
	if entry.Succeeded() {
		field("Accent", entry.Accent)
		field("Confidence", fmt.Sprintf("%d%%", entry.Confidence))
		field("Explanation", entry.Explanation)
		field("Method", entry.Method)
	}
	field("Transcriber", entry.Transcriber)
	field("Error", entry.ErrorMessage)
	if transcript := strings.TrimSpace(entry.Transcript); transcript != "" {
		b.WriteString("\nTranscription:\n" + transcript + "\n")
	}
	return b.String()
}

// progressPrinter writes stage transitions and sampled download progress.
type progressPrinter struct {
	out     io.Writer
	sampler *logging.ProgressSampler
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, sampler: logging.NewProgressSampler(25)}
}

func (p *progressPrinter) update(progress pipeline.Progress) {
	if !p.sampler.ShouldLog(progress.Stage, progress.Percent) {
		return
	}
	line := fmt.Sprintf("[%d/%d] %s", progress.Step, progress.Total, titleCase(progress.Stage))
	switch {
	case progress.Message == "started":
		line += "..."
	case progress.Percent >= 100:
		line += " done"
	default:
		line += fmt.Sprintf(" %.0f%%", progress.Percent)
	}
	fmt.Fprintln(p.out, line)
}

func accentColor(result accent.Result) string {
	if result.Detected() {
		return ansiGreen
	}
	return ansiYellow
}
