package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dshills/concord/internal/report"
)

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
)

// TextWriter outputs a compact colored terminal summary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, rep *report.CodeReviewReport) error {
	if rep == nil {
		_, err := fmt.Fprintln(w, "No report data available.")
		return err
	}
	ew := &errWriter{w: w}

	name := rep.ProjectName
	if name == "" {
		name = "(unnamed project)"
	}
	ew.printf("Concord Code Review: %s\n", cyan(name))
	if !rep.ReviewDate.IsZero() {
		ew.printf("Date: %s\n", rep.ReviewDate.Format("2006-01-02"))
	}
	if rep.Degraded {
		ew.printf("%s\n", yellow("Degraded run: structured extraction was unavailable."))
	}
	ew.println(strings.Repeat("─", 60))

	if len(rep.ModelMetrics) > 0 {
		table := newTable(w, []string{"Model", "Status", "Latency (ms)", "Tokens", "Cost ($)"})
		for _, m := range rep.ModelMetrics {
			status := m.Status
			switch status {
			case report.StatusCompleted:
				status = green(status)
			case report.StatusFailed:
				status = red(status)
			}
			table.Append([]string{
				m.Model.Name,
				status,
				fmt.Sprintf("%d", m.LatencyMs),
				fmt.Sprintf("%d", m.TotalTokens),
				fmt.Sprintf("%.4f", m.Cost),
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
		ew.println("")
	}

	writeFindingList(ew, green("Strengths"), rep.KeyStrengths)
	writeFindingList(ew, red("Areas for improvement"), rep.KeyAreasForImprovement)

	if recs := rep.PrioritizedRecommendations[report.PriorityHigh]; len(recs) > 0 {
		ew.printf("\n%s\n", yellow("High priority"))
		for i, r := range recs {
			ew.printf("  %d. %s\n", i+1, r)
		}
	}
	return ew.err
}

func writeFindingList(ew *errWriter, label string, findings []report.Finding) {
	if len(findings) == 0 {
		return
	}
	ew.printf("\n%s\n", label)
	for _, f := range findings {
		line := "  • " + f.Title
		if n := f.AgreementCount(); n > 1 {
			line += fmt.Sprintf(" (%d models)", n)
		}
		ew.println(line)
	}
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
