package output

import (
	"io"

	"github.com/dshills/concord/internal/report"
)

// MarkdownWriter outputs the full markdown report document.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, rep *report.CodeReviewReport) error {
	_, err := io.WriteString(w, report.RenderMarkdown(rep))
	return err
}
