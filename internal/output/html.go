package output

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dshills/concord/internal/report"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTMLWriter renders the markdown report into a standalone HTML page.
type HTMLWriter struct{}

const htmlHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; }
pre code { display: block; padding: 0.8rem; overflow-x: auto; }
blockquote { border-left: 3px solid #e0a800; margin-left: 0; padding-left: 1rem; color: #665; }
</style>
</head>
<body>
`

func (h *HTMLWriter) Write(w io.Writer, rep *report.CodeReviewReport) error {
	title := "Code Review Report"
	if rep != nil && rep.ProjectName != "" {
		title = "Code Review Report: " + rep.ProjectName
	}

	source := report.RenderMarkdown(rep)
	var body bytes.Buffer
	if err := md.Convert([]byte(source), &body); err != nil {
		// Fall back to the escaped markdown rather than failing the write.
		body.Reset()
		body.WriteString("<pre>" + html.EscapeString(source) + "</pre>")
	}

	if _, err := fmt.Fprintf(w, htmlHeader, html.EscapeString(title)); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
