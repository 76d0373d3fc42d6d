package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/concord/internal/report"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, rep *report.CodeReviewReport) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "html":
		return &HTMLWriter{}, nil
	case "text":
		return &TextWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(rep *report.CodeReviewReport, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, rep)
}

// errWriter folds repeated write errors into one.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

func (e *errWriter) println(s string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, s)
}
