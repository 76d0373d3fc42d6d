// Package output formats synthesized review reports for display or machine
// consumption.
//
// Four formats are supported:
//   - markdown: the full report document (default)
//   - json:     the structured report for tooling
//   - html:     the markdown report rendered to a standalone HTML page
//   - text:     a compact colored terminal summary
//
// Use [GetWriter] to obtain a [Writer] for a format string, then call
// [Writer.Write] with an [io.Writer] and a report. [WriteReport] handles
// destination selection between a file path and stdout.
package output
