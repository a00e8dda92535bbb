package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	errorTag   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningTag = color.New(color.FgYellow, color.Bold).SprintFunc()
	noteTag    = color.New(color.FgCyan).SprintFunc()
	caretTag   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Render prints a diagnostic with a source snippet and a caret, the way
// the driver's user-visible failure output is specified in §7. source is
// the full text of the diagnostic's file; callers that only hold a parse
// tree (no source text) should use RenderCompact instead.
//
// Render always colorizes; RenderPlain renders the same layout without
// color escapes. Callers pick one to honor a run's --color setting.
func Render(w io.Writer, d Diagnostic, source string) {
	line, col, lineText := locate(source, d.Primary.Start)
	fmt.Fprintf(w, "%s[%s]: %s\n", severityTag(d.Severity), d.Code, d.Message)
	fmt.Fprintf(w, "  --> %s:%d:%d\n", d.Primary.File, line, col)
	if lineText != "" {
		fmt.Fprintf(w, "   | %s\n", lineText)
		fmt.Fprintf(w, "   | %s%s\n", strings.Repeat(" ", col-1), caretTag("^"))
	}
	for _, l := range d.Secondary {
		sline, scol, _ := locate(source, l.Span.Start)
		fmt.Fprintf(w, "  %s: %s (%s:%d:%d)\n", noteTag("note"), l.Text, l.Span.File, sline, scol)
	}
}

// RenderPlain is Render without color escapes, for non-terminal output
// (redirected to a file, or --color=false).
func RenderPlain(w io.Writer, d Diagnostic, source string) {
	line, col, lineText := locate(source, d.Primary.Start)
	fmt.Fprintf(w, "%s[%s]: %s\n", plainSeverityTag(d.Severity), d.Code, d.Message)
	fmt.Fprintf(w, "  --> %s:%d:%d\n", d.Primary.File, line, col)
	if lineText != "" {
		fmt.Fprintf(w, "   | %s\n", lineText)
		fmt.Fprintf(w, "   | %s^\n", strings.Repeat(" ", col-1))
	}
	for _, l := range d.Secondary {
		sline, scol, _ := locate(source, l.Span.Start)
		fmt.Fprintf(w, "  note: %s (%s:%d:%d)\n", l.Text, l.Span.File, sline, scol)
	}
}

// RenderCompact prints a diagnostic without a source snippet, for callers
// that hold only span offsets (e.g. fixture-driven tests).
func RenderCompact(w io.Writer, d Diagnostic) {
	fmt.Fprintf(w, "%s[%s]: %s (%s:%d-%d)\n",
		plainSeverityTag(d.Severity), d.Code, d.Message, d.Primary.File, d.Primary.Start, d.Primary.End)
	for _, l := range d.Secondary {
		fmt.Fprintf(w, "  note: %s (%s:%d-%d)\n", l.Text, l.Span.File, l.Span.Start, l.Span.End)
	}
}

// RenderCompactColor is RenderCompact with the severity tag colorized,
// for hosts that only have span offsets (no raw source text to print a
// caret under) but still want a --color-honoring terminal summary.
func RenderCompactColor(w io.Writer, d Diagnostic) {
	fmt.Fprintf(w, "%s[%s]: %s (%s:%d-%d)\n",
		severityTag(d.Severity), d.Code, d.Message, d.Primary.File, d.Primary.Start, d.Primary.End)
	for _, l := range d.Secondary {
		fmt.Fprintf(w, "  %s: %s (%s:%d-%d)\n", noteTag("note"), l.Text, l.Span.File, l.Span.Start, l.Span.End)
	}
}

func severityTag(s Severity) string {
	if s == SeverityWarning {
		return warningTag("warning")
	}
	return errorTag("error")
}

func plainSeverityTag(s Severity) string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// locate turns a byte offset into a 1-based (line, column) plus the
// enclosing line's text.
func locate(source string, offset int) (line, col int, lineText string) {
	if offset < 0 || offset > len(source) {
		return 1, 1, ""
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col = offset - lineStart + 1
	lineEnd := strings.IndexByte(source[lineStart:], '\n')
	if lineEnd == -1 {
		lineText = source[lineStart:]
	} else {
		lineText = source[lineStart : lineStart+lineEnd]
	}
	return line, col, lineText
}
