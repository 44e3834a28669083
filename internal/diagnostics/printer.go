package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color modes accepted by NewPrinter.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	errorColor   = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")
	noteColor    = lipgloss.Color("#2196F3")
	successColor = lipgloss.Color("#8BC34A")
)

// Printer writes diagnostics for humans.
type Printer struct {
	w io.Writer

	severity map[Severity]lipgloss.Style
	location lipgloss.Style
	attempt  lipgloss.Style
	success  lipgloss.Style
}

func NewPrinter(w io.Writer, mode string) *Printer {
	r := lipgloss.NewRenderer(w)
	if colorEnabled(w, mode) {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w: w,
		severity: map[Severity]lipgloss.Style{
			SeverityError:   r.NewStyle().Foreground(errorColor).Bold(true),
			SeverityWarning: r.NewStyle().Foreground(warningColor).Bold(true),
			SeverityNote:    r.NewStyle().Foreground(noteColor),
		},
		location: r.NewStyle().Bold(true),
		attempt:  r.NewStyle().Faint(true),
		success:  r.NewStyle().Foreground(successColor),
	}
}

func colorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) Print(d *DiagnosticError) {
	head := p.severity[d.Severity].Render(fmt.Sprintf("%s[%s]", d.Severity, d.Code))
	if loc := d.Location(); loc != "" {
		head += " " + p.location.Render(loc)
	}
	fmt.Fprintf(p.w, "%s: %s\n", head, d.Message)
	for _, a := range d.Attempts {
		fmt.Fprintln(p.w, p.attempt.Render(fmt.Sprintf("  fragment %d: %s", a.Fragment, a.Reason)))
	}
}

func (p *Printer) PrintSet(s *Set) {
	for _, d := range s.Items() {
		p.Print(d)
	}
}

// Summary prints the closing line of a check run.
func (p *Printer) Summary(enums int, s *Set) {
	errs, warns := len(s.Errors()), len(s.Warnings())
	if errs == 0 {
		fmt.Fprintln(p.w, p.success.Render(fmt.Sprintf("%d enum(s) conform (%d warning(s))", enums, warns)))
		return
	}
	fmt.Fprintln(p.w, p.severity[SeverityError].Render(fmt.Sprintf("%d error(s), %d warning(s) in %d enum(s)", errs, warns, enums)))
}

// PrintError writes an error that carries no diagnostic code, such as a
// rejected derivation.
func (p *Printer) PrintError(err error) {
	fmt.Fprintf(p.w, "%s: %v\n", p.severity[SeverityError].Render("error"), err)
}
