// Package terminal formats CLI output.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

var (
	colorTitle  = lipgloss.Color("#7aa2f7")
	colorAccent = lipgloss.Color("#bb9af7")
	colorDim    = lipgloss.Color("#565f89")
	colorGood   = lipgloss.Color("#9ece6a")
	colorBad    = lipgloss.Color("#f7768e")
	colorBorder = lipgloss.Color("#3b4261")
)

const defaultWidth = 100

// Printer writes styled output. Styling degrades to plain text when w is
// not a terminal.
type Printer struct {
	w     io.Writer
	tty   bool
	width int

	title  lipgloss.Style
	label  lipgloss.Style
	dim    lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	p := &Printer{w: w, width: defaultWidth}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = true
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			p.width = cols
		}
	}

	r := lipgloss.NewRenderer(w)
	p.title = r.NewStyle().Bold(true).Foreground(colorTitle)
	p.label = r.NewStyle().Foreground(colorAccent)
	p.dim = r.NewStyle().Foreground(colorDim)
	p.good = r.NewStyle().Foreground(colorGood)
	p.bad = r.NewStyle().Foreground(colorBad)
	p.header = r.NewStyle().Bold(true).Foreground(colorTitle).Padding(0, 1)
	p.cell = r.NewStyle().Padding(0, 1)
	p.border = r.NewStyle().Foreground(colorBorder)
	return p
}

// IsTTY reports whether output goes to a terminal.
func (p *Printer) IsTTY() bool { return p.tty }

// Width is the terminal width, or a default for pipes and files.
func (p *Printer) Width() int { return p.width }

// Title prints a bold heading line.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.w, p.title.Render(s))
}

// Field prints "label: value". Empty values are skipped.
func (p *Printer) Field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render(label+":"), value)
}

// Dim prints a de-emphasised line.
func (p *Printer) Dim(s string) {
	fmt.Fprintln(p.w, p.dim.Render(s))
}

// OK prints a success line.
func (p *Printer) OK(s string) {
	fmt.Fprintln(p.w, p.good.Render(s))
}

// Fail prints an error line.
func (p *Printer) Fail(s string) {
	fmt.Fprintln(p.w, p.bad.Render(s))
}

// Text prints s wrapped to the output width.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.w, lipgloss.NewStyle().Width(p.width).Render(strings.TrimSpace(s)))
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// Table prints rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return p.cell
		})
	fmt.Fprintln(p.w, t.Render())
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
