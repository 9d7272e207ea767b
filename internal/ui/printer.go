package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/bamsammich/ferry/internal/progress"
	"github.com/bamsammich/ferry/internal/units"
)

const barWidth = 20

// IsTTY reports whether the given file descriptor refers to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// TermWidth returns the terminal width in columns, or 80 if it cannot be determined.
func TermWidth(fd uintptr) int {
	w, _, err := term.GetSize(int(fd))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// PrinterConfig configures a Printer.
type PrinterConfig struct {
	Writer   io.Writer
	Style    units.Style
	Decimals int
	// TTY redraws a single status line in place instead of printing one
	// line per snapshot.
	TTY   bool
	Width int
}

// Printer renders progress snapshots. Its Update method is a progress.Func.
type Printer struct {
	w        io.Writer
	style    units.Style
	decimals int
	tty      bool
	width    int

	mu      sync.Mutex
	drawn   int
	updates int
}

// NewPrinter creates a Printer.
func NewPrinter(cfg PrinterConfig) *Printer {
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	return &Printer{
		w:        cfg.Writer,
		style:    cfg.Style,
		decimals: cfg.Decimals,
		tty:      cfg.TTY,
		width:    cfg.Width,
	}
}

// Update prints one snapshot.
func (p *Printer) Update(s progress.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates++

	if !p.tty {
		_, err := fmt.Fprintf(p.w, "%s  %s  %s\n",
			s.Formatted(p.style, p.decimals),
			s.RateFormatted(p.style, p.decimals),
			s.ProcessedFile)
		return err
	}

	line := fmt.Sprintf("%s %5.1f%%  %s / %s  %s  eta %s",
		ProgressBar(s.Fraction(), barWidth),
		s.Percentage(),
		units.Format(s.BytesTransferred, p.style, p.decimals),
		units.Format(s.Total, p.style, p.decimals),
		s.RateFormatted(p.style, p.decimals),
		FormatETA(ETA(s)),
	)
	line = truncate(line, p.width-1)
	pad := max(0, p.drawn-len([]rune(line)))
	p.drawn = len([]rune(line))
	_, err := fmt.Fprint(p.w, "\r"+line+strings.Repeat(" ", pad))
	return err
}

// Updates returns how many snapshots were printed.
func (p *Printer) Updates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updates
}

// Finish ends the in-place status line.
func (p *Printer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty && p.drawn > 0 {
		fmt.Fprintln(p.w)
		p.drawn = 0
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width])
}
