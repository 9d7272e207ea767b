package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/ferry/internal/config"
	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/units"
)

// Theme colors the summary line.
type Theme struct {
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Red    lipgloss.Color
	Muted  lipgloss.Color
}

// DefaultTheme is the Catppuccin Mocha palette.
func DefaultTheme() Theme {
	return Theme{
		Green:  lipgloss.Color("#a6e3a1"),
		Yellow: lipgloss.Color("#f9e2af"),
		Red:    lipgloss.Color("#f38ba8"),
		Muted:  lipgloss.Color("#5a6278"),
	}
}

// ThemeFrom applies config overrides on top of DefaultTheme.
func ThemeFrom(cfg config.ThemeConfig) Theme {
	t := DefaultTheme()
	override := func(dst *lipgloss.Color, v *string) {
		if v != nil && *v != "" {
			*dst = lipgloss.Color(*v)
		}
	}
	override(&t.Green, cfg.Green)
	override(&t.Yellow, cfg.Yellow)
	override(&t.Red, cfg.Red)
	override(&t.Muted, cfg.Muted)
	return t
}

// SummaryConfig controls how a Result is summarized.
type SummaryConfig struct {
	Style    units.Style
	Decimals int
	// Color enables lipgloss styling; leave it off when not writing to a TTY.
	Color bool
	Theme Theme
}

// Summary builds a final summary line from a transfer result.
// Format: done ✓  files 3  size 53.0 bytes  avg 1.2 KB/sec  time 0s  errors 0
func Summary(res engine.Result, cfg SummaryConfig) string {
	snap := res.Stats

	head, color := "done ✓", cfg.Theme.Green
	switch res.Status {
	case engine.Failed:
		head, color = "failed ✗", cfg.Theme.Red
	case engine.Cancelled:
		head, color = "cancelled ⊘", cfg.Theme.Yellow
	}
	if res.Status == engine.Success && len(res.Failures) > 0 {
		color = cfg.Theme.Yellow
	}

	body := fmt.Sprintf("files %s  size %s  avg %s/sec  time %s  errors %d",
		FormatCount(snap.FilesCopied),
		units.Format(snap.BytesCopied, cfg.Style, cfg.Decimals),
		units.Format(int64(snap.AvgSpeed()), cfg.Style, cfg.Decimals),
		FormatDuration(snap.Elapsed),
		snap.FilesFailed,
	)

	if !cfg.Color {
		return head + "  " + body
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(head) +
		"  " + lipgloss.NewStyle().Foreground(cfg.Theme.Muted).Render(body)
}

// FailureLines lists the files a ContinueOnFailure transfer skipped.
func FailureLines(res engine.Result) []string {
	lines := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		lines = append(lines, fmt.Sprintf("failed: %s: %v", f.Path, f.Err))
	}
	return lines
}
