package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lukaszgryglicki/apconst/compare"
)

var (
	colorTitle    = lipgloss.Color("#8B5CF6")
	colorHeading  = lipgloss.Color("#06B6D4")
	colorMatch    = lipgloss.Color("#10B981")
	colorMarginal = lipgloss.Color("#F59E0B")
	colorFail     = lipgloss.Color("#EF4444")
	colorMuted    = lipgloss.Color("#94A3B8")
)

// LipglossStyles colours the title, entry headings and verdicts for a
// terminal. lipgloss drops the colours itself when the output is not a TTY.
func LipglossStyles() Styles {
	title := lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	heading := lipgloss.NewStyle().Foreground(colorHeading).Bold(true)
	verdicts := map[compare.Verdict]lipgloss.Style{
		compare.Match:    lipgloss.NewStyle().Foreground(colorMatch).Bold(true),
		compare.Marginal: lipgloss.NewStyle().Foreground(colorMarginal).Bold(true),
		compare.Fail:     lipgloss.NewStyle().Foreground(colorFail).Bold(true),
		compare.Unrated:  lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	}
	return Styles{
		Title:   func(s string) string { return title.Render(s) },
		Heading: func(s string) string { return heading.Render(s) },
		Verdict: func(v compare.Verdict, s string) string {
			if style, ok := verdicts[v]; ok {
				return style.Render(s)
			}
			return s
		},
	}
}
