package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/japaniel/termtip/pkg/annotate"
)

// Palette shared with the interactive viewer.
var (
	ColorTerm   = lipgloss.Color("#83a598")
	ColorMarker = lipgloss.Color("#928374")
	ColorFocus  = lipgloss.Color("#fabd2f")
	ColorHeader = lipgloss.Color("#fe8019")
	ColorFg     = lipgloss.Color("#ebdbb2")
)

// TerminalStyles styles the parts of a terminal preview.
type TerminalStyles struct {
	Term       lipgloss.Style
	Focused    lipgloss.Style
	Marker     lipgloss.Style
	Heading    lipgloss.Style
	Definition lipgloss.Style
	Panel      lipgloss.Style
}

// DefaultTerminalStyles returns the colored styles.
func DefaultTerminalStyles() TerminalStyles {
	return TerminalStyles{
		Term:       lipgloss.NewStyle().Foreground(ColorTerm).Underline(true),
		Focused:    lipgloss.NewStyle().Foreground(ColorFocus).Bold(true).Underline(true),
		Marker:     lipgloss.NewStyle().Foreground(ColorMarker),
		Heading:    lipgloss.NewStyle().Foreground(ColorHeader).Bold(true),
		Definition: lipgloss.NewStyle().Foreground(ColorFg),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that add no escape sequences, for pipes and
// --color=never.
func PlainStyles() TerminalStyles {
	plain := lipgloss.NewStyle()
	return TerminalStyles{
		Term:       plain,
		Focused:    plain,
		Marker:     plain,
		Heading:    plain,
		Definition: plain,
		Panel:      plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
	}
}

// Terminal renders segments with highlighted terms followed by numbered
// markers, and a definitions list after the text. Markers number distinct
// terms in order of first appearance.
func Terminal(segments []annotate.Segment, styles TerminalStyles) string {
	terms := annotate.Terms(segments)
	number := make(map[string]int, len(terms))
	for i, t := range terms {
		number[t] = i + 1
	}

	var b strings.Builder
	for _, s := range segments {
		if !s.IsTerm() {
			b.WriteString(s.Value)
			continue
		}
		b.WriteString(styles.Term.Render(s.MatchedText))
		b.WriteString(styles.Marker.Render(fmt.Sprintf("[%d]", number[s.Term])))
	}

	if len(terms) == 0 {
		return b.String()
	}

	definitions := make(map[string]string, len(terms))
	for _, s := range segments {
		if s.IsTerm() {
			definitions[s.Term] = s.Definition
		}
	}

	b.WriteString("\n\n")
	b.WriteString(styles.Heading.Render("Glossary"))
	b.WriteString("\n")
	for i, t := range terms {
		fmt.Fprintf(&b, "%s %s: %s\n",
			styles.Marker.Render(fmt.Sprintf("[%d]", i+1)),
			t,
			styles.Definition.Render(definitions[t]))
	}
	return b.String()
}
