// Package viewer is an interactive terminal reader for annotated articles.
// Tab moves focus between glossary terms and the focused term's definition
// is painted above or below it following tooltip placement rules, with the
// threshold measured in rows.
package viewer

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/japaniel/termtip/pkg/render"
	"github.com/japaniel/termtip/pkg/tooltip"
)

const (
	maxPanelWidth = 40
	footerRows    = 1
)

// Model is the bubbletea model for the viewer.
type Model struct {
	title      string
	paragraphs [][]annotate.Segment
	styles     render.TerminalStyles
	keys       KeyMap
	tips       *tooltip.Group

	lines    []line
	triggers []trigger
	focus    int
	offset   int

	width, height int
	quitting      bool
}

// New returns a viewer over annotated paragraphs. threshold is the number of
// rows a panel needs above its trigger.
func New(title string, paragraphs [][]annotate.Segment, threshold float64, styles render.TerminalStyles) Model {
	m := Model{
		title:      title,
		paragraphs: paragraphs,
		styles:     styles,
		keys:       DefaultKeyMap(),
		tips:       tooltip.NewGroup(threshold),
		focus:      -1,
	}
	m.lines, m.triggers = layout(paragraphs, 0)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.lines, m.triggers = layout(m.paragraphs, m.width)
		if m.focus >= 0 {
			m.scrollTo(m.triggers[m.focus].row)
		}
		m.clampOffset()
		m.measure()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.move(1)
		case key.Matches(msg, m.keys.Prev):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.offset++
			m.clampOffset()
			m.measure()
		case key.Matches(msg, m.keys.Up):
			m.offset--
			m.clampOffset()
			m.measure()
		}
	}
	return m, nil
}

func (m *Model) headerRows() int {
	if m.title == "" {
		return 0
	}
	return 2
}

func (m *Model) bodyRows() int {
	if m.height <= 0 {
		return len(m.lines)
	}
	if n := m.height - m.headerRows() - footerRows; n > 0 {
		return n
	}
	return 1
}

func (m *Model) clampOffset() {
	if last := len(m.lines) - m.bodyRows(); m.offset > last {
		m.offset = last
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) scrollTo(row int) {
	if row < m.offset {
		m.offset = row
	}
	if body := m.bodyRows(); row >= m.offset+body {
		m.offset = row - body + 1
	}
}

// move blurs the focused trigger and focuses the next one in direction d,
// wrapping around.
func (m *Model) move(d int) {
	n := len(m.triggers)
	if n == 0 {
		return
	}
	switch {
	case m.focus >= 0:
		m.tips.Handle(m.triggers[m.focus].id, tooltip.Blur)
		m.focus = (m.focus + d + n) % n
	case d > 0:
		m.focus = 0
	default:
		m.focus = n - 1
	}

	t := m.triggers[m.focus]
	m.scrollTo(t.row)
	m.tips.Handle(t.id, tooltip.Focus)
	m.measure()
}

// measure feeds the focused trigger's screen position to its tooltip. Until
// the first window size arrives nothing is measured and a focus stays
// pending. A trigger scrolled out of view is unmounted and its show becomes
// pending again.
func (m *Model) measure() {
	if m.focus < 0 || m.width <= 0 {
		return
	}
	t := m.triggers[m.focus]
	tip := m.tips.Get(t.id)

	vr := t.row - m.offset
	if vr < 0 || vr >= m.bodyRows() {
		tip.Unmount()
		tip.Handle(tooltip.Focus)
		return
	}
	m.tips.Measure(t.id, tooltip.Rect{
		Left:   float64(t.col),
		Top:    float64(m.headerRows() + vr),
		Width:  float64(t.width),
		Height: 1,
	}, tooltip.Size{Width: float64(m.width), Height: float64(m.height)})
}

// Focused returns the focused term, if any.
func (m Model) Focused() (string, bool) {
	if m.focus < 0 {
		return "", false
	}
	return m.triggers[m.focus].term, true
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var screen []string
	if m.title != "" {
		screen = append(screen, m.styles.Heading.Render(m.title), "")
	}
	end := m.offset + m.bodyRows()
	if end > len(m.lines) {
		end = len(m.lines)
	}
	for _, l := range m.lines[m.offset:end] {
		screen = append(screen, m.renderLine(l))
	}
	screen = m.overlayPanel(screen)
	screen = append(screen, m.footer())
	return strings.Join(screen, "\n")
}

func (m Model) renderLine(l line) string {
	var b strings.Builder
	for _, p := range l {
		switch {
		case p.trigger < 0:
			b.WriteString(p.text)
		case p.trigger == m.focus:
			b.WriteString(m.styles.Focused.Render(p.text))
		default:
			b.WriteString(m.styles.Term.Render(p.text))
		}
	}
	return b.String()
}

// overlayPanel paints the focused definition over the lines above or below
// its trigger, with an arrow pointing at the trigger.
func (m Model) overlayPanel(screen []string) []string {
	if m.focus < 0 {
		return screen
	}
	t := m.triggers[m.focus]
	tip := m.tips.Get(t.id)
	if tip.State() != tooltip.StateVisible {
		return screen
	}
	dec := tip.Decision()
	if !dec.Positionable {
		return screen
	}

	width := maxPanelWidth
	if m.width > 0 && m.width-2 < width {
		width = m.width - 2
	}
	if width < 8 {
		width = 8
	}
	body := m.styles.Heading.Render(t.term) + "\n" + m.styles.Definition.Render(t.definition)
	panel := strings.Split(m.styles.Panel.Width(width).Render(body), "\n")
	panelWidth := 0
	for _, l := range panel {
		if w := lipgloss.Width(l); w > panelWidth {
			panelWidth = w
		}
	}

	tip0 := int(dec.Arrow.Left)
	left := tip0 - panelWidth/2
	if m.width > 0 && left+panelWidth > m.width {
		left = m.width - panelWidth
	}
	if left < 0 {
		left = 0
	}
	indent := strings.Repeat(" ", left)

	var overlay []string
	var start int
	row := m.headerRows() + t.row - m.offset
	if dec.Side == tooltip.SideBelow {
		overlay = append(overlay, strings.Repeat(" ", tip0)+"▲")
		for _, l := range panel {
			overlay = append(overlay, indent+l)
		}
		start = row + 1
	} else {
		for _, l := range panel {
			overlay = append(overlay, indent+l)
		}
		overlay = append(overlay, strings.Repeat(" ", tip0)+"▼")
		start = row - len(overlay)
	}

	out := append([]string(nil), screen...)
	for i, l := range overlay {
		r := start + i
		if r < 0 {
			continue
		}
		for r >= len(out) {
			out = append(out, "")
		}
		out[r] = l
	}
	return out
}

func (m Model) footer() string {
	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	if term, ok := m.Focused(); ok {
		state := m.tips.Get(m.triggers[m.focus].id)
		if state.Pending() {
			term += " (measuring)"
		}
		hints = append([]string{term}, hints...)
	}
	return m.styles.Marker.Render(strings.Join(hints, " • "))
}

// Run starts the viewer on the terminal and blocks until it quits.
func Run(title string, paragraphs [][]annotate.Segment, threshold float64, styles render.TerminalStyles) error {
	_, err := tea.NewProgram(New(title, paragraphs, threshold, styles), tea.WithAltScreen()).Run()
	return err
}
