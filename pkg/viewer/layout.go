package viewer

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/japaniel/termtip/pkg/annotate"
)

// trigger is one term occurrence placed in the document layout. row and col
// are in document cells; width covers the part on the first row.
type trigger struct {
	id         string
	term       string
	definition string
	row, col   int
	width      int
}

// piece is a run of text on one line. trigger is -1 for plain text.
type piece struct {
	text    string
	trigger int
}

type line []piece

// layout wraps paragraphs to width cells (no wrapping when width <= 0) and
// records where each term starts. Paragraphs are separated by a blank line.
func layout(paragraphs [][]annotate.Segment, width int) ([]line, []trigger) {
	var (
		lines    []line
		triggers []trigger
		cur      line
		col      int
	)
	flush := func() {
		lines = append(lines, cur)
		cur = nil
		col = 0
	}
	put := func(r rune, trig int) {
		if cur != nil && cur[len(cur)-1].trigger == trig {
			cur[len(cur)-1].text += string(r)
		} else {
			cur = append(cur, piece{text: string(r), trigger: trig})
		}
	}

	for pi, segs := range paragraphs {
		if pi > 0 {
			flush()
		}
		for si, s := range segs {
			trig := -1
			if s.IsTerm() {
				trig = len(triggers)
				triggers = append(triggers, trigger{
					id:         fmt.Sprintf("p%d-s%d", pi, si),
					term:       s.Term,
					definition: s.Definition,
					row:        -1,
				})
			}
			for _, r := range s.Raw() {
				if r == '\n' {
					flush()
					continue
				}
				w := lipgloss.Width(string(r))
				if width > 0 && col > 0 && col+w > width {
					flush()
				}
				if trig >= 0 {
					t := &triggers[trig]
					if t.row < 0 {
						t.row, t.col = len(lines), col
					}
					if t.row == len(lines) {
						t.width += w
					}
				}
				put(r, trig)
				col += w
			}
		}
	}
	if cur != nil || len(paragraphs) > 0 {
		flush()
	}

	// A term made only of newlines never lands on a row.
	for i := range triggers {
		if triggers[i].row < 0 {
			triggers[i].row = len(lines) - 1
		}
	}
	return lines, triggers
}
