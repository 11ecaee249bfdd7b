package annotate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// foldRune maps r to a canonical member of its simple case folding orbit
// (the smallest code point), so two runes fold equal exactly when
// unicode.SimpleFold considers them the same letter.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		if 'a' <= r && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	return lo
}

// Fold applies the matcher's case folding to s. Terms and text are compared
// after folding, one rune in, one rune out.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

// foldedText is the text being scanned, folded, with enough bookkeeping to map
// a match in the folded string back to byte offsets in the original.
type foldedText struct {
	folded string
	// orig[i] and fold[i] are the byte offsets where rune i starts in the
	// original and folded strings. Both carry a trailing end offset.
	orig []int
	fold []int
	// runeAt maps a folded byte offset at a rune boundary to its rune index.
	runeAt map[int]int
}

func newFoldedText(text string) *foldedText {
	ft := &foldedText{
		orig:   make([]int, 0, len(text)+1),
		fold:   make([]int, 0, len(text)+1),
		runeAt: make(map[int]int, len(text)+1),
	}
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		ft.runeAt[b.Len()] = len(ft.orig)
		ft.orig = append(ft.orig, i)
		ft.fold = append(ft.fold, b.Len())
		b.WriteRune(foldRune(r))
	}
	ft.runeAt[b.Len()] = len(ft.orig)
	ft.orig = append(ft.orig, len(text))
	ft.fold = append(ft.fold, b.Len())
	ft.folded = b.String()
	return ft
}

// runes is the number of runes in the text.
func (ft *foldedText) runes() int { return len(ft.orig) - 1 }

// index returns the rune index of the earliest occurrence of needle starting
// at or after rune position from, or -1.
func (ft *foldedText) index(needle string, from int) int {
	start := ft.fold[from]
	i := strings.Index(ft.folded[start:], needle)
	if i < 0 {
		return -1
	}
	return ft.runeAt[start+i]
}
