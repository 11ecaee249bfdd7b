// Package annotate splits article text into plain and glossary-term segments.
//
// Matching is greedy and leftmost-earliest: at every step the term occurring
// earliest in the unconsumed text wins, and when several terms start at the
// same position the longest one wins. Comparison is case-insensitive using
// Fold, and terms may match inside larger words.
package annotate

import (
	"sort"
	"unicode/utf8"
)

type term struct {
	key        string
	definition string
	folded     string
	runes      int
}

// Matcher holds a validated, pre-folded glossary. It is immutable and safe
// for concurrent use.
type Matcher struct {
	terms []term
}

// NewMatcher validates glossary and prepares it for scanning. Empty keys and
// keys equal under case folding are rejected with an error wrapping
// ErrInvalidGlossaryKey.
func NewMatcher(glossary map[string]string) (*Matcher, error) {
	keys := make([]string, 0, len(glossary))
	for k := range glossary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byFold := make(map[string]string, len(keys))
	terms := make([]term, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			return nil, &GlossaryKeyError{Key: k, Reason: "empty term"}
		}
		f := Fold(k)
		if other, ok := byFold[f]; ok {
			return nil, &GlossaryKeyError{Key: k, Other: other, Reason: "duplicate under case folding"}
		}
		byFold[f] = k
		terms = append(terms, term{
			key:        k,
			definition: glossary[k],
			folded:     f,
			runes:      utf8.RuneCountInString(k),
		})
	}

	// Longest first so that a strict "<" on the start index below keeps the
	// longer term on ties.
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].runes > terms[j].runes
	})
	return &Matcher{terms: terms}, nil
}

// Len returns the number of glossary terms.
func (m *Matcher) Len() int { return len(m.terms) }

// matchCandidate is the earliest occurrence of one term in the unconsumed text.
type matchCandidate struct {
	term  int
	index int
}

// Annotate splits text into segments. Empty text yields a nil slice.
// Concatenating the raw text of the result reproduces text exactly.
func (m *Matcher) Annotate(text string) []Segment {
	if text == "" {
		return nil
	}
	if len(m.terms) == 0 {
		return []Segment{Text(text)}
	}

	ft := newFoldedText(text)
	n := ft.runes()

	// next[i] caches term i's earliest occurrence at or after the last scan
	// position. An occurrence still inside the suffix stays the earliest one,
	// so it is only searched again once the scan has moved past it.
	next := make([]int, len(m.terms))
	for i := range next {
		next[i] = -2
	}

	var out []Segment
	pos := 0
	for pos < n {
		best := matchCandidate{term: -1, index: -1}
		for i, t := range m.terms {
			if next[i] == -1 {
				continue
			}
			if next[i] < pos {
				next[i] = ft.index(t.folded, pos)
				if next[i] == -1 {
					continue
				}
			}
			if best.term == -1 || next[i] < best.index {
				best = matchCandidate{term: i, index: next[i]}
			}
		}

		switch {
		case best.term == -1:
			out = append(out, Text(text[ft.orig[pos]:]))
			pos = n
		case best.index > pos:
			out = append(out, Text(text[ft.orig[pos]:ft.orig[best.index]]))
			pos = best.index
		default:
			t := m.terms[best.term]
			end := pos + t.runes
			out = append(out, TermSegment(text[ft.orig[pos]:ft.orig[end]], t.key, t.definition))
			pos = end
		}
	}
	return out
}

// Annotate validates glossary and splits text into segments. It is
// equivalent to NewMatcher followed by Matcher.Annotate; on an invalid
// glossary no segments are returned.
func Annotate(text string, glossary map[string]string) ([]Segment, error) {
	m, err := NewMatcher(glossary)
	if err != nil {
		return nil, err
	}
	return m.Annotate(text), nil
}
