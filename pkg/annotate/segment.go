package annotate

import (
	"fmt"
	"strings"
)

// Kind tags the variant carried by a Segment.
type Kind uint8

const (
	// KindText is a run of input text with no glossary term inside it.
	KindText Kind = iota
	// KindTerm is one occurrence of a glossary term.
	KindTerm
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTerm:
		return "term"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText encodes the kind as "text" or "term".
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindText, KindTerm:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown segment kind %d", uint8(k))
}

// UnmarshalText decodes "text" or "term".
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text":
		*k = KindText
	case "term":
		*k = KindTerm
	default:
		return fmt.Errorf("unknown segment kind %q", b)
	}
	return nil
}

// Segment is one contiguous piece of annotated output.
//
// For KindText only Value is set. For KindTerm, MatchedText holds the
// substring exactly as it appeared in the input, while Term and Definition
// come from the glossary entry that matched.
type Segment struct {
	Kind        Kind   `json:"kind"`
	Value       string `json:"value,omitempty"`
	MatchedText string `json:"matchedText,omitempty"`
	Term        string `json:"term,omitempty"`
	Definition  string `json:"definition,omitempty"`
}

// Text builds a plain text segment.
func Text(value string) Segment {
	return Segment{Kind: KindText, Value: value}
}

// TermSegment builds an annotated segment.
func TermSegment(matched, term, definition string) Segment {
	return Segment{Kind: KindTerm, MatchedText: matched, Term: term, Definition: definition}
}

// IsTerm reports whether the segment is an annotated term occurrence.
func (s Segment) IsTerm() bool { return s.Kind == KindTerm }

// Raw returns the input substring the segment covers.
func (s Segment) Raw() string {
	if s.Kind == KindTerm {
		return s.MatchedText
	}
	return s.Value
}

// Join concatenates the raw substrings of segments in order. For any output
// of Annotate this reproduces the original input.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Raw())
	}
	return b.String()
}

// Terms returns the distinct glossary terms referenced by segments, in order
// of first appearance.
func Terms(segments []Segment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range segments {
		if s.Kind != KindTerm || seen[s.Term] {
			continue
		}
		seen[s.Term] = true
		out = append(out, s.Term)
	}
	return out
}
