// Package suggest proposes glossary candidates from Japanese article text.
//
// Authors feed it an article and the current glossary; it returns the nouns
// that appear most often and are not yet covered by a glossary term.
package suggest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/japaniel/termtip/pkg/annotate"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // The text as it appears (e.g. "行っ")
	BaseForm      string   // The dictionary form (e.g. "行く")
	Reading       string   // The pronunciation (katakana, e.g. "イッ")
	PartsOfSpeech []string // Kagome IPA POS labels
	PrimaryPOS    string
}

// Candidate is a proposed glossary term.
type Candidate struct {
	Term    string `json:"term"`
	Reading string `json:"reading,omitempty"`
	Count   int    `json:"count"`
}

// Suggester wraps a kagome tokenizer. It is safe for concurrent use.
type Suggester struct {
	t *tokenizer.Tokenizer
}

// NewSuggester builds a tokenizer over the IPA dictionary.
func NewSuggester() (*Suggester, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Suggester{t: t}, nil
}

// Tokenize breaks text into tokens with readings and base forms.
func (s *Suggester) Tokenize(text string) []Token {
	var result []Token
	for _, token := range s.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0-3 POS levels, 4-5 conjugation, 6 base form, 7 reading.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}
	return result
}

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// Suggest returns up to limit nouns from text, most frequent first, skipping
// anything a glossary term already covers under case folding. limit <= 0
// returns every candidate.
func (s *Suggester) Suggest(text string, glossary map[string]string, limit int) []Candidate {
	covered := make(map[string]bool, len(glossary))
	for k := range glossary {
		covered[annotate.Fold(k)] = true
	}

	counts := make(map[string]int)
	readings := make(map[string]string)
	var order []string

	for _, t := range s.Tokenize(text) {
		if t.PrimaryPOS != "名詞" {
			continue
		}
		if len(t.PartsOfSpeech) > 1 && (t.PartsOfSpeech[1] == "数" || t.PartsOfSpeech[1] == "代名詞" || t.PartsOfSpeech[1] == "非自立") {
			continue
		}
		if asciiOnly.MatchString(t.Surface) {
			continue
		}

		word := t.Surface
		if t.BaseForm != "" && t.BaseForm != "*" {
			word = t.BaseForm
		}
		if covered[annotate.Fold(word)] {
			continue
		}

		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
		if readings[word] == "" {
			readings[word] = ToHiragana(t.Reading)
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, w := range order {
		out = append(out, Candidate{Term: w, Reading: readings[w], Count: counts[w]})
	}
	// Stable keeps first appearance order among equal counts.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
