package annotate

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotate_EmptyGlossary(t *testing.T) {
	segs, err := Annotate("hello world", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, []Segment{Text("hello world")}, segs)
}

func TestAnnotate_EmptyText(t *testing.T) {
	segs, err := Annotate("", map[string]string{"x": "y"})
	require.NoError(t, err)
	assert.Empty(t, segs)

	segs, err = Annotate("", nil)
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestAnnotate_LongestTermTiebreak(t *testing.T) {
	glossary := map[string]string{"AI": "artificial intelligence", "AI Tools": "software built on AI"}

	segs, err := Annotate("Best AI Tools today", glossary)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		Text("Best "),
		TermSegment("AI Tools", "AI Tools", "software built on AI"),
		Text(" today"),
	}, segs)
}

func TestAnnotate_LeftmostEarliest(t *testing.T) {
	glossary := map[string]string{"Tools": "things", "AI": "artificial intelligence"}

	segs, err := Annotate("AI and Tools", glossary)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		TermSegment("AI", "AI", "artificial intelligence"),
		Text(" and "),
		TermSegment("Tools", "Tools", "things"),
	}, segs)
}

// A short term early in the text must not be swallowed into plain text just
// because a longer term, which sorts first by length, occurs later.
func TestAnnotate_ShortTermBeforeLongerTerm(t *testing.T) {
	glossary := map[string]string{
		"Prompt Engineering": "crafting model inputs",
		"LLM":                "large language model",
	}

	segs, err := Annotate("An LLM rewards careful Prompt Engineering.", glossary)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		Text("An "),
		TermSegment("LLM", "LLM", "large language model"),
		Text(" rewards careful "),
		TermSegment("Prompt Engineering", "Prompt Engineering", "crafting model inputs"),
		Text("."),
	}, segs)
}

func TestAnnotate_CaseInsensitivePreservesCasing(t *testing.T) {
	segs, err := Annotate("Use ChatGPT daily", map[string]string{"chatgpt": "a chat assistant"})
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, KindTerm, segs[1].Kind)
	assert.Equal(t, "ChatGPT", segs[1].MatchedText)
	assert.Equal(t, "chatgpt", segs[1].Term)
	assert.Equal(t, "a chat assistant", segs[1].Definition)
}

func TestAnnotate_MatchesInsideWords(t *testing.T) {
	segs, err := Annotate("Prompting", map[string]string{"Prompt": "an input"})
	require.NoError(t, err)
	assert.Equal(t, []Segment{TermSegment("Prompt", "Prompt", "an input"), Text("ing")}, segs)
}

func TestAnnotate_AdjacentAndRepeatedTerms(t *testing.T) {
	glossary := map[string]string{"ab": "1", "c": "2"}

	segs, err := Annotate("abcABc", glossary)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		TermSegment("ab", "ab", "1"),
		TermSegment("c", "c", "2"),
		TermSegment("AB", "ab", "1"),
		TermSegment("c", "c", "2"),
	}, segs)
}

func TestAnnotate_OverlapResolvedGreedily(t *testing.T) {
	// "abc" wins at 0; "cd" would overlap it and is not reconsidered inside the match.
	segs, err := Annotate("abcd", map[string]string{"abc": "x", "cd": "y"})
	require.NoError(t, err)
	assert.Equal(t, []Segment{TermSegment("abc", "abc", "x"), Text("d")}, segs)
}

func TestAnnotate_UnicodeFolding(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		term    string
		matched string
	}{
		{"latin accents", "Bonjour \u00c9MILE!", "\u00e9mile", "\u00c9MILE"},
		{"kelvin sign", "5 \u212am away", "km", "\u212am"},
		{"sharp s capital", "STRA\u1e9eE", "stra\u00dfe", "STRA\u1e9eE"},
		{"greek final sigma", "\u039b\u038c\u0393\u039f\u03a3", "\u03bb\u03cc\u03b3\u03bf\u03c2", "\u039b\u038c\u0393\u039f\u03a3"},
		{"cjk unchanged", "今日は晴れ", "晴れ", "晴れ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := Annotate(tt.text, map[string]string{tt.term: "d"})
			require.NoError(t, err)
			assert.Equal(t, tt.text, Join(segs))

			var matched []string
			for _, s := range segs {
				if s.IsTerm() {
					matched = append(matched, s.MatchedText)
				}
			}
			assert.Equal(t, []string{tt.matched}, matched)
		})
	}
}

func TestAnnotate_InvalidGlossaryKey(t *testing.T) {
	tests := []struct {
		name     string
		glossary map[string]string
	}{
		{"empty key", map[string]string{"": "nothing", "AI": "x"}},
		{"duplicate under fold", map[string]string{"ChatGPT": "a", "chatgpt": "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := Annotate("ChatGPT and AI", tt.glossary)
			require.Error(t, err)
			assert.Nil(t, segs)
			assert.True(t, errors.Is(err, ErrInvalidGlossaryKey))

			var keyErr *GlossaryKeyError
			require.True(t, errors.As(err, &keyErr))
			assert.NotEmpty(t, keyErr.Reason)
		})
	}
}

func TestAnnotate_DuplicateErrorIsDeterministic(t *testing.T) {
	g := map[string]string{"ChatGPT": "a", "chatgpt": "b", "CHATGPT": "c"}
	for i := 0; i < 10; i++ {
		_, err := Annotate("x", g)
		var keyErr *GlossaryKeyError
		require.True(t, errors.As(err, &keyErr))
		assert.Equal(t, "ChatGPT", keyErr.Key)
		assert.Equal(t, "CHATGPT", keyErr.Other)
	}
}

func TestMatcher_ReusableAcrossTexts(t *testing.T) {
	m, err := NewMatcher(map[string]string{"Go": "a language"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	assert.Equal(t, []Segment{TermSegment("go", "Go", "a language")}, m.Annotate("go"))
	assert.Equal(t, []Segment{Text("Rust")}, m.Annotate("Rust"))
}

func TestTerms_FirstAppearanceOrder(t *testing.T) {
	segs, err := Annotate("b a b c", map[string]string{"a": "", "b": "", "c": ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, Terms(segs))
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindText, KindTerm} {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got Kind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("link")))
}

// randomFixture builds text and a fold-unique glossary from a tiny alphabet so
// that matches, overlaps and case differences are frequent.
func randomFixture(rng *rand.Rand) (string, map[string]string) {
	const alphabet = "aAbBcC ñÑ"
	letters := []rune(alphabet)
	word := func(min, max int) string {
		n := min + rng.Intn(max-min+1)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(letters[rng.Intn(len(letters))])
		}
		return b.String()
	}

	text := word(0, 40)
	glossary := make(map[string]string)
	folded := make(map[string]bool)
	for i := rng.Intn(6); i > 0; i-- {
		k := word(1, 4)
		if folded[Fold(k)] {
			continue
		}
		folded[Fold(k)] = true
		glossary[k] = "def " + k
	}
	return text, glossary
}

// referenceAnnotate tries every term at every rune position. The first
// position with a match wins, then the term with the most runes, then the
// smaller key.
func referenceAnnotate(text string, glossary map[string]string) []Segment {
	keys := make([]string, 0, len(glossary))
	for k := range glossary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	src := []rune(text)
	var segs []Segment
	textStart := 0
	for pos := 0; pos < len(src); {
		var best []rune
		bestKey := ""
		for _, k := range keys {
			kr := []rune(k)
			if len(kr) > len(src)-pos || !runesEqualFold(src[pos:pos+len(kr)], kr) {
				continue
			}
			if len(kr) > len(best) {
				best, bestKey = kr, k
			}
		}
		if best == nil {
			pos++
			continue
		}
		if pos > textStart {
			segs = append(segs, Text(string(src[textStart:pos])))
		}
		end := pos + len(best)
		segs = append(segs, TermSegment(string(src[pos:end]), bestKey, glossary[bestKey]))
		pos, textStart = end, end
	}
	if textStart < len(src) {
		segs = append(segs, Text(string(src[textStart:])))
	}
	return segs
}

// runesEqualFold compares rune by rune, walking each rune's SimpleFold orbit.
func runesEqualFold(a, b []rune) bool {
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		same := false
		for r := unicode.SimpleFold(a[i]); r != a[i]; r = unicode.SimpleFold(r) {
			if r == b[i] {
				same = true
				break
			}
		}
		if !same {
			return false
		}
	}
	return true
}

func TestAnnotate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 2000; trial++ {
		text, glossary := randomFixture(rng)
		segs, err := Annotate(text, glossary)
		require.NoError(t, err, "trial %d", trial)
		require.Equal(t, referenceAnnotate(text, glossary), segs, "trial %d: %q against %v", trial, text, glossary)

		// Losslessness.
		assert.Equal(t, text, Join(segs), "trial %d: join must reproduce input", trial)

		for i, s := range segs {
			// No empty segments, so consecutive segments partition the input.
			assert.NotEmpty(t, s.Raw(), "trial %d: segment %d is empty", trial, i)

			if s.IsTerm() {
				def, ok := glossary[s.Term]
				require.True(t, ok, "trial %d: unknown term %q", trial, s.Term)
				assert.Equal(t, def, s.Definition)
				assert.Equal(t, Fold(s.Term), Fold(s.MatchedText))
				continue
			}

			// Text segments never hold a reachable term.
			again, err := Annotate(s.Value, glossary)
			require.NoError(t, err)
			assert.Equal(t, []Segment{s}, again, "trial %d: text segment %q hides a term", trial, s.Value)

			if i > 0 {
				assert.True(t, segs[i-1].IsTerm(), "trial %d: adjacent text segments", trial)
			}
		}
	}
}
