package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSuggester(t *testing.T) *Suggester {
	t.Helper()
	s, err := NewSuggester()
	require.NoError(t, err)
	return s
}

func TestTokenize_PrimaryPOS(t *testing.T) {
	s := newSuggester(t)

	tokens := s.Tokenize("猫が走る。")
	require.NotEmpty(t, tokens)
	assert.Equal(t, "猫", tokens[0].Surface)
	assert.Equal(t, "名詞", tokens[0].PrimaryPOS)
	assert.Equal(t, tokens[0].PartsOfSpeech[0], tokens[0].PrimaryPOS)
}

func TestSuggest_CountsNounsAndSkipsGlossary(t *testing.T) {
	s := newSuggester(t)
	text := "猫は犬が好きです。犬は猫が好きです。犬と遊ぶ。"

	got := s.Suggest(text, nil, 0)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "犬", got[0].Term)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, "いぬ", got[0].Reading)
	assert.Equal(t, "猫", got[1].Term)
	assert.Equal(t, 2, got[1].Count)

	filtered := s.Suggest(text, map[string]string{"犬": "dog"}, 0)
	for _, c := range filtered {
		assert.NotEqual(t, "犬", c.Term)
	}
}

func TestSuggest_Limit(t *testing.T) {
	s := newSuggester(t)
	got := s.Suggest("猫は犬が好きです。犬は猫が好きです。", nil, 1)
	assert.Len(t, got, 1)
}

func TestSuggest_SkipsASCIIAndNumbers(t *testing.T) {
	s := newSuggester(t)
	for _, c := range s.Suggest("Go は 2024 年 に 人気 でした。", nil, 0) {
		assert.NotEqual(t, "Go", c.Term)
		assert.NotEqual(t, "2024", c.Term)
	}
}

func TestToHiragana(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"ア", "あ"},
		{"ガ", "が"},
		{"パ", "ぱ"},
		{"ン", "ん"},
		{"ー", "ー"},
		{"abc", "abc"},
		{"あいう", "あいう"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, ToHiragana(tt.in), "ToHiragana(%q)", tt.in)
	}
}
