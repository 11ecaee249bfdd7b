package glossary

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyGlossaryFile is returned when a glossary source holds no JSON at all.
var ErrEmptyGlossaryFile = errors.New("glossary file is empty")

// Entry is one authored glossary item.
type Entry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Glossary maps a term to its definition. Keys must be distinct under
// annotate.Fold; annotate rejects glossaries where they are not.
type Glossary map[string]string

// Load reads a glossary file. See Decode for the accepted layouts.
func Load(path string) (Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load glossary %s: %w", path, err)
	}
	return g, nil
}

// Decode parses a glossary in one of three layouts:
//
//	{"AI": "artificial intelligence", ...}
//	{"terms": [{"term": "AI", "definition": "..."}, ...]}
//	[{"term": "AI", "definition": "..."}, ...]
func Decode(r io.Reader) (Glossary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyGlossaryFile
	}

	if data[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse glossary array: %w", err)
		}
		return FromEntries(entries)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse glossary object: %w", err)
	}

	// A lone "terms" array is the wrapper layout; a "terms" key mapping to a
	// string is an ordinary flat entry.
	if raw, ok := fields["terms"]; ok && len(fields) == 1 {
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			var entries []Entry
			if err := json.Unmarshal(trimmed, &entries); err != nil {
				return nil, fmt.Errorf("parse glossary terms: %w", err)
			}
			return FromEntries(entries)
		}
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(fields))
	for _, k := range names {
		var def string
		if err := json.Unmarshal(fields[k], &def); err != nil {
			return nil, fmt.Errorf("definition for %q must be a string: %w", k, err)
		}
		entries = append(entries, Entry{Term: k, Definition: def})
	}
	return FromEntries(entries)
}

// FromEntries builds a glossary, trimming surrounding whitespace from terms
// and normalizing them to NFC. Two entries that normalize to the same term
// are rejected with a *annotate.GlossaryKeyError. Empty terms are kept so
// that validation can reject them.
func FromEntries(entries []Entry) (Glossary, error) {
	g := make(Glossary, len(entries))
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		term := NormalizeTerm(e.Term)
		if prev, dup := seen[term]; dup && term != "" {
			return nil, &annotate.GlossaryKeyError{
				Key:    e.Term,
				Other:  prev,
				Reason: "same term after trimming and NFC normalization",
			}
		}
		seen[term] = e.Term
		g[term] = e.Definition
	}
	return g, nil
}

// NormalizeTerm trims and NFC-normalizes a term.
func NormalizeTerm(term string) string {
	return norm.NFC.String(strings.TrimSpace(term))
}

// Keys returns the terms in sorted order.
func (g Glossary) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the glossary as entries sorted by term.
func (g Glossary) Entries() []Entry {
	out := make([]Entry, 0, len(g))
	for _, k := range g.Keys() {
		out = append(out, Entry{Term: k, Definition: g[k]})
	}
	return out
}

// Lookup finds the entry whose term equals term under case folding.
func (g Glossary) Lookup(term string) (Entry, bool) {
	if def, ok := g[term]; ok {
		return Entry{Term: term, Definition: def}, true
	}
	f := annotate.Fold(term)
	for k, def := range g {
		if annotate.Fold(k) == f {
			return Entry{Term: k, Definition: def}, true
		}
	}
	return Entry{}, false
}

// Version is a content digest of the glossary, independent of map order.
// Callers that memoize annotation results key them by text and Version.
func (g Glossary) Version() string {
	h := blake3.New()
	for _, k := range g.Keys() {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(g[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Merge returns a new glossary holding base overlaid with overlay. An overlay
// term replaces every base term equal to it under case folding. Overlay terms
// are applied in Keys order, so of two overlay terms equal under folding the
// later one in that order survives.
func Merge(base, overlay Glossary) Glossary {
	out := make(Glossary, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for _, k := range overlay.Keys() {
		v := overlay[k]
		f := annotate.Fold(k)
		for existing := range out {
			if existing != k && annotate.Fold(existing) == f {
				delete(out, existing)
			}
		}
		out[k] = v
	}
	return out
}
