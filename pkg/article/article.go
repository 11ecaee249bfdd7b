package article

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/text/unicode/norm"
)

// maxHTMLSize bounds how much HTML is read from a single input.
const maxHTMLSize = 10 * 1024 * 1024

// Article is the readable body of a page plus its metadata.
type Article struct {
	Title    string
	Byline   string
	SiteName string
	Text     string
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// StripRuby removes ruby text (<rt>) and ruby parentheses (<rp>) so that
// furigana is not extracted inline with the base text, where it would split
// glossary terms ("漢字" becoming "漢字かんじ").
func StripRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}

// FromHTML extracts the readable article from an HTML document. pageURL is
// used only to resolve relative links and may be nil.
func FromHTML(r io.Reader, pageURL *url.URL) (Article, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxHTMLSize+1))
	if err != nil {
		return Article{}, fmt.Errorf("read html: %w", err)
	}
	if len(body) > maxHTMLSize {
		return Article{}, fmt.Errorf("html exceeds maximum size of %d bytes", maxHTMLSize)
	}

	if pageURL == nil {
		pageURL = &url.URL{Scheme: "file", Path: "/"}
	}
	parsed, err := readability.FromReader(bytes.NewReader(StripRuby(body)), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}

	return Article{
		Title:    strings.TrimSpace(parsed.Title),
		Byline:   strings.TrimSpace(parsed.Byline),
		SiteName: strings.TrimSpace(parsed.SiteName),
		Text:     Normalize(parsed.TextContent),
	}, nil
}

// Normalize converts text to NFC and LF line endings so that it compares
// cleanly against NFC glossary terms.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return norm.NFC.String(text)
}

// Paragraphs splits text on blank lines, trimming each paragraph's outer
// whitespace and dropping empty ones.
func Paragraphs(text string) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if p := strings.TrimSpace(current.String()); p != "" {
			out = append(out, p)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()
	return out
}
