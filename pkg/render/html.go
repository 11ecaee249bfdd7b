// Package render turns annotated segments into HTML, Markdown-derived HTML
// and styled terminal text.
package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/yuin/goldmark/util"
)

// Namespace seeds trigger ids so that the same document renders the same ids.
var Namespace = uuid.MustParse("6f1d7c4e-2b8a-4f5e-9a53-0c6e1b7d2a90")

// HTMLOptions controls the markup emitted for term segments.
type HTMLOptions struct {
	// Class is the trigger's CSS class; the panel gets Class + "-panel".
	Class string
	// Threshold, when positive, is exposed to client scripts as
	// data-threshold on the trigger.
	Threshold float64
	// Namespace overrides the package Namespace for id generation.
	Namespace uuid.UUID
}

func (o HTMLOptions) withDefaults() HTMLOptions {
	if o.Class == "" {
		o.Class = "termtip"
	}
	if o.Namespace == uuid.Nil {
		o.Namespace = Namespace
	}
	return o
}

// HTMLWriter writes segments as HTML. Term segments become a focusable
// trigger span followed by a hidden tooltip panel linked through
// aria-describedby. Ids are derived from the term and its occurrence count,
// so one HTMLWriter must be used per document.
type HTMLWriter struct {
	opts HTMLOptions
	seen map[string]int
}

// NewHTMLWriter returns a writer with fresh occurrence counters.
func NewHTMLWriter(opts HTMLOptions) *HTMLWriter {
	return &HTMLWriter{opts: opts.withDefaults(), seen: make(map[string]int)}
}

// TriggerID returns the id the next occurrence of term will receive.
func (h *HTMLWriter) TriggerID(term string) string {
	return h.id(term, h.seen[term])
}

func (h *HTMLWriter) id(term string, n int) string {
	name := term + "\x00" + strconv.Itoa(n)
	return "tip-" + uuid.NewSHA1(h.opts.Namespace, []byte(name)).String()
}

// WriteSegments writes segments to w.
func (h *HTMLWriter) WriteSegments(w io.Writer, segments []annotate.Segment) error {
	for _, s := range segments {
		var err error
		if s.IsTerm() {
			err = h.writeTerm(w, s)
		} else {
			_, err = w.Write(util.EscapeHTML([]byte(s.Value)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *HTMLWriter) writeTerm(w io.Writer, s annotate.Segment) error {
	id := h.id(s.Term, h.seen[s.Term])
	h.seen[s.Term]++

	esc := func(v string) []byte { return util.EscapeHTML([]byte(v)) }

	threshold := ""
	if h.opts.Threshold > 0 {
		threshold = fmt.Sprintf(` data-threshold="%s"`, strconv.FormatFloat(h.opts.Threshold, 'f', -1, 64))
	}
	_, err := fmt.Fprintf(w,
		`<span class="%s" tabindex="0" data-term="%s" aria-describedby="%s"%s>%s</span>`+
			`<span class="%s-panel" role="tooltip" id="%s" hidden>%s</span>`,
		esc(h.opts.Class), esc(s.Term), id, threshold, esc(s.MatchedText),
		esc(h.opts.Class), id, esc(s.Definition),
	)
	return err
}

// HTML writes one document's segments to w.
func HTML(w io.Writer, segments []annotate.Segment, opts HTMLOptions) error {
	return NewHTMLWriter(opts).WriteSegments(w, segments)
}
