package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/japaniel/termtip/pkg/annotate"
)

var testGlossary = map[string]string{
	"Prompt":             "the input handed to a model",
	"Prompt Engineering": "shaping prompts deliberately",
	"AI Tools":           "software built on models",
	"ChatGPT":            "a chat assistant",
}

func newTestAnnotator(t *testing.T) *Annotator {
	t.Helper()
	m, err := annotate.NewMatcher(testGlossary)
	if err != nil {
		t.Fatal(err)
	}
	return NewAnnotator(m)
}

func TestRunPreservesInputOrder(t *testing.T) {
	a := newTestAnnotator(t)
	a.Workers = 8

	docs := make([]Document, 200)
	for i := range docs {
		docs[i] = Document{
			Name: fmt.Sprintf("doc-%03d", i),
			Body: []byte(fmt.Sprintf("%d: a Prompt for ChatGPT", i)),
		}
	}

	var progress []int
	a.OnProgress = func(current, total int) {
		if total != len(docs) {
			t.Errorf("total = %d, want %d", total, len(docs))
		}
		progress = append(progress, current)
	}

	results, err := a.Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != len(docs) {
		t.Fatalf("got %d results, want %d", len(results), len(docs))
	}
	for i, r := range results {
		if r.Index != i || r.Name != docs[i].Name {
			t.Fatalf("result %d out of order: %+v", i, r)
		}
		if r.Err != nil {
			t.Fatalf("result %d: unexpected error %v", i, r.Err)
		}
		if got := annotate.Join(r.Segments); got != string(docs[i].Body) {
			t.Fatalf("result %d not lossless: %q", i, got)
		}
		if terms := annotate.Terms(r.Segments); len(terms) != 2 || terms[0] != "Prompt" || terms[1] != "ChatGPT" {
			t.Fatalf("result %d terms = %v", i, terms)
		}
	}

	if len(progress) != len(docs) {
		t.Fatalf("got %d progress calls, want %d", len(progress), len(docs))
	}
	for i, p := range progress {
		if p != i+1 {
			t.Fatalf("progress[%d] = %d, want %d", i, p, i+1)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	a := newTestAnnotator(t)
	results, err := a.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestRunNilMatcher(t *testing.T) {
	a := &Annotator{Workers: 1}
	if _, err := a.Run(context.Background(), []Document{{Name: "x"}}); err == nil {
		t.Fatal("expected error for nil matcher")
	}
}

func TestRunExtractsHTML(t *testing.T) {
	body, err := os.ReadFile("../article/testdata/prompt_guide.html")
	if err != nil {
		t.Fatal(err)
	}

	a := newTestAnnotator(t)
	results, err := a.Run(context.Background(), []Document{{Name: "guide.html", Body: body, HTML: true}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	r := results[0]
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if !strings.Contains(r.Title, "Prompt Engineering") {
		t.Errorf("title = %q", r.Title)
	}
	if strings.Contains(annotate.Join(r.Segments), "<p>") {
		t.Error("markup leaked into the annotated text")
	}

	terms := annotate.Terms(r.Segments)
	want := map[string]bool{"Prompt Engineering": true, "AI Tools": true, "ChatGPT": true, "Prompt": true}
	for _, term := range terms {
		delete(want, term)
	}
	if len(want) != 0 {
		t.Errorf("terms %v missing %v", terms, want)
	}
}

func TestRunRecordsPerDocumentErrors(t *testing.T) {
	huge := make([]byte, 10*1024*1024+1)
	docs := []Document{
		{Name: "ok.txt", Body: []byte("ChatGPT")},
		{Name: "huge.html", Body: huge, HTML: true},
		{Name: "also-ok.txt", Body: []byte("AI Tools")},
	}

	a := newTestAnnotator(t)
	results, err := a.Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "huge.html") {
		t.Fatalf("expected error naming the document, got %v", results[1].Err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected errors: %v, %v", results[0].Err, results[2].Err)
	}
	if annotate.Join(results[2].Segments) != "AI Tools" {
		t.Fatalf("third document not annotated: %+v", results[2])
	}
}

func TestRunNormalizesText(t *testing.T) {
	a := newTestAnnotator(t)
	results, err := a.Run(context.Background(), []Document{{Name: "crlf", Body: []byte("Prompt\r\nnext")}})
	if err != nil {
		t.Fatal(err)
	}
	if got := annotate.Join(results[0].Segments); got != "Prompt\nnext" {
		t.Fatalf("got %q", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a := newTestAnnotator(t)
	a.Workers = 1

	docs := make([]Document, 500)
	for i := range docs {
		docs[i] = Document{Name: fmt.Sprint(i), Body: []byte("Prompt")}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.OnProgress = func(current, total int) {
		if current == 1 {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := a.Run(ctx, docs)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestRunHandlesSubmitError(t *testing.T) {
	a := newTestAnnotator(t)
	a.PoolFactory = func(workers, queue int) WorkerPoolInterface { return &failingPool{} }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := a.Run(ctx, []Document{{Name: "a", Body: []byte("Prompt")}})
	if err == nil || !strings.Contains(err.Error(), "submit failed") {
		t.Fatalf("expected submit error, got %v", err)
	}
}

func TestRunUsesMemo(t *testing.T) {
	a := newTestAnnotator(t)
	a.Memo = NewMemo(8)
	a.GlossaryVersion = "v1"

	docs := []Document{
		{Name: "a", Body: []byte("same Prompt")},
		{Name: "b", Body: []byte("same Prompt")},
		{Name: "c", Body: []byte("other ChatGPT")},
	}
	a.Workers = 1
	if _, err := a.Run(context.Background(), docs); err != nil {
		t.Fatal(err)
	}

	hits, misses := a.Memo.Stats()
	if hits != 1 || misses != 2 {
		t.Fatalf("hits=%d misses=%d, want 1 and 2", hits, misses)
	}
	if a.Memo.Len() != 2 {
		t.Fatalf("memo holds %d entries, want 2", a.Memo.Len())
	}
}
