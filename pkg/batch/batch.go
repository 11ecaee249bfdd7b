// Package batch annotates many documents concurrently against one glossary.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/japaniel/termtip/pkg/article"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Document is one input to a batch run.
type Document struct {
	Name string
	Body []byte
	// HTML marks Body as an HTML page whose readable text is extracted
	// before annotation.
	HTML bool
}

// Result is the annotation of one Document. Err is set when the document
// could not be read; the rest of the batch still runs.
type Result struct {
	Index    int
	Name     string
	Title    string
	Segments []annotate.Segment
	Err      error
}

// Annotator runs a Matcher over many documents.
type Annotator struct {
	Matcher *annotate.Matcher
	Workers int
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called with the number of finished documents, in input order.
	OnProgress func(current, total int)
	// Memo, when set, caches results under GlossaryVersion.
	Memo            *Memo
	GlossaryVersion string

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewAnnotator creates an Annotator with the default worker count.
func NewAnnotator(m *annotate.Matcher) *Annotator {
	return &Annotator{
		Matcher: m,
		Workers: 4,
	}
}

// Run annotates docs and returns one Result per document in input order. It
// returns early with ctx's error when ctx is canceled; results for documents
// that did not finish are left zero apart from Index and Name.
func (a *Annotator) Run(ctx context.Context, docs []Document) ([]Result, error) {
	if a.Matcher == nil {
		return nil, errors.New("batch: nil matcher")
	}

	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = Result{Index: i, Name: d.Name}
	}
	if len(docs) == 0 {
		return results, nil
	}

	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}

	var wp WorkerPoolInterface
	if a.PoolFactory != nil {
		wp = a.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	resultCh := make(chan Result, workers*2)
	doneCh := make(chan int, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp.Start(ctx)

	// Consumer: place results and report progress for the contiguous prefix.
	go func() {
		finished := make(map[int]bool)
		next := 0
		for res := range resultCh {
			results[res.Index] = res
			finished[res.Index] = true
			for finished[next] {
				delete(finished, next)
				next++
				if a.OnProgress != nil {
					a.OnProgress(next, len(docs))
				}
			}
		}
		doneCh <- next
	}()

	var submitErr error
Loop:
	for i := range docs {
		idx := i
		doc := docs[i]

		job := func(ctx context.Context) {
			res := a.process(idx, doc)
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, ctx.Err()) || err == ErrPoolClosed {
				break Loop
			}
			submitErr = fmt.Errorf("submit %s: %w", doc.Name, err)
			cancel()
			break Loop
		}
	}

	// All workers have exited once Close returns, so no job can still send.
	wp.Close()
	close(resultCh)
	completed := <-doneCh

	if a.Logger != nil {
		a.Logger.Printf("annotated %d of %d documents", completed, len(docs))
	}

	if submitErr != nil {
		return results, submitErr
	}
	if completed < len(docs) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		return results, fmt.Errorf("batch: %d of %d documents finished", completed, len(docs))
	}
	return results, nil
}

func (a *Annotator) process(index int, doc Document) Result {
	res := Result{Index: index, Name: doc.Name}

	text := string(doc.Body)
	if doc.HTML {
		art, err := article.FromHTML(bytes.NewReader(doc.Body), nil)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", doc.Name, err)
			if a.Logger != nil {
				a.Logger.Printf("Warning: %v", res.Err)
			}
			return res
		}
		res.Title = art.Title
		text = art.Text
	} else {
		text = article.Normalize(text)
	}

	if a.Memo != nil {
		res.Segments = a.Memo.Annotate(a.Matcher, a.GlossaryVersion, text)
	} else {
		res.Segments = a.Matcher.Annotate(text)
	}
	return res
}
