package worker

import (
	"context"
	"errors"
	"io"

	"github.com/ppiankov/lexigraph/internal/aggregate"
	"github.com/ppiankov/lexigraph/internal/archive"
)

// EntrySource yields archive entries until io.EOF
type EntrySource interface {
	Next() (*archive.Entry, error)
}

// DocumentProcessor turns one archive entry into a partial aggregate
type DocumentProcessor interface {
	ProcessEntry(ctx context.Context, entry *archive.Entry) *DocumentResult
}

// DocumentJob processes a single archive entry
type DocumentJob struct {
	Entry     *archive.Entry
	Processor DocumentProcessor
}

// Execute executes the document job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	return j.Processor.ProcessEntry(ctx, j.Entry)
}

// DocumentResult is the partial aggregate of one document
type DocumentResult struct {
	Name    string
	Title   string
	Author  string
	Partial *aggregate.Accumulator
	Tokens  int // kept tokens
	Skipped int // dropped tokens
	Error   error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// DocumentBatch processes archive entries concurrently
type DocumentBatch struct {
	processor   DocumentProcessor
	concurrency int
}

// NewDocumentBatch creates a new document batch
func NewDocumentBatch(processor DocumentProcessor, concurrency int) *DocumentBatch {
	return &DocumentBatch{
		processor:   processor,
		concurrency: concurrency,
	}
}

// Run feeds every entry of src through the pool and hands each result to
// collect in completion order. collect runs on the calling goroutine only.
// The returned count is the number of entries submitted; a non-EOF error
// from src stops submission and is returned after in-flight jobs finish.
func (b *DocumentBatch) Run(ctx context.Context, src EntrySource, collect func(*DocumentResult)) (int, error) {
	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	var (
		submitted int
		srcErr    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pool.Close()

		for {
			entry, err := src.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				srcErr = err
				return
			}
			if !pool.Submit(&DocumentJob{Entry: entry, Processor: b.processor}) {
				srcErr = ctx.Err()
				return
			}
			submitted++
		}
	}()

	for result := range pool.Results() {
		collect(result.(*DocumentResult))
	}
	<-done

	return submitted, srcErr
}
