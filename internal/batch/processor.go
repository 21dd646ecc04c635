// Package batch drives multi-document processing runs: each file is saved
// to scratch storage, handed to the engine, and cleaned up again, with
// failures isolated per file and summarized in a single report.
package batch

import (
	"context"
	"fmt"
	"io"
	"sync"

	"raggate/internal/engine"
	"raggate/internal/models"

	"github.com/panjf2000/ants/v2"
)

// File is one uploaded document. Open returns a fresh reader so files can
// be consumed concurrently.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// DocumentProcessor is the slice of the engine boundary the orchestrator
// needs.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, path string, opts engine.ProcessOptions) error
}

// Storage is the scratch-storage contract: every successful Save is paired
// with exactly one Cleanup, on every exit path.
type Storage interface {
	Save(name string, r io.Reader) (string, error)
	Cleanup(path string)
}

// Processor runs batches against a shared engine and scratch store.
type Processor struct {
	storage Storage
	engine  DocumentProcessor
}

// NewProcessor wires the orchestrator to its collaborators.
func NewProcessor(storage Storage, eng DocumentProcessor) *Processor {
	return &Processor{storage: storage, engine: eng}
}

// Run processes the files under a single ProcessingOptions and returns the
// aggregate report. A per-file failure never aborts the batch; Run itself
// fails only when the run cannot start at all.
func (p *Processor) Run(ctx context.Context, files []File, opts models.ProcessingOptions) (*Report, error) {
	if len(files) == 0 {
		return Build(nil), nil
	}

	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	// Indexed by submission order so the report is deterministic even
	// though completion order is not.
	outcomes := make([]Outcome, len(files))
	var wg sync.WaitGroup
	for i := range files {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = p.processOne(ctx, files[i], opts)
		}); err != nil {
			wg.Done()
			outcomes[i] = Outcome{File: files[i].Name, ErrDetail: fmt.Sprintf("submit to worker pool: %v", err)}
		}
	}
	wg.Wait()

	return Build(outcomes), nil
}

// processOne runs the save -> process -> cleanup sequence for one file.
// Cleanup is unconditional once the save succeeded.
func (p *Processor) processOne(ctx context.Context, f File, opts models.ProcessingOptions) Outcome {
	src, err := f.Open()
	if err != nil {
		return Outcome{File: f.Name, ErrDetail: fmt.Sprintf("open upload: %v", err)}
	}
	path, err := p.storage.Save(f.Name, src)
	src.Close()
	if err != nil {
		return Outcome{File: f.Name, ErrDetail: err.Error()}
	}
	defer p.storage.Cleanup(path)

	if err := p.engine.ProcessDocument(ctx, path, engine.ProcessOptions{
		ParseMethod:  opts.ParseMethod,
		DisplayStats: opts.DisplayStats,
	}); err != nil {
		return Outcome{File: f.Name, ErrDetail: err.Error()}
	}
	return Outcome{File: f.Name, OK: true}
}
