package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"raggate/internal/engine"
	"raggate/internal/models"
	"raggate/internal/scratch"
)

func memFile(name, content string) File {
	return File{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}

// fakeStorage satisfies Storage in memory and can be told to reject names.
type fakeStorage struct {
	mu       sync.Mutex
	saves    int
	cleanups int
	failFor  map[string]bool
}

func (s *fakeStorage) Save(name string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[name] {
		return "", fmt.Errorf("write scratch file %s: disk full", name)
	}
	s.saves++
	return filepath.Join("/scratch", fmt.Sprintf("%d", s.saves), name), nil
}

func (s *fakeStorage) Cleanup(string) {
	s.mu.Lock()
	s.cleanups++
	s.mu.Unlock()
}

// fakeEngine fails for configured file names and tracks concurrent callers.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	failFor  map[string]bool
	delay    time.Duration
	inFlight int32
	peak     int32
}

func (e *fakeEngine) ProcessDocument(_ context.Context, path string, _ engine.ProcessOptions) error {
	cur := atomic.AddInt32(&e.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&e.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&e.peak, peak, cur) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	atomic.AddInt32(&e.inFlight, -1)

	name := filepath.Base(path)
	e.mu.Lock()
	e.calls = append(e.calls, name)
	e.mu.Unlock()
	if e.failFor[name] {
		return &engine.Error{Message: "parse failed: " + name}
	}
	return nil
}

func TestRunEmptyInput(t *testing.T) {
	p := NewProcessor(&fakeStorage{}, &fakeEngine{})
	report, err := p.Run(context.Background(), nil, models.DefaultProcessingOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Total != 0 || report.Succeeded != 0 || report.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.SuccessRate != 0 {
		t.Fatalf("expected 0 success rate, got %f", report.SuccessRate)
	}
	if !strings.Contains(report.Message, "no files supplied") {
		t.Fatalf("unexpected message: %s", report.Message)
	}
}

func TestRunAllSuccess(t *testing.T) {
	st := &fakeStorage{}
	p := NewProcessor(st, &fakeEngine{})
	files := []File{memFile("a.txt", "a"), memFile("b.txt", "b"), memFile("c.txt", "c")}

	report, err := p.Run(context.Background(), files, models.DefaultProcessingOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Total != 3 || report.Succeeded != 3 || report.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.Succeeded+report.Failed != report.Total {
		t.Fatalf("count invariant broken: %+v", report)
	}
	if report.SuccessRate != 100 {
		t.Fatalf("expected 100%% success rate, got %f", report.SuccessRate)
	}
	if st.cleanups != st.saves {
		t.Fatalf("expected %d cleanups, got %d", st.saves, st.cleanups)
	}
}

func TestRunIsolatesEngineFailure(t *testing.T) {
	st := &fakeStorage{}
	eng := &fakeEngine{failFor: map[string]bool{"b.txt": true}}
	p := NewProcessor(st, eng)
	files := []File{memFile("a.txt", "a"), memFile("b.txt", "b"), memFile("c.txt", "c")}

	report, err := p.Run(context.Background(), files, models.DefaultProcessingOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Total != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.FailedFiles) != 1 || report.FailedFiles[0] != "b.txt" {
		t.Fatalf("unexpected failed files: %v", report.FailedFiles)
	}
	if !strings.Contains(report.Message, "2/3 files successful") {
		t.Fatalf("unexpected message: %s", report.Message)
	}
	if !strings.Contains(report.Message, "parse failed: b.txt") {
		t.Fatalf("expected error detail in message: %s", report.Message)
	}
	if st.cleanups != 3 {
		t.Fatalf("expected cleanup for every saved file, got %d", st.cleanups)
	}
}

func TestRunStorageFailureDoesNotAbortBatch(t *testing.T) {
	st := &fakeStorage{failFor: map[string]bool{"bad.txt": true}}
	eng := &fakeEngine{}
	p := NewProcessor(st, eng)
	files := []File{memFile("a.txt", "a"), memFile("bad.txt", "x"), memFile("c.txt", "c")}

	report, err := p.Run(context.Background(), files, models.DefaultProcessingOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.FailedFiles) != 1 || report.FailedFiles[0] != "bad.txt" {
		t.Fatalf("unexpected failed files: %v", report.FailedFiles)
	}
	for _, call := range eng.calls {
		if call == "bad.txt" {
			t.Fatalf("engine must not be called for a file that never reached storage")
		}
	}
	// Only the two saved files get cleaned up.
	if st.cleanups != 2 {
		t.Fatalf("expected 2 cleanups, got %d", st.cleanups)
	}
}

func TestRunFailedFilesKeepSubmissionOrder(t *testing.T) {
	failing := map[string]bool{"f1.txt": true, "f3.txt": true, "f5.txt": true}
	var files []File
	for i := 0; i < 6; i++ {
		files = append(files, memFile(fmt.Sprintf("f%d.txt", i), "content"))
	}

	for run := 0; run < 5; run++ {
		eng := &fakeEngine{failFor: failing, delay: time.Millisecond}
		p := NewProcessor(&fakeStorage{}, eng)
		opts := models.DefaultProcessingOptions()
		opts.MaxWorkers = 4

		report, err := p.Run(context.Background(), files, opts)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		want := []string{"f1.txt", "f3.txt", "f5.txt"}
		if len(report.FailedFiles) != len(want) {
			t.Fatalf("run %d: unexpected failed files: %v", run, report.FailedFiles)
		}
		for i, name := range want {
			if report.FailedFiles[i] != name {
				t.Fatalf("run %d: failed files out of order: %v", run, report.FailedFiles)
			}
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	eng := &fakeEngine{delay: 20 * time.Millisecond}
	p := NewProcessor(&fakeStorage{}, eng)
	var files []File
	for i := 0; i < 10; i++ {
		files = append(files, memFile(fmt.Sprintf("f%d.txt", i), "content"))
	}
	opts := models.DefaultProcessingOptions()
	opts.MaxWorkers = 3

	if _, err := p.Run(context.Background(), files, opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if peak := atomic.LoadInt32(&eng.peak); peak > 3 {
		t.Fatalf("concurrency bound exceeded: %d in flight", peak)
	}
	if len(eng.calls) != 10 {
		t.Fatalf("expected 10 engine calls, got %d", len(eng.calls))
	}
}

func TestRunLeavesNoScratchFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := scratch.NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	eng := &fakeEngine{failFor: map[string]bool{"b.txt": true}}
	p := NewProcessor(store, eng)
	files := []File{memFile("a.txt", "a"), memFile("b.txt", "b"), memFile("a.txt", "same name")}

	report, err := p.Run(context.Background(), files, models.DefaultProcessingOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Total != 3 {
		t.Fatalf("unexpected total: %+v", report)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch files left behind: %v", entries)
	}
}
