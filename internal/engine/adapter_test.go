package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"raggate/internal/models"
)

// scriptedEngine returns or panics according to its fields.
type scriptedEngine struct {
	processErr error
	queryErr   error
	answer     string
	panicWith  any
}

func (e *scriptedEngine) ProcessDocument(context.Context, string, ProcessOptions) error {
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	return e.processErr
}

func (e *scriptedEngine) Query(context.Context, string, string) (string, error) {
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	return e.answer, e.queryErr
}

func (e *scriptedEngine) QueryMultimodal(context.Context, string, string, []models.MultimodalItem) (string, error) {
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	return e.answer, e.queryErr
}

func (e *scriptedEngine) InsertContent(context.Context, []models.ContentItem, string, string, InsertOptions) error {
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	return e.processErr
}

func TestAdapterPassesResultsThrough(t *testing.T) {
	a := NewAdapter(&scriptedEngine{answer: "42"})
	if err := a.ProcessDocument(context.Background(), "/tmp/doc.pdf", ProcessOptions{}); err != nil {
		t.Fatalf("process: %v", err)
	}
	answer, err := a.Query(context.Background(), "q", "hybrid")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if answer != "42" {
		t.Fatalf("unexpected answer: %s", answer)
	}
}

func TestAdapterWrapsPlainErrors(t *testing.T) {
	a := NewAdapter(&scriptedEngine{processErr: fmt.Errorf("parse document: bad page")})
	err := a.ProcessDocument(context.Background(), "/tmp/doc.pdf", ProcessOptions{})
	var engErr *Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if engErr.Message != "parse document: bad page" {
		t.Fatalf("message lost in wrapping: %s", engErr.Message)
	}
}

func TestAdapterKeepsEngineErrors(t *testing.T) {
	orig := &Error{Message: "index unavailable"}
	a := NewAdapter(&scriptedEngine{queryErr: orig})
	_, err := a.Query(context.Background(), "q", "hybrid")
	var engErr *Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if engErr != orig {
		t.Fatal("existing engine error was re-wrapped")
	}
}

func TestAdapterRecoversPanics(t *testing.T) {
	a := NewAdapter(&scriptedEngine{panicWith: "index out of range"})

	err := a.ProcessDocument(context.Background(), "/tmp/doc.pdf", ProcessOptions{})
	var engErr *Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected *Error from panic, got %T (%v)", err, err)
	}
	if !strings.Contains(engErr.Message, "engine fault") || !strings.Contains(engErr.Message, "index out of range") {
		t.Fatalf("unexpected fault message: %s", engErr.Message)
	}

	if _, err := a.QueryMultimodal(context.Background(), "q", "hybrid", nil); err == nil {
		t.Fatal("expected error from panicking multimodal query")
	}
	if err := a.InsertContent(context.Background(), nil, "f.pdf", "", InsertOptions{}); err == nil {
		t.Fatal("expected error from panicking insert")
	}
}
