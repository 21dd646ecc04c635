package engine

import (
	"context"
	"errors"
	"fmt"

	"raggate/internal/models"
)

// Error is the failure payload surfaced by the engine boundary. It carries
// a human-readable message and nothing else; retryability is the engine's
// own concern.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Adapter wraps an Engine so that every failure crossing the boundary,
// including panics, comes back as *Error. One file's failure must never
// take down sibling files in a batch.
type Adapter struct {
	engine Engine
}

// NewAdapter wraps the given engine.
func NewAdapter(e Engine) *Adapter {
	return &Adapter{engine: e}
}

// ProcessDocument delegates to the engine's document ingestion entry point.
func (a *Adapter) ProcessDocument(ctx context.Context, path string, opts ProcessOptions) (err error) {
	defer captureFault(&err)
	if callErr := a.engine.ProcessDocument(ctx, path, opts); callErr != nil {
		return asEngineError(callErr)
	}
	return nil
}

// Query delegates a plain query.
func (a *Adapter) Query(ctx context.Context, query, mode string) (answer string, err error) {
	defer captureFault(&err)
	answer, callErr := a.engine.Query(ctx, query, mode)
	if callErr != nil {
		return "", asEngineError(callErr)
	}
	return answer, nil
}

// QueryMultimodal delegates a multimodal query.
func (a *Adapter) QueryMultimodal(ctx context.Context, query, mode string, items []models.MultimodalItem) (answer string, err error) {
	defer captureFault(&err)
	answer, callErr := a.engine.QueryMultimodal(ctx, query, mode, items)
	if callErr != nil {
		return "", asEngineError(callErr)
	}
	return answer, nil
}

// InsertContent delegates direct content-list insertion.
func (a *Adapter) InsertContent(ctx context.Context, items []models.ContentItem, filePath, docID string, opts InsertOptions) (err error) {
	defer captureFault(&err)
	if callErr := a.engine.InsertContent(ctx, items, filePath, docID, opts); callErr != nil {
		return asEngineError(callErr)
	}
	return nil
}

// captureFault converts a panic from the engine into an *Error result.
func captureFault(err *error) {
	if r := recover(); r != nil {
		*err = &Error{Message: fmt.Sprintf("engine fault: %v", r)}
	}
}

func asEngineError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Message: err.Error()}
}
