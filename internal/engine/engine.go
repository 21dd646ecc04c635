// Package engine defines the call boundary to the RAG engine. The engine
// itself (parsing, indexing, answering) is a collaborator behind the Engine
// interface; this package only shapes the calls and the errors that cross it.
package engine

import (
	"context"

	"raggate/internal/models"
)

// ProcessOptions are the per-call knobs for document ingestion. Modality
// toggles (image/table/equation) are process-wide engine configuration and
// deliberately absent here.
type ProcessOptions struct {
	ParseMethod  string
	DisplayStats bool
}

// InsertOptions control direct content-list insertion.
type InsertOptions struct {
	SplitByCharacter     string
	SplitByCharacterOnly bool
	DisplayStats         bool
}

// Engine is the external RAG system. Implementations may fail with any
// error; callers go through Adapter, which normalizes failures.
type Engine interface {
	// ProcessDocument ingests the document stored at path.
	ProcessDocument(ctx context.Context, path string, opts ProcessOptions) error

	// Query answers a plain text question against the knowledge base.
	Query(ctx context.Context, query, mode string) (string, error)

	// QueryMultimodal answers a question augmented with inline
	// table/equation/image context.
	QueryMultimodal(ctx context.Context, query, mode string, items []models.MultimodalItem) (string, error)

	// InsertContent ingests a pre-parsed content list, bypassing file parsing.
	InsertContent(ctx context.Context, items []models.ContentItem, filePath, docID string, opts InsertOptions) error
}
