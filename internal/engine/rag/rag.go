// Package rag is a self-contained engine implementation behind the
// engine.Engine interface. It is built from injected model and embedding
// functions: documents are chunked, embedded and held in an in-memory
// vector index, and queries are answered by prompting the chat model with
// the retrieved context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"raggate/internal/engine"
	"raggate/internal/llm"
	"raggate/internal/models"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// Config holds the process-wide engine settings.
type Config struct {
	WorkingDir      string
	Parser          string
	ParseMethod     string
	EnableImages    bool
	EnableTables    bool
	EnableEquations bool
	DisplayStats    bool
	TopK            int
	ChunkSize       int
}

type chunk struct {
	docID  string
	source string
	text   string
	vector []float32
}

// Engine implements engine.Engine.
type Engine struct {
	cfg    Config
	chat   llm.ChatFunc
	embed  llm.EmbedFunc
	loader document.Loader

	mu     sync.RWMutex
	chunks []chunk
}

// New constructs the engine from its injected collaborators.
func New(ctx context.Context, cfg Config, chat llm.ChatFunc, embed llm.EmbedFunc) (*Engine, error) {
	if chat == nil {
		return nil, errors.New("rag: chat function required")
	}
	if embed == nil {
		return nil, errors.New("rag: embed function required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1200
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{UseNameAsID: true})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &Engine{cfg: cfg, chat: chat, embed: embed, loader: loader}, nil
}

// ProcessDocument loads, chunks and indexes the document stored at path.
func (e *Engine) ProcessDocument(ctx context.Context, path string, opts engine.ProcessOptions) error {
	docs, err := e.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return fmt.Errorf("load document %s: %w", filepath.Base(path), err)
	}
	var parts []string
	for _, doc := range docs {
		if doc != nil && doc.Content != "" {
			parts = append(parts, doc.Content)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return fmt.Errorf("document %s produced no content", filepath.Base(path))
	}
	docID := filepath.Base(path)
	count, err := e.insertText(ctx, docID, path, text)
	if err != nil {
		return err
	}
	if opts.DisplayStats {
		log.Printf("rag: indexed %s (%d chunks, parse_method=%s)", docID, count, opts.ParseMethod)
	}
	return nil
}

// Query retrieves the best-matching chunks and asks the chat model.
func (e *Engine) Query(ctx context.Context, query, mode string) (string, error) {
	return e.answer(ctx, query, mode, "")
}

// QueryMultimodal renders the structured items into context blocks before
// answering. Items of a disabled modality are rejected.
func (e *Engine) QueryMultimodal(ctx context.Context, query, mode string, items []models.MultimodalItem) (string, error) {
	var blocks []string
	for i := range items {
		block, err := e.renderMultimodal(&items[i])
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	return e.answer(ctx, query, mode, strings.Join(blocks, "\n\n"))
}

// InsertContent ingests a pre-parsed content list directly.
func (e *Engine) InsertContent(ctx context.Context, items []models.ContentItem, filePath, docID string, opts engine.InsertOptions) error {
	if docID == "" {
		docID = filepath.Base(filePath)
	}
	var parts []string
	for i := range items {
		part, err := e.renderContent(&items[i])
		if err != nil {
			return err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return fmt.Errorf("content list for %s produced no indexable text", docID)
	}

	var count int
	var err error
	if opts.SplitByCharacter != "" {
		count, err = e.insertSplit(ctx, docID, filePath, text, opts.SplitByCharacter, opts.SplitByCharacterOnly)
	} else {
		count, err = e.insertText(ctx, docID, filePath, text)
	}
	if err != nil {
		return err
	}
	if opts.DisplayStats {
		log.Printf("rag: inserted content list for %s (%d items, %d chunks)", docID, len(items), count)
	}
	return nil
}

func (e *Engine) answer(ctx context.Context, query, mode, extraContext string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("query must not be empty")
	}
	k, err := e.retrievalDepth(mode)
	if err != nil {
		return "", err
	}

	vecs, err := e.embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("embed query: expected 1 vector, got %d", len(vecs))
	}
	retrieved := e.topK(vecs[0], k)

	var sb strings.Builder
	for i, c := range retrieved {
		fmt.Fprintf(&sb, "[%d] (%s) %s\n", i+1, c.docID, c.text)
	}
	if extraContext != "" {
		sb.WriteString("\nAdditional context supplied with the question:\n")
		sb.WriteString(extraContext)
		sb.WriteString("\n")
	}

	messages := []*schema.Message{
		{
			Role: schema.System,
			Content: "You answer questions using only the provided context. " +
				"If the context does not contain the answer, say so.",
		},
		{
			Role:    schema.User,
			Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", sb.String(), query),
		},
	}
	resp, err := e.chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return resp.Content, nil
}

// retrievalDepth maps the query mode onto how many chunks are pulled into
// the prompt. Global/hybrid modes cast a wider net.
func (e *Engine) retrievalDepth(mode string) (int, error) {
	switch mode {
	case "", "naive", "local":
		return e.cfg.TopK, nil
	case "global", "hybrid", "mix":
		return e.cfg.TopK * 2, nil
	default:
		return 0, fmt.Errorf("unsupported query mode %q", mode)
	}
}

func (e *Engine) insertText(ctx context.Context, docID, source, text string) (int, error) {
	return e.index(ctx, docID, source, splitBySize(text, e.cfg.ChunkSize))
}

func (e *Engine) insertSplit(ctx context.Context, docID, source, text, sep string, sepOnly bool) (int, error) {
	pieces := strings.Split(text, sep)
	if !sepOnly {
		var refined []string
		for _, p := range pieces {
			refined = append(refined, splitBySize(p, e.cfg.ChunkSize)...)
		}
		pieces = refined
	}
	return e.index(ctx, docID, source, pieces)
}

func (e *Engine) index(ctx context.Context, docID, source string, pieces []string) (int, error) {
	var texts []string
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			texts = append(texts, p)
		}
	}
	if len(texts) == 0 {
		return 0, fmt.Errorf("document %s produced no indexable chunks", docID)
	}
	vecs, err := e.embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks for %s: %w", docID, err)
	}
	if len(vecs) != len(texts) {
		return 0, fmt.Errorf("embed chunks for %s: expected %d vectors, got %d", docID, len(texts), len(vecs))
	}

	e.mu.Lock()
	// Re-processing a document replaces its previous chunks.
	kept := e.chunks[:0]
	for _, c := range e.chunks {
		if c.docID != docID {
			kept = append(kept, c)
		}
	}
	e.chunks = kept
	for i, t := range texts {
		e.chunks = append(e.chunks, chunk{docID: docID, source: source, text: t, vector: vecs[i]})
	}
	e.mu.Unlock()
	return len(texts), nil
}

func (e *Engine) topK(query []float32, k int) []chunk {
	e.mu.RLock()
	defer e.mu.RUnlock()

	type scored struct {
		c     chunk
		score float64
	}
	all := make([]scored, 0, len(e.chunks))
	for _, c := range e.chunks {
		all = append(all, scored{c: c, score: cosine(query, c.vector)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if k > len(all) {
		k = len(all)
	}
	out := make([]chunk, 0, k)
	for _, s := range all[:k] {
		out = append(out, s.c)
	}
	return out
}

func splitBySize(text string, size int) []string {
	words := strings.Fields(text)
	var out []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+len(w)+1 > size {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
