// Package llm builds the model and embedding functions that are injected
// into the engine at startup. The engine never sees provider SDKs, only
// these closures.
package llm

import (
	"context"
	"fmt"

	"raggate/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	lcembeddings "github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"
)

// ChatFunc generates a completion for the given messages.
type ChatFunc func(ctx context.Context, messages []*schema.Message) (*schema.Message, error)

// EmbedFunc embeds a batch of texts, one vector per input in order.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// NewChatFunc constructs the chat completion function for the configured
// provider.
func NewChatFunc(ctx context.Context, cfg *config.Config) (ChatFunc, error) {
	provider := cfg.Engine.Provider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 4096,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		return chatModel.Generate(ctx, messages)
	}, nil
}

// NewEmbedFunc constructs the embedding function against an
// OpenAI-compatible embeddings API.
func NewEmbedFunc(cfg *config.Config) (EmbedFunc, error) {
	token := cfg.Embedding.APIKey
	if token == "" {
		// Local OpenAI-compatible servers accept any token.
		token = "none"
	}
	opts := []lcopenai.Option{
		lcopenai.WithToken(token),
		lcopenai.WithEmbeddingModel(cfg.Embedding.Model),
	}
	if cfg.Embedding.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.Embedding.BaseURL))
	}
	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}
	embedder, err := lcembeddings.NewEmbedder(client, lcembeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		return embedder.EmbedDocuments(ctx, texts)
	}, nil
}
