// Package agent implements the pipeline's Processor contract with an
// LLM-backed operations assistant. It is thin glue around the model API; the
// pipeline treats it as a black box returning success or failure plus text.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/pipeline"
)

const defaultSystemPrompt = `You are an AI assistant specialized in cloud operations.

When handling a request:
1. Confirm the target account from the supplied profile or role before acting.
2. Report results clearly and concisely.
3. If an operation cannot be completed safely, say so and explain why.

Be precise, security-conscious, and efficient.`

// Config holds the configuration for the LLM processor.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64

	// SystemPrompt overrides the built-in operations prompt when set.
	SystemPrompt string

	// BaseURL points the client at an alternate API endpoint, e.g. a proxy.
	BaseURL string
}

// LLMProcessor executes requests against the Anthropic Messages API.
type LLMProcessor struct {
	client       anthropic.Client
	model        anthropic.Model
	maxTokens    int64
	systemPrompt string
	logger       zerolog.Logger
}

// NewLLMProcessor creates a processor. The API key is required; model and
// token budget fall back to sensible defaults.
func NewLLMProcessor(cfg Config, logger zerolog.Logger) (*LLMProcessor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &LLMProcessor{
		client:       anthropic.NewClient(opts...),
		model:        anthropic.Model(cfg.Model),
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger.With().Str("component", "LLMProcessor").Logger(),
	}, nil
}

// Execute runs one request through the model. API errors are returned to the
// pool, which converts them into a failed Result.
func (p *LLMProcessor) Execute(ctx context.Context, req *pipeline.Request) (pipeline.Result, error) {
	p.logger.Debug().Str("request_id", req.ID).Msg("Sending request to model.")

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: p.systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(req))),
		},
	})
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("model request: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	return pipeline.Result{Success: true, Output: out.String()}, nil
}

// buildPrompt renders the request text plus its context fields into a single
// user turn. Context keys are sorted so the prompt is deterministic.
func buildPrompt(req *pipeline.Request) string {
	var sb strings.Builder
	sb.WriteString(req.Text)

	if len(req.Context) > 0 {
		keys := make([]string, 0, len(req.Context))
		for k := range req.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\n\nOperation context:")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", k, req.Context[k]))
		}
	}
	return sb.String()
}
