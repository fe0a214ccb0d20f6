// Package anthropic provides a backend implementation using the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tuandaodev/gptswarm/model"
)

const systemPrompt = "You plan software delivery work. Respond with a single JSON object only."

// Options configure the Anthropic backend adapter (model id, temperature,
// max tokens, API key, per-call timeout).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	CallTimeout time.Duration
}

// Backend wraps the Anthropic Messages API behind the generic model.Backend
// interface.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Backend{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic backend from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		CallTimeout: 60 * time.Second,
	}
}

// Info implements model.Backend.
func (b *Backend) Info() model.Info {
	return model.Info{Name: string(b.opts.Model), Provider: "anthropic"}
}

// Infer implements model.Backend. The call is bounded by the configured
// timeout; API errors are classified by HTTP status so the retry layer can
// distinguish transient from permanent failures.
func (b *Backend) Infer(ctx context.Context, req model.Request) (model.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.CallTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model: b.opts.Model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(model.RenderPrompt(req))),
		},
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return model.Output{}, model.ClassifyStatus("anthropic.infer", apiErr.StatusCode, err)
		}
		return model.Output{}, model.Classify("anthropic.infer", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	text := sb.String()
	if text == "" {
		return model.Output{}, model.Permanent("anthropic.infer", fmt.Errorf("empty completion for role %s", req.Role))
	}

	out := model.Output{Text: text}
	var structured map[string]any
	if json.Unmarshal([]byte(text), &structured) == nil {
		out.Structured = structured
	}
	return out, nil
}
