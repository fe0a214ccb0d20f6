// Package openai provides a backend implementation using the OpenAI Chat
// Completions API. It renders the normalized request into chat messages,
// applies the configured per-call timeout and classifies API failures for
// the retry layer.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"

	"github.com/tuandaodev/gptswarm/model"
)

const systemPrompt = "You plan software delivery work. Respond with a single JSON object only."

// Options configure the OpenAI backend adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	CallTimeout         time.Duration
}

// Backend wraps the OpenAI Chat Completions API behind the generic
// model.Backend interface.
type Backend struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI backend from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		CallTimeout:         60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// Info implements model.Backend.
func (b *Backend) Info() model.Info {
	return model.Info{Name: b.opts.Model, Provider: "openai"}
}

// Infer implements model.Backend. The call is bounded by the configured
// timeout; API errors are classified by HTTP status so the retry layer can
// distinguish transient from permanent failures.
func (b *Backend) Infer(ctx context.Context, req model.Request) (model.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.CallTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: b.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(model.RenderPrompt(req)),
		},
		Temperature:         openai.Float(b.opts.Temperature),
		MaxCompletionTokens: openai.Int(b.opts.MaxCompletionTokens),
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return model.Output{}, model.ClassifyStatus("openai.infer", apiErr.StatusCode, err)
		}
		return model.Output{}, model.Classify("openai.infer", err)
	}
	if len(resp.Choices) == 0 {
		return model.Output{}, model.Permanent("openai.infer", fmt.Errorf("empty completion for role %s", req.Role))
	}

	text := resp.Choices[0].Message.Content
	out := model.Output{Text: text}
	var structured map[string]any
	if json.Unmarshal([]byte(text), &structured) == nil {
		out.Structured = structured
	}
	return out, nil
}
