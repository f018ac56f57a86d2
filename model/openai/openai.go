// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API. It adapts the pipeline's normalized Request into the
// SDK's system/user message pair and extracts the completed text.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/Memomer/brainstormer/model"
)

// Options configure the OpenAI model adapter. Fields mirror the subset of
// Chat Completion parameters the debate engine uses; the same values apply
// uniformly to every persona call.
type Options struct {
	Model          string
	Temperature    float64
	MaxTokens      int64
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. The API key
// is read from OPENAI_API_KEY by the SDK.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:        openai.ChatModelGPT4oMini,
		Temperature:  0.7,
		MaxTokens:    600,
		RetryBackoff: time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete implements model.Model with a single blocking completion call.
// Transient API errors are retried up to MaxRetries times with linear
// backoff; context cancellation aborts immediately.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	if m.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.RequestTimeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instruction),
			openai.UserMessage(req.Prompt),
		},
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxTokens),
	}

	var lastErr error
	for attempt := 0; attempt <= m.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * m.opts.RetryBackoff):
			}
		}

		resp, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = fmt.Errorf("openai api error: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai: no choices returned")
		}

		choice := resp.Choices[0]
		out := &model.Response{
			Text:         strings.TrimSpace(choice.Message.Content),
			FinishReason: string(choice.FinishReason),
		}
		if resp.Usage.TotalTokens > 0 {
			out.Usage = &model.Usage{
				PromptTokens:     int(resp.Usage.PromptTokens),
				CompletionTokens: int(resp.Usage.CompletionTokens),
				TotalTokens:      int(resp.Usage.TotalTokens),
			}
		}
		return out, nil
	}

	return nil, lastErr
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai"}
}
