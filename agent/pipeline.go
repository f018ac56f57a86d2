package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Memomer/brainstormer/core"
	"github.com/Memomer/brainstormer/logging"
	"github.com/Memomer/brainstormer/model"
)

// Options configure a Pipeline instance.
type Options struct {
	// Personas overrides the default persona table. Order is execution order.
	Personas []Persona
	// AtomicRuns buffers all persona messages and commits them in a single
	// store transaction at the end of the run. The default (false) matches
	// the per-step commit behavior: each message is durably committed before
	// the next model call, so a mid-run failure preserves partial progress.
	AtomicRuns bool
	// MaxModelCalls bounds the number of model calls per run. Zero means
	// unlimited.
	MaxModelCalls int
	// Logger receives structured run/step logs.
	Logger logging.Logger
	// Clock overrides message timestamping, for tests.
	Clock func() time.Time
}

// Pipeline drives the fixed persona sequence against a chat: for each persona
// it builds the prompt from prior outputs, calls the model, and persists the
// resulting message with the next per-chat sequence number.
//
// A Pipeline is stateless across runs and safe for concurrent use against
// distinct chats. Serializing concurrent runs for the same chat is the
// caller's responsibility (the runner holds a per-chat lock).
type Pipeline struct {
	llm      model.Model
	personas []Persona
	atomic   bool
	maxCalls int
	logger   logging.Logger
	now      func() time.Time
}

// New constructs a Pipeline with optional overrides. By default it runs the
// six debate personas with per-step commits.
func New(llm model.Model, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		Personas: DefaultPersonas(),
		Logger:   logging.NoOpLogger{},
		Clock:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{
		llm:      llm,
		personas: opts.Personas,
		atomic:   opts.AtomicRuns,
		maxCalls: opts.MaxModelCalls,
		logger:   opts.Logger,
		now:      opts.Clock,
	}
}

// Run executes every persona in order against the chat, persisting one
// message per persona, and returns the accumulated outputs keyed by role.
//
// The chat must already be persisted. The input text itself is not stored by
// Run; persisting the user's own message, if any, is the caller's
// responsibility and must happen before Run so the sequence computation
// places agent messages after it. senderID, when non-nil, is attached to
// every persisted message including agent-authored ones.
//
// A model failure at step k aborts the run with a *core.ModelError; in
// per-step commit mode the k-1 earlier messages remain persisted, in atomic
// mode nothing is.
func (p *Pipeline) Run(
	ctx context.Context,
	store core.MessageStore,
	chat *core.ChatSession,
	input string,
	senderID *int64,
) (Outputs, error) {
	if chat == nil || chat.ID == 0 {
		return nil, fmt.Errorf("agent: chat must be persisted before running the pipeline")
	}

	// Start after every message already present, including a user message
	// the caller just persisted.
	seq, err := store.NextSequence(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("agent: next sequence for chat %d: %w", chat.ID, err)
	}

	budget := core.NewCallBudget(p.maxCalls)
	outputs := make(Outputs, len(p.personas))
	var pending []*core.Message

	for _, persona := range p.personas {
		if err := budget.Spend(); err != nil {
			return nil, fmt.Errorf("agent: %w", err)
		}

		prompt := persona.BuildPrompt(input, outputs)
		started := p.now()
		resp, err := p.llm.Complete(ctx, model.Request{
			Instruction: persona.Instruction,
			Prompt:      prompt,
		})
		p.logStep(persona.Role, resp, p.now().Sub(started), err)
		if err != nil {
			info := p.llm.Info()
			return nil, &core.ModelError{Provider: info.Provider, Model: info.Name, Err: err}
		}

		content := strings.TrimSpace(resp.Text)
		outputs[persona.Role] = content

		msg := &core.Message{
			ChatID:   chat.ID,
			SenderID: senderID,
			Role:     persona.Role,
			Content:  content,
			Sequence: seq,
			Created:  p.now().UTC(),
		}
		if p.atomic {
			pending = append(pending, msg)
		} else if _, err := store.Append(ctx, msg); err != nil {
			return nil, fmt.Errorf("agent: persist %s message: %w", persona.Role, err)
		}
		seq++
	}

	if p.atomic {
		if err := store.AppendBatch(ctx, pending); err != nil {
			return nil, fmt.Errorf("agent: persist run: %w", err)
		}
	}

	return outputs, nil
}

func (p *Pipeline) logStep(role core.Role, resp *model.Response, dur time.Duration, err error) {
	if ml, ok := p.logger.(logging.MetricsLogger); ok {
		tokens := 0
		if err == nil && resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		ml.LogModelCall(role.String(), p.llm.Info().Name, tokens, dur, err)
		return
	}
	if err != nil {
		p.logger.Error("model call failed role=%s: %v", role, err)
		return
	}
	p.logger.Debug("model call completed role=%s duration=%s", role, dur)
}
