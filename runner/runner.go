package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Memomer/brainstormer/agent"
	"github.com/Memomer/brainstormer/core"
	"github.com/Memomer/brainstormer/logging"
)

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// Logger receives structured run logs.
	Logger logging.Logger
	// Clock overrides entity timestamping, for tests.
	Clock func() time.Time
}

// Runner coordinates the store and the debate pipeline. Distinct chats may be
// processed concurrently; runs against the same chat are serialized by a
// per-chat mutex so sequence numbers never race. Public methods are safe for
// concurrent use.
type Runner struct {
	store    core.Store
	pipeline *agent.Pipeline
	logger   logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(store core.Store, pipeline *agent.Pipeline, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		store:     store,
		pipeline:  pipeline,
		logger:    opts.Logger,
		now:       opts.Clock,
		chatLocks: make(map[int64]*sync.Mutex),
	}
}

// chatLock returns the mutex serializing writes for one chat, creating it on
// first use. Locks are never evicted; one mutex per chat is cheap enough for
// the lifetime of a process.
func (r *Runner) chatLock(chatID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		r.chatLocks[chatID] = l
	}
	return l
}

// CreateProjectInput carries the fields for CreateProject.
type CreateProjectInput struct {
	Name        string
	Description string
	OwnerID     *int64
}

// CreateProject persists a new project, creating the owner identity on first
// reference.
func (r *Runner) CreateProject(ctx context.Context, in CreateProjectInput) (*core.Project, error) {
	if in.OwnerID != nil {
		if _, err := r.store.EnsureUser(ctx, *in.OwnerID, ""); err != nil {
			return nil, err
		}
	}
	now := r.now().UTC()
	p, err := r.store.CreateProject(ctx, &core.Project{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     in.OwnerID,
		Created:     now,
		Updated:     now,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("project created id=%d name=%q", p.ID, p.Name)
	return p, nil
}

// ListProjects returns all projects.
func (r *Runner) ListProjects(ctx context.Context) ([]*core.Project, error) {
	return r.store.ListProjects(ctx)
}

// ListChats returns the chats belonging to a project. Unknown projects yield
// an empty list.
func (r *Runner) ListChats(ctx context.Context, projectID int64) ([]*core.ChatSession, error) {
	return r.store.ListChatsByProject(ctx, projectID)
}

// StartChatInput carries the fields for StartChat.
type StartChatInput struct {
	ProjectID int64
	Idea      string
	Title     string
	UserID    *int64
}

// StartChat creates a chat for the idea and immediately runs the debate
// pipeline against it. It returns the chat and the full ordered history.
// The idea itself is stored on the chat entity, not as a message.
//
// On a mid-run model failure the chat and any messages committed before the
// failing step remain persisted; the error is returned for the surface layer
// to report.
func (r *Runner) StartChat(ctx context.Context, in StartChatInput) (*core.ChatSession, []*core.Message, error) {
	if in.UserID != nil {
		if _, err := r.store.EnsureUser(ctx, *in.UserID, ""); err != nil {
			return nil, nil, err
		}
	}

	chat, err := r.store.CreateChat(ctx, &core.ChatSession{
		ProjectID: &in.ProjectID,
		Idea:      in.Idea,
		Title:     in.Title,
		Created:   r.now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}

	lock := r.chatLock(chat.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := r.runPipeline(ctx, chat, in.Idea, in.UserID); err != nil {
		return chat, nil, err
	}

	msgs, err := r.store.ListByChat(ctx, chat.ID)
	if err != nil {
		return chat, nil, err
	}
	return chat, msgs, nil
}

// SendMessageInput carries the fields for SendMessage.
type SendMessageInput struct {
	ChatID  int64
	Content string
	UserID  *int64
}

// SendMessage appends a user-authored message to an existing chat and runs
// the debate pipeline on its content, returning the updated ordered history.
// It fails with core.ErrNotFound, persisting nothing, when the chat does not
// exist.
func (r *Runner) SendMessage(ctx context.Context, in SendMessageInput) ([]*core.Message, error) {
	chat, err := r.store.GetChat(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}

	if in.UserID != nil {
		if _, err := r.store.EnsureUser(ctx, *in.UserID, ""); err != nil {
			return nil, err
		}
	}

	lock := r.chatLock(chat.ID)
	lock.Lock()
	defer lock.Unlock()

	seq, err := r.store.NextSequence(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	userMsg := &core.Message{
		ChatID:   chat.ID,
		SenderID: in.UserID,
		Role:     core.RoleUser,
		Content:  in.Content,
		Sequence: seq,
		Created:  r.now().UTC(),
	}
	if _, err := r.store.Append(ctx, userMsg); err != nil {
		return nil, err
	}

	if err := r.runPipeline(ctx, chat, in.Content, in.UserID); err != nil {
		return nil, err
	}

	return r.store.ListByChat(ctx, chat.ID)
}

// History returns the full ordered message history of a chat. Unknown or
// deleted chats yield an empty history, not an error.
func (r *Runner) History(ctx context.Context, chatID int64) ([]*core.Message, error) {
	return r.store.ListByChat(ctx, chatID)
}

// DeleteChat removes a chat and, by cascade, all of its messages.
func (r *Runner) DeleteChat(ctx context.Context, chatID int64) error {
	lock := r.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()
	return r.store.DeleteChat(ctx, chatID)
}

// runPipeline executes one debate run under the caller-held chat lock,
// tagging logs with a fresh run id.
func (r *Runner) runPipeline(ctx context.Context, chat *core.ChatSession, input string, userID *int64) error {
	runID := uuid.NewString()
	started := r.now()
	r.logger.Info("pipeline run started chat_id=%d run_id=%s", chat.ID, runID)

	outputs, err := r.pipeline.Run(ctx, r.store, chat, input, userID)

	if ml, ok := r.logger.(logging.MetricsLogger); ok {
		ml.LogPipelineRun(len(outputs), r.now().Sub(started), err)
	} else if err != nil {
		r.logger.Error("pipeline run failed chat_id=%d run_id=%s: %v", chat.ID, runID, err)
	} else {
		r.logger.Info("pipeline run completed chat_id=%d run_id=%s steps=%d", chat.ID, runID, len(outputs))
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	return nil
}
