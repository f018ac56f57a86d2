package core

import "context"

// MessageStore persists the append-only, ordered message log of a chat.
//
// Contract:
//   - NextSequence returns max(existing sequence)+1 for the chat, 1 when empty
//   - Append durably commits a single fully-populated message and returns the
//     persisted form with its store-generated identifier
//   - AppendBatch commits a set of messages in one transaction (all or nothing)
//   - ListByChat returns all messages ordered by ascending sequence; querying
//     an unknown or deleted chat yields an empty slice, not an error
type MessageStore interface {
	NextSequence(ctx context.Context, chatID int64) (int, error)
	Append(ctx context.Context, msg *Message) (*Message, error)
	AppendBatch(ctx context.Context, msgs []*Message) error
	ListByChat(ctx context.Context, chatID int64) ([]*Message, error)
}

// ChatStore persists chat sessions. DeleteChat cascades to the chat's
// messages so no orphaned messages remain.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *ChatSession) (*ChatSession, error)
	GetChat(ctx context.Context, id int64) (*ChatSession, error)
	ListChatsByProject(ctx context.Context, projectID int64) ([]*ChatSession, error)
	DeleteChat(ctx context.Context, id int64) error
}

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *Project) (*Project, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
}

// UserStore creates user identities on first reference.
type UserStore interface {
	EnsureUser(ctx context.Context, id int64, name string) (*User, error)
}

// Store bundles all persistence contracts behind one backend.
type Store interface {
	MessageStore
	ChatStore
	ProjectStore
	UserStore

	Close() error
}
