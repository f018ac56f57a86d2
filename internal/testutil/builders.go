package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Memomer/brainstormer/core"
)

// ChatBuilder constructs chat sessions for tests with a fluent API.
type ChatBuilder struct {
	chat core.ChatSession
}

// NewChat creates a builder for a chat around the given idea.
func NewChat(idea string) *ChatBuilder {
	return &ChatBuilder{chat: core.ChatSession{
		Idea:    idea,
		Created: time.Now().UTC(),
	}}
}

// WithProject sets the owning project.
func (b *ChatBuilder) WithProject(projectID int64) *ChatBuilder {
	b.chat.ProjectID = &projectID
	return b
}

// WithTitle sets the chat title.
func (b *ChatBuilder) WithTitle(title string) *ChatBuilder {
	b.chat.Title = title
	return b
}

// Build returns the constructed chat.
func (b *ChatBuilder) Build() *core.ChatSession {
	chat := b.chat
	return &chat
}

// Create persists the chat in the store, failing the test on error.
func (b *ChatBuilder) Create(t *testing.T, store core.ChatStore) *core.ChatSession {
	t.Helper()
	chat, err := store.CreateChat(context.Background(), b.Build())
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	return chat
}

// MessageBuilder constructs messages for tests with a fluent API.
type MessageBuilder struct {
	msg core.Message
}

// NewMessage creates a builder for a message in the given chat.
func NewMessage(chatID int64, role core.Role, content string) *MessageBuilder {
	return &MessageBuilder{msg: core.Message{
		ChatID:  chatID,
		Role:    role,
		Content: content,
		Created: time.Now().UTC(),
	}}
}

// WithSequence sets the per-chat sequence number.
func (b *MessageBuilder) WithSequence(seq int) *MessageBuilder {
	b.msg.Sequence = seq
	return b
}

// WithSender sets the sender user id.
func (b *MessageBuilder) WithSender(userID int64) *MessageBuilder {
	b.msg.SenderID = &userID
	return b
}

// Build returns the constructed message.
func (b *MessageBuilder) Build() *core.Message {
	msg := b.msg
	return &msg
}

// Append persists the message, failing the test on error.
func (b *MessageBuilder) Append(t *testing.T, store core.MessageStore) *core.Message {
	t.Helper()
	msg, err := store.Append(context.Background(), b.Build())
	if err != nil {
		t.Fatalf("append message: %v", err)
	}
	return msg
}

// SeedConversation appends n user-role messages to the chat at sequences
// 1..n, simulating prior history before a pipeline run.
func SeedConversation(t *testing.T, store core.MessageStore, chatID int64, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		NewMessage(chatID, core.RoleUser, "prior message").WithSequence(i).Append(t, store)
	}
}
