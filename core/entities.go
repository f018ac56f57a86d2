package core

import "time"

// User is an optional identity attached to projects and messages. Users are
// created on first reference and never deleted by this engine.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Project is a named container for chat sessions.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     *int64    `json:"owner_id,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// ChatSession is one conversation thread anchored to a project and an
// originating idea. It owns an ordered collection of messages; deleting a
// chat cascades to its messages.
type ChatSession struct {
	ID        int64     `json:"id"`
	ProjectID *int64    `json:"project_id,omitempty"`
	Idea      string    `json:"idea"`
	Title     string    `json:"title,omitempty"`
	Created   time.Time `json:"created"`
}

// Message is one turn in a conversation. Sequence is a per-chat monotonically
// increasing integer defining display and causal order; it is never
// reassigned or reused. Messages are append-only.
type Message struct {
	ID       int64     `json:"id"`
	ChatID   int64     `json:"chat_id"`
	SenderID *int64    `json:"sender_id,omitempty"`
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	Sequence int       `json:"sequence"`
	Created  time.Time `json:"created"`
}

// NewMessage constructs an unsaved message with a UTC timestamp. The store
// assigns the identifier on append.
func NewMessage(chatID int64, senderID *int64, role Role, content string, sequence int) *Message {
	return &Message{
		ChatID:   chatID,
		SenderID: senderID,
		Role:     role,
		Content:  content,
		Sequence: sequence,
		Created:  time.Now().UTC(),
	}
}
