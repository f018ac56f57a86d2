package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Memomer/brainstormer/core"
)

// InMemoryStore is a volatile core.Store implementation keeping all entities
// in process-local maps. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Returned slices and entities are copies to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	users    map[int64]*core.User
	projects map[int64]*core.Project
	chats    map[int64]*core.ChatSession
	messages map[int64][]*core.Message // keyed by chat id, append order

	nextProjectID int64
	nextChatID    int64
	nextMessageID int64
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:    make(map[int64]*core.User),
		projects: make(map[int64]*core.Project),
		chats:    make(map[int64]*core.ChatSession),
		messages: make(map[int64][]*core.Message),
	}
}

// EnsureUser creates the user on first reference and returns a copy.
func (s *InMemoryStore) EnsureUser(_ context.Context, id int64, name string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &core.User{ID: id, Name: name}
		s.users[id] = u
	}
	cp := *u
	return &cp, nil
}

// CreateProject assigns an identifier and stores a copy of the project.
func (s *InMemoryStore) CreateProject(_ context.Context, p *core.Project) (*core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProjectID++
	cp := *p
	cp.ID = s.nextProjectID
	s.projects[cp.ID] = &cp
	out := cp
	return &out, nil
}

// GetProject returns a copy of the project or core.ErrNotFound.
func (s *InMemoryStore) GetProject(_ context.Context, id int64) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("session: project %d: %w", id, core.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// ListProjects returns copies of all projects ordered by identifier.
func (s *InMemoryStore) ListProjects(_ context.Context) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateChat assigns an identifier and stores a copy of the chat.
func (s *InMemoryStore) CreateChat(_ context.Context, chat *core.ChatSession) (*core.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextChatID++
	cp := *chat
	cp.ID = s.nextChatID
	s.chats[cp.ID] = &cp
	out := cp
	return &out, nil
}

// GetChat returns a copy of the chat or core.ErrNotFound.
func (s *InMemoryStore) GetChat(_ context.Context, id int64) (*core.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("session: chat %d: %w", id, core.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// ListChatsByProject returns copies of the project's chats ordered by identifier.
func (s *InMemoryStore) ListChatsByProject(_ context.Context, projectID int64) ([]*core.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*core.ChatSession{}
	for _, c := range s.chats {
		if c.ProjectID != nil && *c.ProjectID == projectID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteChat removes the chat and cascades to its messages.
func (s *InMemoryStore) DeleteChat(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return fmt.Errorf("session: chat %d: %w", id, core.ErrNotFound)
	}
	delete(s.chats, id)
	delete(s.messages, id)
	return nil
}

// NextSequence returns max(existing sequence)+1 for the chat, 1 when empty.
func (s *InMemoryStore) NextSequence(_ context.Context, chatID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSequenceLocked(chatID), nil
}

// nextSequenceLocked computes the next sequence; caller must hold the lock.
func (s *InMemoryStore) nextSequenceLocked(chatID int64) int {
	max := 0
	for _, m := range s.messages[chatID] {
		if m.Sequence > max {
			max = m.Sequence
		}
	}
	return max + 1
}

// Append stores a copy of the message, assigns its identifier, and returns
// the persisted form.
func (s *InMemoryStore) Append(_ context.Context, msg *core.Message) (*core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(msg), nil
}

// AppendBatch stores all messages or none; caller-visible state only changes
// once every message has been validated.
func (s *InMemoryStore) AppendBatch(_ context.Context, msgs []*core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if m.ChatID == 0 {
			return fmt.Errorf("session: append batch: message without chat id")
		}
	}
	for _, m := range msgs {
		s.appendLocked(m)
	}
	return nil
}

func (s *InMemoryStore) appendLocked(msg *core.Message) *core.Message {
	s.nextMessageID++
	cp := *msg
	cp.ID = s.nextMessageID
	s.messages[cp.ChatID] = append(s.messages[cp.ChatID], &cp)
	out := cp
	return &out
}

// ListByChat returns copies of the chat's messages ordered by ascending
// sequence. Unknown chats yield an empty slice, not an error.
func (s *InMemoryStore) ListByChat(_ context.Context, chatID int64) ([]*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[chatID]
	out := make([]*core.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// Close implements core.Store; the in-memory store holds no resources.
func (s *InMemoryStore) Close() error { return nil }
