package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Memomer/brainstormer/core"
)

// timeLayout is the canonical storage format for timestamps.
const timeLayout = time.RFC3339Nano

// SQLiteStore is a durable core.Store backed by SQLite. Messages carry a
// foreign key to their chat with ON DELETE CASCADE, so deleting a chat
// removes its messages in the same statement. Chats reference their project
// by plain id without a constraint; chat creation never validates the
// project. Each call uses its own connection from the database/sql pool; no
// session state is held between calls.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and runs
// migrations. The engine pragmas are carried in the DSN, so every connection
// database/sql pools gets them; foreign_keys in particular is a
// per-connection setting, and the cascade delete depends on it holding on
// whichever connection serves the delete. Use the in-memory store for
// ephemeral setups; a ":memory:" database is scoped to one connection and
// does not survive pooling.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS projects (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT    NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			owner_id    INTEGER REFERENCES users(id),
			created_at  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chatsessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER,
			idea       TEXT    NOT NULL,
			title      TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id    INTEGER NOT NULL REFERENCES chatsessions(id) ON DELETE CASCADE,
			sender_id  INTEGER REFERENCES users(id),
			role       TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			sequence   INTEGER NOT NULL,
			created_at TEXT    NOT NULL,
			UNIQUE (chat_id, sequence)
		);

		CREATE INDEX IF NOT EXISTS idx_chats_project ON chatsessions(project_id);
		CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, sequence);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnsureUser creates the user row on first reference.
func (s *SQLiteStore) EnsureUser(ctx context.Context, id int64, name string) (*core.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, id, name)
	if err != nil {
		return nil, fmt.Errorf("session: ensure user %d: %w", id, err)
	}
	u := &core.User{ID: id}
	err = s.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, id).Scan(&u.Name)
	if err != nil {
		return nil, fmt.Errorf("session: ensure user %d: %w", id, err)
	}
	return u, nil
}

// CreateProject inserts the project and returns it with its identifier set.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *core.Project) (*core.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, nullableID(p.OwnerID),
		p.Created.Format(timeLayout), p.Updated.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("session: create project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session: create project: %w", err)
	}
	out := *p
	out.ID = id
	return &out, nil
}

// GetProject returns the project or core.ErrNotFound.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*core.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: project %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("session: get project %d: %w", id, err)
	}
	return p, nil
}

// ListProjects returns all projects ordered by identifier.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*core.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("session: list projects: %w", err)
	}
	defer rows.Close()

	var out []*core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("session: list projects: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: list projects: %w", err)
	}
	return out, nil
}

// CreateChat inserts the chat and returns it with its identifier set.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *core.ChatSession) (*core.ChatSession, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chatsessions (project_id, idea, title, created_at) VALUES (?, ?, ?, ?)`,
		nullableID(chat.ProjectID), chat.Idea, chat.Title, chat.Created.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("session: create chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session: create chat: %w", err)
	}
	out := *chat
	out.ID = id
	return &out, nil
}

// GetChat returns the chat or core.ErrNotFound.
func (s *SQLiteStore) GetChat(ctx context.Context, id int64) (*core.ChatSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, idea, title, created_at FROM chatsessions WHERE id = ?`, id)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: chat %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("session: get chat %d: %w", id, err)
	}
	return c, nil
}

// ListChatsByProject returns the project's chats ordered by identifier.
func (s *SQLiteStore) ListChatsByProject(ctx context.Context, projectID int64) ([]*core.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, idea, title, created_at FROM chatsessions WHERE project_id = ? ORDER BY id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("session: list chats: %w", err)
	}
	defer rows.Close()

	out := []*core.ChatSession{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("session: list chats: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: list chats: %w", err)
	}
	return out, nil
}

// DeleteChat removes the chat; its messages go with it via the cascade.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chatsessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: delete chat %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: delete chat %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("session: chat %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// NextSequence returns max(existing sequence)+1 for the chat, 1 when empty.
func (s *SQLiteStore) NextSequence(ctx context.Context, chatID int64) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM messages WHERE chat_id = ?`, chatID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("session: next sequence for chat %d: %w", chatID, err)
	}
	return next, nil
}

// Append inserts and commits a single message, returning the persisted form.
func (s *SQLiteStore) Append(ctx context.Context, msg *core.Message) (*core.Message, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, role, content, sequence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ChatID, nullableID(msg.SenderID), msg.Role.String(), msg.Content,
		msg.Sequence, msg.Created.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("session: append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session: append message: %w", err)
	}
	out := *msg
	out.ID = id
	return &out, nil
}

// AppendBatch inserts all messages in one transaction.
func (s *SQLiteStore) AppendBatch(ctx context.Context, msgs []*core.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: append batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, role, content, sequence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("session: append batch: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx,
			m.ChatID, nullableID(m.SenderID), m.Role.String(), m.Content,
			m.Sequence, m.Created.Format(timeLayout)); err != nil {
			return fmt.Errorf("session: append batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("session: append batch: %w", err)
	}
	return nil
}

// ListByChat returns the chat's messages ordered by ascending sequence.
// Unknown or deleted chats yield an empty slice.
func (s *SQLiteStore) ListByChat(ctx context.Context, chatID int64) ([]*core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, sender_id, role, content, sequence, created_at
		 FROM messages WHERE chat_id = ? ORDER BY sequence ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("session: list messages for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	out := []*core.Message{}
	for rows.Next() {
		var (
			m        core.Message
			sender   sql.NullInt64
			role     string
			createdS string
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &sender, &role, &m.Content, &m.Sequence, &createdS); err != nil {
			return nil, fmt.Errorf("session: list messages for chat %d: %w", chatID, err)
		}
		if sender.Valid {
			m.SenderID = &sender.Int64
		}
		m.Role, err = core.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("session: list messages for chat %d: %w", chatID, err)
		}
		m.Created, err = time.Parse(timeLayout, createdS)
		if err != nil {
			return nil, fmt.Errorf("session: list messages for chat %d: %w", chatID, err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: list messages for chat %d: %w", chatID, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*core.Project, error) {
	var (
		p        core.Project
		owner    sql.NullInt64
		createdS string
		updatedS string
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Description, &owner, &createdS, &updatedS); err != nil {
		return nil, err
	}
	if owner.Valid {
		p.OwnerID = &owner.Int64
	}
	var err error
	if p.Created, err = time.Parse(timeLayout, createdS); err != nil {
		return nil, err
	}
	if p.Updated, err = time.Parse(timeLayout, updatedS); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanChat(sc scanner) (*core.ChatSession, error) {
	var (
		c        core.ChatSession
		project  sql.NullInt64
		createdS string
	)
	if err := sc.Scan(&c.ID, &project, &c.Idea, &c.Title, &createdS); err != nil {
		return nil, err
	}
	if project.Valid {
		c.ProjectID = &project.Int64
	}
	var err error
	if c.Created, err = time.Parse(timeLayout, createdS); err != nil {
		return nil, err
	}
	return &c, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
