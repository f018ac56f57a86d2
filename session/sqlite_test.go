package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Memomer/brainstormer/core"
	"github.com/Memomer/brainstormer/internal/testutil"
)

var _ core.Store = (*SQLiteStore)(nil)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "brainstormer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_NextSequence(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").Create(t, s)

	next, err := s.NextSequence(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	testutil.SeedConversation(t, s, chat.ID, 3)

	next, err = s.NextSequence(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestSQLiteStore_AppendAndList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").WithTitle("demo").Create(t, s)

	testutil.NewMessage(chat.ID, core.RoleUser, "first").WithSequence(1).Append(t, s)
	testutil.NewMessage(chat.ID, core.RoleOptimist, "second").WithSequence(2).Append(t, s)

	msgs, err := s.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleOptimist, msgs[1].Role)
	assert.Equal(t, 1, msgs[0].Sequence)
	assert.NotZero(t, msgs[0].ID)
	assert.False(t, msgs[0].Created.IsZero())
}

func TestSQLiteStore_AppendPersistsSender(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").Create(t, s)

	// Sender rows must exist before messages reference them.
	_, err := s.EnsureUser(ctx, 7, "ada")
	require.NoError(t, err)

	testutil.NewMessage(chat.ID, core.RoleUser, "hello").WithSequence(1).WithSender(7).Append(t, s)

	msgs, err := s.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].SenderID)
	assert.Equal(t, int64(7), *msgs[0].SenderID)
}

func TestSQLiteStore_DeleteChatCascades(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").Create(t, s)
	testutil.SeedConversation(t, s, chat.ID, 3)

	require.NoError(t, s.DeleteChat(ctx, chat.ID))

	_, err := s.GetChat(ctx, chat.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	msgs, err := s.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteStore_DeleteChatCascadesOnEveryConnection(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").Create(t, s)
	testutil.SeedConversation(t, s, chat.ID, 3)

	// Pin the first pooled connection in an open transaction so the delete
	// is served by a freshly opened one; the cascade must hold there too.
	tx, err := s.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, s.DeleteChat(ctx, chat.ID))
	require.NoError(t, tx.Rollback())

	msgs, err := s.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteStore_DeleteChatNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	err := s.DeleteChat(context.Background(), 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteStore_AppendBatch(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").Create(t, s)

	batch := []*core.Message{
		testutil.NewMessage(chat.ID, core.RoleOptimist, "a").WithSequence(1).Build(),
		testutil.NewMessage(chat.ID, core.RolePessimist, "b").WithSequence(2).Build(),
	}
	require.NoError(t, s.AppendBatch(ctx, batch))

	msgs, err := s.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSQLiteStore_AppendBatchRollsBackOnConflict(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	chat := testutil.NewChat("an idea").Create(t, s)
	testutil.NewMessage(chat.ID, core.RoleUser, "taken").WithSequence(1).Append(t, s)

	// Second element collides on (chat_id, sequence); nothing from the batch
	// may survive.
	batch := []*core.Message{
		testutil.NewMessage(chat.ID, core.RoleOptimist, "a").WithSequence(2).Build(),
		testutil.NewMessage(chat.ID, core.RolePessimist, "b").WithSequence(1).Build(),
	}
	err := s.AppendBatch(ctx, batch)
	require.Error(t, err)

	msgs, err := s.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestSQLiteStore_ProjectsRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	owner, err := s.EnsureUser(ctx, 1, "ada")
	require.NoError(t, err)

	now := time.Now().UTC()
	created, err := s.CreateProject(ctx, &core.Project{
		Name:        "alpha",
		Description: "first project",
		OwnerID:     &owner.ID,
		Created:     now,
		Updated:     now,
	})
	require.NoError(t, err)

	got, err := s.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, "first project", got.Description)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner.ID, *got.OwnerID)

	_, err = s.GetProject(ctx, created.ID+1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteStore_ListChatsByProject(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	p, err := s.CreateProject(ctx, &core.Project{Name: "alpha", Created: now, Updated: now})
	require.NoError(t, err)

	testutil.NewChat("one").WithProject(p.ID).Create(t, s)
	testutil.NewChat("two").WithProject(p.ID).Create(t, s)
	testutil.NewChat("loose").Create(t, s)

	chats, err := s.ListChatsByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 2)
}
