package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Memomer/brainstormer/agent"
	"github.com/Memomer/brainstormer/core"
	"github.com/Memomer/brainstormer/logging"
	"github.com/Memomer/brainstormer/model"
	"github.com/Memomer/brainstormer/runner"
	"github.com/Memomer/brainstormer/session"
)

func newTestServer(t *testing.T, llm model.Model) http.Handler {
	t.Helper()
	store := session.NewInMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return New(runner.New(store, agent.New(llm)), logging.NoOpLogger{})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeHistory(t *testing.T, rec *httptest.ResponseRecorder) chatHistoryResponse {
	t.Helper()
	var out chatHistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestServerRoot(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "brainstormer", body["service"])
}

func TestServerCreateAndListProjects(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/projects", map[string]any{
		"name":        "side projects",
		"description": "weekend ideas",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created projectResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "side projects", created.Name)

	rec = doJSON(t, h, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []projectResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestServerListRawKeys(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/projects", map[string]any{"name": "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"project_id"`)

	rec = doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "an idea",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/projects/1/chats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chat_id"`)
}

func TestServerCreateProjectValidation(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/projects", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerStartChatReturnsFullDebate(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "a solar powered kettle",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	out := decodeHistory(t, rec)
	assert.NotZero(t, out.ChatID)
	require.Len(t, out.Messages, len(core.AgentOrder))
	for i, msg := range out.Messages {
		assert.Equal(t, core.AgentOrder[i].String(), msg.Role)
		assert.Equal(t, i+1, msg.Sequence)
		assert.NotEmpty(t, msg.Content)
	}
}

func TestServerSendMessageAppendsRound(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "an idea",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	chatID := decodeHistory(t, rec).ChatID

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/chats/%d/message", chatID), map[string]any{
		"content": "how would we monetize it?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeHistory(t, rec)
	require.Len(t, out.Messages, 6+1+len(core.AgentOrder))
	assert.Equal(t, "user", out.Messages[6].Role)
	assert.Equal(t, 7, out.Messages[6].Sequence)
	assert.Equal(t, "how would we monetize it?", out.Messages[6].Content)
}

func TestServerSendMessageUnknownChat(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/chats/999/message", map[string]any{
		"content": "hello",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerSendMessageModelFailure(t *testing.T) {
	llm := model.NewMockModel("mock-model", "mock")
	h := newTestServer(t, llm)

	rec := doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "an idea",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	chatID := decodeHistory(t, rec).ChatID

	llm.FailOn(7, fmt.Errorf("quota exceeded"))
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/chats/%d/message", chatID), map[string]any{
		"content": "again",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServerListMessages(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "an idea",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	chatID := decodeHistory(t, rec).ChatID

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/chats/%d/messages", chatID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeHistory(t, rec)
	assert.Len(t, out.Messages, len(core.AgentOrder))
}

func TestServerListChatsByProject(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "first idea",
		"title":      "first",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/projects/1/chats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var chats []chatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "first idea", chats[0].Idea)
	assert.Equal(t, "first", chats[0].Title)
}

func TestServerDeleteChat(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodPost, "/chats/start", map[string]any{
		"project_id": 1,
		"idea":       "an idea",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	chatID := decodeHistory(t, rec).ChatID

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/chats/%d", chatID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/chats/%d/messages", chatID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeHistory(t, rec).Messages)
}

func TestServerInvalidPathID(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	rec := doJSON(t, h, http.MethodGet, "/chats/abc/messages", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerCORSPreflight(t *testing.T) {
	h := newTestServer(t, model.NewMockModel("mock-model", "mock"))

	req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
