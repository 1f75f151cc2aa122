package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/auth"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
	"github.com/prompta-dev/prompta-server/internal/server/services"
)

var testSecret = []byte("test-secret")

type testServer struct {
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	rm := repomanager.NewMemoryManager()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := NewRouter(RouterDeps{
		Prompts:   services.NewPromptService(rm, logger),
		Versions:  services.NewVersionService(rm, logger),
		Search:    services.NewSearchService(rm, logger, 20, 100),
		Diffs:     services.NewDiffService(rm, logger),
		SecretKey: testSecret,
		Logger:    logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv}
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}

	return resp, decoded
}

func (ts *testServer) createPrompt(t *testing.T, token, name, content string) string {
	t.Helper()
	resp, body := ts.do(t, "POST", "/api/v1/prompts", token, map[string]any{
		"name":    name,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	prompt := body["prompt"].(map[string]any)
	return prompt["id"].(string)
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, "GET", "/api/v1/prompts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, "GET", "/api/v1/prompts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired, err := auth.GenerateToken("user-1", testSecret, -time.Minute)
	require.NoError(t, err)
	resp, _ = ts.do(t, "GET", "/api/v1/prompts", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePrompt(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	resp, body := ts.do(t, "POST", "/api/v1/prompts", token, map[string]any{
		"name":        "greeting",
		"description": "says hello",
		"tags":        []string{"chat"},
		"content":     "Hello!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	prompt := body["prompt"].(map[string]any)
	version := body["version"].(map[string]any)
	assert.Equal(t, "greeting", prompt["name"])
	assert.Equal(t, prompt["current_version_id"], version["id"])
	assert.Equal(t, float64(1), version["version_number"])
	assert.Equal(t, "Initial version", version["commit_message"])
	assert.Equal(t, true, version["is_current"])
}

func TestCreatePrompt_ValidationAndConflict(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	// missing content
	resp, _ := ts.do(t, "POST", "/api/v1/prompts", token, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// malformed JSON
	req, err := http.NewRequest("POST", ts.srv.URL+"/api/v1/prompts", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	// duplicate name
	ts.createPrompt(t, token, "taken", "a")
	resp, _ = ts.do(t, "POST", "/api/v1/prompts", token, map[string]any{"name": "taken", "content": "b"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetPrompt_ScopingAndNotFound(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.token(t, "user-1")
	other := ts.token(t, "user-2")

	id := ts.createPrompt(t, owner, "greeting", "hello")

	resp, body := ts.do(t, "GET", "/api/v1/prompts/"+id, owner, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "greeting", body["name"])

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/missing", owner, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPromptByNameAndLocation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	resp, body := ts.do(t, "POST", "/api/v1/prompts", token, map[string]any{
		"name":     "greeting",
		"location": "prompts/greeting.md",
		"content":  "hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["prompt"].(map[string]any)["id"]

	resp, body = ts.do(t, "GET", "/api/v1/prompts/by-name/greeting", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])

	resp, body = ts.do(t, "GET", "/api/v1/prompts/by-location?location=prompts%2Fgreeting.md", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/by-location", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateAndDeletePrompt(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	id := ts.createPrompt(t, token, "greeting", "hello")

	resp, body := ts.do(t, "PUT", "/api/v1/prompts/"+id, token, map[string]any{
		"description": "updated",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "updated", body["description"])
	assert.Equal(t, "greeting", body["name"])

	resp, _ = ts.do(t, "DELETE", "/api/v1/prompts/"+id, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPrompts_Pagination(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	for i := 0; i < 5; i++ {
		ts.createPrompt(t, token, fmt.Sprintf("prompt-%d", i), "content")
	}

	resp, body := ts.do(t, "GET", "/api/v1/prompts?page=2&page_size=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(5), body["total"])
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(2), body["page_size"])
	assert.Equal(t, float64(3), body["total_pages"])
	assert.Len(t, body["items"], 2)
}

func TestVersionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	id := ts.createPrompt(t, token, "greeting", "v1 content")

	// append a version
	resp, body := ts.do(t, "POST", "/api/v1/prompts/"+id+"/versions", token, map[string]any{
		"content":        "v2 content",
		"commit_message": "second pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(2), body["version_number"])
	assert.Equal(t, true, body["is_current"])

	// history
	req, err := http.NewRequest("GET", ts.srv.URL+"/api/v1/prompts/"+id+"/versions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusOK, raw.StatusCode)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, float64(1), list[0]["version_number"])
	assert.Equal(t, float64(2), list[1]["version_number"])

	// single version
	resp, body = ts.do(t, "GET", "/api/v1/prompts/"+id+"/versions/1", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "v1 content", body["content"])

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/"+id+"/versions/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// edit commit message
	resp, body = ts.do(t, "PATCH", "/api/v1/prompts/"+id+"/versions/1", token, map[string]any{
		"commit_message": "clarified",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "clarified", body["commit_message"])

	// restore v1 as a new version
	resp, body = ts.do(t, "POST", "/api/v1/prompts/"+id+"/versions/1/restore", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(3), body["version_number"])
	assert.Equal(t, "v1 content", body["content"])
	assert.Equal(t, "Restored from version 1", body["commit_message"])
}

func TestDiffEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "user-1")

	id := ts.createPrompt(t, token, "greeting", "Hello\nWorld\n")
	resp, _ := ts.do(t, "POST", "/api/v1/prompts/"+id+"/versions", token, map[string]any{
		"content": "Hello\nThere\n",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, "GET", "/api/v1/prompts/"+id+"/diff?from=1&to=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(1), body["from_version"])
	assert.Equal(t, float64(2), body["to_version"])
	assert.Equal(t, false, body["identical"])
	assert.Contains(t, body["unified"], "Version 1")
	assert.Contains(t, body["additions"], "There")
	assert.Contains(t, body["deletions"], "World")

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/"+id+"/diff?from=1", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, "GET", "/api/v1/prompts/"+id+"/diff?from=1&to=9", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
