package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-agent/internal/adapter/results"
	"shop-agent/internal/domain/entity"
	"shop-agent/internal/infrastructure/artifacts"
	"shop-agent/internal/infrastructure/logger"
	"shop-agent/internal/usecase/intent"
)

// stubDispatcher records submissions and doubles as the task reader.
type stubDispatcher struct {
	submitted []entity.Intent
	tasks     map[string]*entity.Task
}

func newStubDispatcher() *stubDispatcher {
	return &stubDispatcher{tasks: make(map[string]*entity.Task)}
}

func (d *stubDispatcher) Submit(_ context.Context, in entity.Intent) (*entity.Task, error) {
	d.submitted = append(d.submitted, in)
	task := &entity.Task{
		ID:     fmt.Sprintf("task-%d", len(d.submitted)),
		UserID: in.UserID,
		Status: entity.TaskStatusQueued,
	}
	d.tasks[task.ID] = task
	return task, nil
}

func (d *stubDispatcher) Get(id string) (*entity.Task, bool) {
	t, ok := d.tasks[id]
	return t, ok
}

type testAPI struct {
	server     *httptest.Server
	dispatcher *stubDispatcher
	store      *results.MemoryStore
	artifacts  *artifacts.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dispatcher := newStubDispatcher()
	store := results.NewMemoryStore()
	artifactStore, err := artifacts.NewStore(t.TempDir(), logger.NewNopAdapter())
	require.NoError(t, err)

	api := NewServer(
		intent.NewParser(nil, logger.NewNopAdapter()),
		dispatcher,
		dispatcher,
		store,
		artifactStore,
		nil,
		logger.NewNopAdapter(),
	)
	server := httptest.NewServer(api.Router())
	t.Cleanup(server.Close)

	return &testAPI{server: server, dispatcher: dispatcher, store: store, artifacts: artifactStore}
}

func (a *testAPI) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func (a *testAPI) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestChatQuery_SpendingIntentNeedsConfirmation(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post(t, "/api/chat/query", map[string]any{
		"query":   "buy a laptop under $1500",
		"user_id": 7,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[chatResponse](t, resp)
	assert.Equal(t, "requires_confirmation", body.Status)
	assert.Empty(t, body.TaskID)
	assert.Equal(t, entity.ActionCheckout, body.Plan.Action)
	assert.Empty(t, api.dispatcher.submitted, "nothing may be queued without confirmation")
}

func TestChatQuery_ConfirmedSpendingIntentIsQueued(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post(t, "/api/chat/query", map[string]any{
		"query":   "buy a laptop under $1500",
		"user_id": 7,
		"confirm": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[chatResponse](t, resp)
	assert.Equal(t, "queued", body.Status)
	assert.NotEmpty(t, body.TaskID)

	require.Len(t, api.dispatcher.submitted, 1)
	assert.Equal(t, 7, api.dispatcher.submitted[0].UserID)
	assert.Equal(t, entity.ActionCheckout, api.dispatcher.submitted[0].Action)
}

func TestChatQuery_PlainSearchQueuesDirectly(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post(t, "/api/chat/query", map[string]any{"query": "show me books"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[chatResponse](t, resp)
	assert.Equal(t, "queued", body.Status)
	require.Len(t, api.dispatcher.submitted, 1)
	assert.Equal(t, entity.ActionSearch, api.dispatcher.submitted[0].Action)
}

func TestChatQuery_EmptyQuery(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post(t, "/api/chat/query", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRunWorkflow(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post(t, "/api/workflows/run", map[string]any{
		"user_id": 3,
		"intent": map[string]any{
			"action":  "add_to_cart",
			"filters": map[string]any{"query": "shoes"},
		},
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	require.Len(t, api.dispatcher.submitted, 1)
	assert.Equal(t, entity.ActionAddToCart, api.dispatcher.submitted[0].Action)
	assert.Equal(t, 3, api.dispatcher.submitted[0].UserID)
}

func TestRunWorkflow_UnknownAction(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post(t, "/api/workflows/run", map[string]any{
		"intent": map[string]any{"action": "explode"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, api.dispatcher.submitted)
}

func TestAuthLogin(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post(t, "/api/auth/login", map[string]any{
		"email":    "john@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	require.Len(t, api.dispatcher.submitted, 1)
	in := api.dispatcher.submitted[0]
	assert.Equal(t, entity.ActionLogin, in.Action)
	assert.Equal(t, "john@example.com", in.Credentials.Email)
	assert.Equal(t, "secret123", in.Credentials.Password)
}

func TestAuthLogin_MissingFields(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post(t, "/api/auth/login", map[string]any{"email": "john@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetTask(t *testing.T) {
	api := newTestAPI(t)

	task, err := api.dispatcher.Submit(context.Background(), entity.Intent{Action: entity.ActionSearch})
	require.NoError(t, err)

	resp := api.get(t, "/api/tasks/"+task.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[entity.Task](t, resp)
	assert.Equal(t, task.ID, got.ID)

	resp = api.get(t, "/api/tasks/no-such-task")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetResult_Lifecycle(t *testing.T) {
	api := newTestAPI(t)

	// Unknown task.
	resp := api.get(t, "/api/tasks/ghost/result")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Queued but not finished.
	task, err := api.dispatcher.Submit(context.Background(), entity.Intent{Action: entity.ActionSearch})
	require.NoError(t, err)
	resp = api.get(t, "/api/tasks/"+task.ID+"/result")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, string(entity.TaskStatusQueued), body["status"])

	// Stored via the callback endpoint, then readable.
	result := entity.NewWorkflowResult()
	result.Status = entity.StatusOK
	result.Finalize()
	resp = api.post(t, "/api/tasks/"+task.ID+"/result", entity.TaskResultPayload{Result: result})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = api.get(t, "/api/tasks/"+task.ID+"/result")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decode[entity.TaskResultPayload](t, resp)
	assert.Equal(t, task.ID, payload.TaskID, "the path task id wins over the body")
	assert.Equal(t, entity.StatusOK, payload.Result.Status)
}

func TestArtifacts(t *testing.T) {
	api := newTestAPI(t)

	path := filepath.Join(api.artifacts.Dir(), "login-page-loaded-123.html")
	require.NoError(t, os.WriteFile(path, []byte("<body>snapshot</body>"), 0644))

	resp := api.get(t, "/api/artifacts/login-page-loaded-123.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = api.get(t, "/api/artifacts/missing.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProxyHealth_NoProber(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get(t, "/api/proxy/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
