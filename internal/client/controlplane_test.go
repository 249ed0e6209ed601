package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflowhq/dayflow-client/internal/client/handlers"
	"github.com/dayflowhq/dayflow-client/internal/client/middleware"
	"github.com/dayflowhq/dayflow-client/internal/client/sync"
)

type stubMonitor struct{ online bool }

func (s *stubMonitor) Current() bool { return s.online }

func (s *stubMonitor) OnChange(fn func(bool)) func() { return func() {} }

type stubTransport struct{ err error }

func (s *stubTransport) Replay(ctx context.Context, action *sync.PendingAction) error {
	return s.err
}

func newTestRoutes(t *testing.T, token string) (http.Handler, *sync.Coordinator) {
	t.Helper()

	store := sync.NewStore(sync.NewMemoryKV())
	coord := sync.NewCoordinator(store, &stubTransport{}, &stubMonitor{online: true})
	require.NoError(t, store.Load())

	routes := SetupRoutes(coord, &RouteConfig{
		Auth: middleware.TokenAuthConfig{Token: token},
	})
	return routes, coord
}

func doRequest(routes http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	return w
}

func TestControlPlaneIndex(t *testing.T) {
	routes, _ := newTestRoutes(t, "")

	w := doRequest(routes, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestControlPlaneAuth(t *testing.T) {
	routes, _ := newTestRoutes(t, "secret")

	w := doRequest(routes, http.MethodGet, "/v1/status", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(routes, http.MethodGet, "/v1/status", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(routes, http.MethodGet, "/v1/status", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestControlPlaneStatus(t *testing.T) {
	routes, _ := newTestRoutes(t, "")

	w := doRequest(routes, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}

func TestControlPlaneSyncPending(t *testing.T) {
	routes, coord := newTestRoutes(t, "")

	_, err := coord.Enqueue(sync.KindReminderCreate, json.RawMessage(`{"text":"standup"}`), 3)
	require.NoError(t, err)

	w := doRequest(routes, http.MethodGet, "/v1/sync/pending", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.SyncPendingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, string(sync.KindReminderCreate), resp.Actions[0].Kind)
	assert.Equal(t, string(sync.StatusQueued), resp.Actions[0].Status)
}

func TestControlPlaneSyncNow(t *testing.T) {
	routes, _ := newTestRoutes(t, "")

	w := doRequest(routes, http.MethodPost, "/v1/sync/now", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

type blockingTransport struct{ block chan struct{} }

func (b *blockingTransport) Replay(ctx context.Context, _ *sync.PendingAction) error {
	<-b.block
	return nil
}

func TestControlPlaneSyncNowBusy(t *testing.T) {
	store := sync.NewStore(sync.NewMemoryKV())
	require.NoError(t, store.Load())

	block := make(chan struct{})
	coord := sync.NewCoordinator(store, &blockingTransport{block: block}, &stubMonitor{online: true})
	routes := SetupRoutes(coord, &RouteConfig{
		Auth: middleware.TokenAuthConfig{Token: ""},
	})

	_, err := coord.Enqueue(sync.KindUpload, json.RawMessage(`{}`), 3)
	require.NoError(t, err)

	w := doRequest(routes, http.MethodPost, "/v1/sync/now", "")
	require.Equal(t, http.StatusOK, w.Code)

	// the first trigger still holds the drain lock, the second must get 409
	w = doRequest(routes, http.MethodPost, "/v1/sync/now", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(block)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)
}

func TestControlPlanePrioritize(t *testing.T) {
	routes, coord := newTestRoutes(t, "")

	id, err := coord.Enqueue(sync.KindUpload, json.RawMessage(`{}`), 3)
	require.NoError(t, err)

	w := doRequest(routes, http.MethodPost, "/v1/sync/pending/"+id+"/prioritize", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(routes, http.MethodPost, "/v1/sync/pending/nope/prioritize", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestControlPlaneDismiss(t *testing.T) {
	routes, coord := newTestRoutes(t, "")

	id, err := coord.Enqueue(sync.KindUpload, json.RawMessage(`{}`), 3)
	require.NoError(t, err)

	// still replayable, must not be dismissable
	w := doRequest(routes, http.MethodDelete, "/v1/sync/pending/"+id, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(routes, http.MethodDelete, "/v1/sync/pending/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
