package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Skotchmaster/momento/internal/apiclient"
	"github.com/Skotchmaster/momento/internal/events"
	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/Skotchmaster/momento/internal/logging"
	"github.com/Skotchmaster/momento/internal/session"
	"github.com/stretchr/testify/require"
)

type recordingUI struct {
	mu       sync.Mutex
	visited  []string
	messages []string
}

func (r *recordingUI) Navigate(_ context.Context, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = append(r.visited, target)
}

func (r *recordingUI) Notify(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingUI) lastVisit() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.visited) == 0 {
		return ""
	}
	return r.visited[len(r.visited)-1]
}

type testEnv struct {
	T      *testing.T
	Shop   *Shop
	KV     *kv.Memory
	UI     *recordingUI
	Events *events.Recorder
	Mux    *http.ServeMux
	Server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := kv.NewMemory()
	sess := session.New(store)
	resolver, err := apiclient.NewResolver(context.Background(), store, apiclient.ResolverOptions{
		Override: srv.URL + "/api",
	})
	require.NoError(t, err)

	ui := &recordingUI{}
	rec := &events.Recorder{}
	shop := New(Deps{
		API:     apiclient.NewClient(resolver, sess, apiclient.WithLogger(logging.Discard())),
		KV:      store,
		Session: sess,
		Events:  rec,
		Nav:     ui,
		Notify:  ui,
		Log:     logging.Discard(),
	})

	return &testEnv{T: t, Shop: shop, KV: store, UI: ui, Events: rec, Mux: mux, Server: srv}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
