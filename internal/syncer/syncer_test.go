package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"menuops/internal/events"
	"menuops/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	mu      sync.Mutex
	changes []Change
	auth    []string
	status  int
}

func (b *backend) handler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var c Change
	if err := json.NewDecoder(r.Body).Decode(&c); err == nil {
		b.changes = append(b.changes, c)
	}
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	if b.status != 0 {
		w.WriteHeader(b.status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}

func TestClientPost(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	require.NoError(t, c.Post(context.Background(), "/sync", Change{Key: "recipes", Value: json.RawMessage(`[]`)}))
	assert.Equal(t, []string{"Bearer secret"}, b.auth)

	b.status = http.StatusInternalServerError
	err := c.Post(context.Background(), "/sync", Change{Key: "recipes", Value: json.RawMessage(`[]`)})
	assert.Error(t, err)
}

func TestSyncerForwardsStorageEvents(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	defer srv.Close()

	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := events.NewBus(zerolog.Nop())
	stores := store.New(kv, bus)

	s := New(NewClient(srv.URL, "", time.Second), kv, zerolog.Nop())
	s.Start(ctx, bus)

	require.NoError(t, stores.Projects.SetCurrent(ctx, "autumn"))
	require.Eventually(t, func() bool { return b.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, store.KeyCurrentProject, b.changes[0].Key)
	assert.JSONEq(t, `"autumn"`, string(b.changes[0].Value))
	assert.False(t, b.changes[0].Deleted)
}

func TestSyncerFailureDoesNotReachWriter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := events.NewBus(zerolog.Nop())
	stores := store.New(kv, bus)

	// nothing listens on this address
	s := New(NewClient("http://127.0.0.1:1", "", 100*time.Millisecond), kv, zerolog.Nop())
	s.Start(ctx, bus)
	defer s.Stop()

	assert.NoError(t, stores.Projects.SetCurrent(ctx, "autumn"))
}

func TestSyncerReportsDeletedKeys(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	defer srv.Close()

	s := New(NewClient(srv.URL, "", time.Second), store.NewMemoryKV(), zerolog.Nop())
	s.push(context.Background(), "recipe_stubs")

	require.Equal(t, 1, b.count())
	assert.True(t, b.changes[0].Deleted)
}
