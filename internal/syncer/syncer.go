package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"menuops/internal/events"
	"menuops/internal/store"

	"github.com/rs/zerolog"
)

// Change is the body posted for every changed key
type Change struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Deleted   bool            `json:"deleted,omitempty"`
	ChangedAt time.Time       `json:"changedAt"`
}

// Syncer forwards storage events to the backend on its own goroutine
type Syncer struct {
	client *Client
	kv     store.KV
	log    zerolog.Logger
	queue  chan string

	mu    sync.Mutex
	unsub func()
	wg    sync.WaitGroup
}

// New creates a syncer reading values from kv
func New(client *Client, kv store.KV, log zerolog.Logger) *Syncer {
	return &Syncer{
		client: client,
		kv:     kv,
		log:    log.With().Str("component", "syncer").Logger(),
		queue:  make(chan string, 256),
	}
}

// Start subscribes to storage events and runs the sender until ctx is done
// or Stop is called
func (s *Syncer) Start(ctx context.Context, bus *events.Bus) {
	s.mu.Lock()
	s.unsub = bus.Subscribe(func(e events.Event) {
		if e.Key != "" {
			s.enqueue(e.Key)
		}
	}, events.Storage)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-s.queue:
				if !ok {
					return
				}
				s.push(ctx, key)
			}
		}
	}()
}

// Stop unsubscribes and waits for the in-flight request
func (s *Syncer) Stop() {
	s.mu.Lock()
	if s.unsub == nil {
		s.mu.Unlock()
		return
	}
	s.unsub()
	s.unsub = nil
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Syncer) enqueue(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub == nil {
		return
	}
	select {
	case s.queue <- key:
	default:
		s.log.Warn().Str("key", key).Msg("sync queue full, dropping change")
	}
}

func (s *Syncer) push(ctx context.Context, key string) {
	change := Change{Key: key, ChangedAt: time.Now()}
	value, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		change.Deleted = true
		change.Value = json.RawMessage("null")
	case err != nil:
		s.log.Warn().Err(err).Str("key", key).Msg("could not read changed key")
		return
	case len(value) == 0:
		change.Value = json.RawMessage("null")
	default:
		change.Value = json.RawMessage(value)
	}

	if err := s.client.Post(ctx, "/sync", change); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("backend sync failed")
		return
	}
	s.log.Debug().Str("key", key).Msg("synced")
}
