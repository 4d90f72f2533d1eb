package store

import (
	"context"
	"sync"

	"menuops/internal/models"
)

// DefaultHistoryCap bounds vendor_price_history
const DefaultHistoryCap = 1000

// PriceHistoryStore is the append-only price change log
type PriceHistoryStore struct {
	backend
	mu sync.Mutex
}

// All returns the log oldest first
func (s *PriceHistoryStore) All(ctx context.Context) ([]models.PriceChange, error) {
	var log []models.PriceChange
	if _, err := s.load(ctx, KeyPriceHistory, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// Append adds an entry and evicts the oldest entries beyond limit
func (s *PriceHistoryStore) Append(ctx context.Context, change models.PriceChange, limit int) error {
	if limit <= 0 {
		limit = DefaultHistoryCap
	}
	s.mu.Lock()
	err := s.appendLocked(ctx, change, limit)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(KeyPriceHistory)
	return nil
}

func (s *PriceHistoryStore) appendLocked(ctx context.Context, change models.PriceChange, limit int) error {
	log, err := s.All(ctx)
	if err != nil {
		return err
	}
	log = append(log, change)
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	return s.write(ctx, KeyPriceHistory, log)
}
