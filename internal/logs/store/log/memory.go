// Package log persists ingested log records.
package log

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"logdata/internal/logs/models"
)

// InMemory keeps records in insertion order.
type InMemory struct {
	mu      sync.RWMutex
	records []*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Save(_ context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, clone(record))
	return nil
}

// Search returns matching records in insertion order, at most filter.Limit
// when it is positive.
func (s *InMemory) Search(_ context.Context, filter models.SearchFilter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Record, 0)
	for _, r := range s.records {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Matches(r) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func clone(r *models.Record) *models.Record {
	c := *r
	c.Log.Tags = slices.Clone(r.Log.Tags)
	c.Log.Event = maps.Clone(r.Log.Event)
	c.Log.User = maps.Clone(r.Log.User)
	return &c
}
