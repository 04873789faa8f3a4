package tenant

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"logdata/internal/tenant/models"
	id "logdata/pkg/domain"
	"logdata/pkg/platform/sentinel"
)

// InMemory stores tenants in process memory. Names are matched exactly.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	nameIdx map[string]id.TenantID
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[id.TenantID]*models.Tenant),
		nameIdx: make(map[string]id.TenantID),
	}
}

// CreateIfNameAvailable atomically creates the tenant if the name is not already taken.
func (s *InMemory) CreateIfNameAvailable(_ context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nameIdx[t.Name]; exists {
		return fmt.Errorf("tenant name must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	s.tenants[t.ID] = clone(t)
	s.nameIdx[t.Name] = t.ID
	return nil
}

// FindByName retrieves a tenant by its exact name.
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tenantID, ok := s.nameIdx[name]; ok {
		return clone(s.tenants[tenantID]), nil
	}
	return nil, sentinel.ErrNotFound
}

func clone(t *models.Tenant) *models.Tenant {
	c := *t
	c.AlertRecipients = slices.Clone(t.AlertRecipients)
	return &c
}
