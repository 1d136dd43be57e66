package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// IntegrationRegistry is an explicit name to adapter mapping, constructed
// once at process start and passed by reference to every consumer.
type IntegrationRegistry struct {
	mu           sync.RWMutex
	integrations map[string]Integration
}

func NewIntegrationRegistry() *IntegrationRegistry {
	return &IntegrationRegistry{integrations: make(map[string]Integration)}
}

func (r *IntegrationRegistry) Register(integration Integration) error {
	if integration == nil {
		return fmt.Errorf("core: integration is nil")
	}
	id := strings.TrimSpace(integration.ID())
	if id == "" {
		return fmt.Errorf("core: integration id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.integrations[id]; exists {
		return fmt.Errorf("core: integration already registered: %s", id)
	}
	r.integrations[id] = integration
	return nil
}

func (r *IntegrationRegistry) Get(integrationID string) (Integration, bool) {
	id := strings.TrimSpace(integrationID)
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	integration, ok := r.integrations[id]
	r.mu.RUnlock()
	return integration, ok
}

func (r *IntegrationRegistry) List() []Integration {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	integrations := make([]Integration, 0, len(names))
	for _, id := range names {
		integrations = append(integrations, r.integrations[id])
	}
	return integrations
}

func (r *IntegrationRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.integrations))
	for id := range r.integrations {
		names = append(names, id)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
