package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process TenantStore, SubscriptionStore and
// EventLedger. It backs tests and local development only.
type MemoryStore struct {
	mu            sync.RWMutex
	tenants       map[uuid.UUID]Tenant
	subscriptions map[string]Subscription
	events        map[string]string
}

func NewMemoryStore(tenants ...Tenant) *MemoryStore {
	s := &MemoryStore{
		tenants:       make(map[uuid.UUID]Tenant, len(tenants)),
		subscriptions: make(map[string]Subscription),
		events:        make(map[string]string),
	}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *MemoryStore) UpdateTenantByID(_ context.Context, id uuid.UUID, patch TenantPatch) ([]Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	t = patch.Apply(t)
	s.tenants[id] = t
	return []Tenant{t}, nil
}

func (s *MemoryStore) UpdateTenantsByCustomer(_ context.Context, customerID string, patch TenantPatch) ([]Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated []Tenant
	for id, t := range s.tenants {
		if t.StripeCustomerID != customerID {
			continue
		}
		t = patch.Apply(t)
		s.tenants[id] = t
		updated = append(updated, t)
	}
	return updated, nil
}

func (s *MemoryStore) UpsertSubscription(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[sub.StripeSubscriptionID] = sub
	return nil
}

func (s *MemoryStore) UpdateSubscription(_ context.Context, stripeSubscriptionID string, patch SubscriptionPatch) ([]Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[stripeSubscriptionID]
	if !ok {
		return nil, nil
	}
	sub = patch.Apply(sub)
	s.subscriptions[stripeSubscriptionID] = sub
	return []Subscription{sub}, nil
}

func (s *MemoryStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.events[eventID]
	return ok, nil
}

func (s *MemoryStore) Record(_ context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[eventID] = eventType
	return nil
}

// Tenant returns the stored tenant with id.
func (s *MemoryStore) Tenant(id uuid.UUID) (Tenant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	return t, ok
}

// Subscription returns the mirrored subscription with the provider id.
func (s *MemoryStore) Subscription(stripeSubscriptionID string) (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[stripeSubscriptionID]
	return sub, ok
}
