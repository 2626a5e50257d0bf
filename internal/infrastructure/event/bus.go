// Package event delivers auth state changes to in-process listeners.
package event

import (
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/domain/identity"
	"go.uber.org/zap"
)

type subscription struct {
	id       uint64
	listener identity.AuthListener
	types    map[identity.AuthEventType]struct{} // nil receives every event
}

func (s *subscription) wants(t identity.AuthEventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// AuthBus fans auth events out to subscribed listeners.
// Delivery is synchronous and in subscription order; a panicking listener
// is logged and does not stop delivery to the others.
type AuthBus struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID uint64
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthBus creates an empty bus
func NewAuthBus(logger *zap.Logger) *AuthBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthBus{
		logger: logger.Named("auth_bus"),
		now:    time.Now,
	}
}

// Subscribe registers a listener for the given event types, or for all
// events when none are given. The returned func is safe to call repeatedly.
func (b *AuthBus) Subscribe(listener identity.AuthListener, types ...identity.AuthEventType) func() {
	sub := &subscription{listener: listener}
	if len(types) > 0 {
		sub.types = make(map[identity.AuthEventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *AuthBus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers evt to every interested listener before returning.
// Listeners may subscribe or unsubscribe from inside a callback.
func (b *AuthBus) Publish(evt identity.AuthEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = b.now()
	}

	b.mu.RLock()
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.wants(evt.Type) {
			b.dispatch(s, evt)
		}
	}
}

// Len returns the number of active subscriptions
func (b *AuthBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *AuthBus) dispatch(s *subscription, evt identity.AuthEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("auth listener panicked",
				zap.String("event_type", string(evt.Type)),
				zap.Uint64("subscription", s.id),
				zap.Any("panic", r),
			)
		}
	}()
	s.listener(evt)
}
