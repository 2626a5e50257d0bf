package event

import (
	"sync"
	"testing"

	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu     sync.Mutex
	events []identity.AuthEvent
}

func (r *recorder) listen(evt identity.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) got() []identity.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]identity.AuthEvent(nil), r.events...)
}

func signedIn() identity.AuthEvent {
	return identity.AuthEvent{
		Type: identity.AuthEventSignedIn,
		User: &identity.User{ID: uuid.New(), Email: "a@example.com"},
	}
}

func TestAuthBus_Publish(t *testing.T) {
	bus := NewAuthBus(zap.NewNop())
	rec := &recorder{}
	bus.Subscribe(rec.listen)

	evt := signedIn()
	bus.Publish(evt)

	got := rec.got()
	require.Len(t, got, 1)
	assert.Equal(t, evt.User, got[0].User)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestAuthBus_DeliveryOrder(t *testing.T) {
	bus := NewAuthBus(nil)
	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe(func(identity.AuthEvent) { order = append(order, n) })
	}

	bus.Publish(signedIn())

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestAuthBus_TypeFilter(t *testing.T) {
	bus := NewAuthBus(zap.NewNop())
	rec := &recorder{}
	bus.Subscribe(rec.listen, identity.AuthEventSignedOut)

	bus.Publish(signedIn())
	bus.Publish(identity.AuthEvent{Type: identity.AuthEventSignedOut})

	got := rec.got()
	require.Len(t, got, 1)
	assert.Equal(t, identity.AuthEventSignedOut, got[0].Type)
	assert.Nil(t, got[0].User)
}

func TestAuthBus_Unsubscribe(t *testing.T) {
	bus := NewAuthBus(zap.NewNop())
	rec := &recorder{}
	unsubscribe := bus.Subscribe(rec.listen)

	bus.Publish(signedIn())
	unsubscribe()
	unsubscribe()
	bus.Publish(signedIn())

	assert.Len(t, rec.got(), 1)
	assert.Equal(t, 0, bus.Len())
}

func TestAuthBus_UnsubscribeFromCallback(t *testing.T) {
	bus := NewAuthBus(zap.NewNop())
	rec := &recorder{}

	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(identity.AuthEvent) { unsubscribe() })
	bus.Subscribe(rec.listen)

	bus.Publish(signedIn())
	bus.Publish(signedIn())

	assert.Len(t, rec.got(), 2)
	assert.Equal(t, 1, bus.Len())
}

func TestAuthBus_PanickingListener(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewAuthBus(zap.New(core))
	rec := &recorder{}

	bus.Subscribe(func(identity.AuthEvent) { panic("boom") })
	bus.Subscribe(rec.listen)

	assert.NotPanics(t, func() { bus.Publish(signedIn()) })
	assert.Len(t, rec.got(), 1)
	require.Equal(t, 1, logs.FilterMessage("auth listener panicked").Len())
}

func TestAuthBus_ConcurrentPublish(t *testing.T) {
	bus := NewAuthBus(zap.NewNop())
	rec := &recorder{}
	bus.Subscribe(rec.listen)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(signedIn())
		}()
	}
	wg.Wait()

	assert.Len(t, rec.got(), 50)
}
