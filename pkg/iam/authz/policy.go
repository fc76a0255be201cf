package authz

import (
	"context"
	"sync"

	"github.com/roastery-dev/roastery/pkg/kernel"
)

// Kind names a policy type. Handlers are registered per kind.
type Kind string

// Policy is a declarative access rule attached to a route. Concrete policies
// carry their own parameters; the kind routes evaluation to a handler.
type Policy interface {
	Kind() Kind
}

// Handler evaluates one policy kind against the calling principal. A nil
// return grants access; any error denies it.
type Handler func(ctx context.Context, policy Policy, active kernel.ActiveUser) error

// HandlerStorage maps policy kinds to their handlers. Registration happens
// during container wiring; lookups are read-only after that.
type HandlerStorage struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
}

func NewHandlerStorage() *HandlerStorage {
	return &HandlerStorage{handlers: make(map[Kind]Handler)}
}

// Add registers the handler for a kind, replacing any previous one.
func (s *HandlerStorage) Add(kind Kind, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = handler
}

// Get returns the handler for a kind.
func (s *HandlerStorage) Get(kind Kind) (Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handler, ok := s.handlers[kind]
	return handler, ok
}

// Require returns ErrHandlerMissing for the first of the kinds that has no
// registered handler. Containers call this at startup so a route declaring
// an unhandled policy fails the boot instead of a request.
func (s *HandlerStorage) Require(kinds ...Kind) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, kind := range kinds {
		if _, ok := s.handlers[kind]; !ok {
			return ErrHandlerMissing(kind)
		}
	}
	return nil
}

// Evaluate runs every policy through its handler. The first denial wins.
func (s *HandlerStorage) Evaluate(ctx context.Context, active kernel.ActiveUser, policies ...Policy) error {
	for _, policy := range policies {
		handler, ok := s.Get(policy.Kind())
		if !ok {
			return ErrHandlerMissing(policy.Kind())
		}
		if err := handler(ctx, policy, active); err != nil {
			return err
		}
	}
	return nil
}
