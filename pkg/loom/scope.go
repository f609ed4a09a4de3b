package loom

import (
	"errors"
	"io"

	"github.com/google/uuid"
)

var _ io.Closer = (*Scope)(nil)

// Scope is one live instance of a declared scope. Scoped components tied to
// the scope's key are cached here and released on Close; two open instances
// of the same scope never share state.
type Scope struct {
	id  string
	key scopeKey
	inj *Injector
}

func newScope(parent *Injector, key scopeKey) *Scope {
	s := &Scope{
		id:  uuid.NewString(),
		key: key,
	}
	s.inj = newInjector(parent.registry, parent, s)
	return s
}

// ID returns the unique identity of this scope instance.
func (s *Scope) ID() string {
	return s.id
}

// Injector returns the scope's injector. Pass it to the resolution
// functions to resolve scoped components.
func (s *Scope) Injector() *Injector {
	return s.inj
}

// Close releases the scope: cached instances implementing io.Closer are
// closed in reverse creation order and the cache is dropped.
func (s *Scope) Close() error {
	s.inj.mu.Lock()
	closers := s.inj.closers
	s.inj.closers = nil
	s.inj.cache = make(map[*Registration]any)
	s.inj.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, newError(ErrCodeShutdownFailed, "failed to close scoped instance", err))
		}
	}
	return errors.Join(errs...)
}
