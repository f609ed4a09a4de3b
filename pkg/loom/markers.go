package loom

import "sync"

// In marks a struct for field autowiring. Embedding it tells the generator
// to treat every exported field as an eager dependency even without a
// field-level annotation.
type In struct{}

// Lazy defers resolution of a dependency until Get is called. The generator
// produces a Lazy handle for fields declared as loom.Lazy[T]; resolution
// errors surface from Get instead of the owning provider.
type Lazy[T any] struct {
	state *lazyState[T]
}

type lazyState[T any] struct {
	once      sync.Once
	inj       *Injector
	qualifier string
	value     T
	err       error
}

// Get resolves the dependency on first use and caches the outcome.
func (l Lazy[T]) Get() (T, error) {
	if l.state == nil {
		var zero T
		return zero, newError(ErrCodeNotFound, "lazy handle was never bound", nil)
	}
	l.state.once.Do(func() {
		if l.state.qualifier != "" {
			l.state.value, l.state.err = GetNamed[T](l.state.inj, l.state.qualifier)
			return
		}
		l.state.value, l.state.err = Get[T](l.state.inj)
	})
	return l.state.value, l.state.err
}

// MustGet is Get, panicking on error.
func (l Lazy[T]) MustGet() T {
	v, err := l.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Optional holds a dependency that may be absent. The generator produces an
// Optional for fields declared as loom.Optional[T]; a missing binding yields
// an empty Optional, while a binding that fails to construct errors at
// resolve time.
type Optional[T any] struct {
	value   T
	present bool
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether a value was resolved.
func (o Optional[T]) Present() bool {
	return o.present
}

// OrElse returns the value when present, otherwise the fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// OrElseFunc returns the value when present, otherwise the result of fn.
func (o Optional[T]) OrElseFunc(fn func() T) T {
	if o.present {
		return o.value
	}
	return fn()
}

// Some wraps a present value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}
