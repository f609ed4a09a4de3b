package loom

import (
	"fmt"
	"io"
	"sync"
)

// Injector resolves components against a Registry. The root injector caches
// singles; scope injectors cache their scoped components, track every
// retained instance they construct, and delegate everything else upward.
//
// Graph construction is expected to happen on one goroutine. Cached
// instances may be read concurrently afterwards.
type Injector struct {
	registry *Registry
	parent   *Injector
	scope    *Scope
	params   map[string]any

	mu      sync.Mutex
	cache   map[*Registration]any
	hooks   []hookEntry
	closers []io.Closer
	stack   []string
}

type hookEntry struct {
	reg      *Registration
	instance any
}

func newInjector(registry *Registry, parent *Injector, scope *Scope) *Injector {
	return &Injector{
		registry: registry,
		parent:   parent,
		scope:    scope,
		cache:    make(map[*Registration]any),
	}
}

// Args carries runtime parameter values for factory resolution, keyed by
// the annotated field name.
type Args map[string]any

// With returns a derived injector carrying args for GetParam lookups.
func (inj *Injector) With(args Args) *Injector {
	child := newInjector(inj.registry, inj, nil)
	child.params = args
	return child
}

func (inj *Injector) root() *Injector {
	cur := inj
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (inj *Injector) findScope(key scopeKey) *Injector {
	for cur := inj; cur != nil; cur = cur.parent {
		if cur.scope != nil && cur.scope.key == key {
			return cur
		}
	}
	return nil
}

// ownerFor picks the injector that holds on to instances of reg: the cache
// for singles and scoped components, the retention list for retained ones.
// A nil owner means the instance is never tracked.
func (inj *Injector) ownerFor(reg *Registration) (*Injector, error) {
	switch reg.lifecycle {
	case lifecycleFactory:
		return nil, nil
	case lifecycleSingle:
		return inj.root(), nil
	case lifecycleRetained:
		if reg.scope.isZero() {
			return inj.root(), nil
		}
		fallthrough
	default:
		owner := inj.findScope(reg.scope)
		if owner == nil {
			return nil, errScopeMismatch(reg.display(), reg.scope.String())
		}
		return owner, nil
	}
}

func (inj *Injector) resolveKey(key bindingKey) (any, error) {
	reg := inj.registry.lookup(key)
	if reg == nil {
		return nil, errNotFound(key.String())
	}
	return inj.resolveRegistration(reg)
}

func (inj *Injector) resolveRegistration(reg *Registration) (any, error) {
	owner, err := inj.ownerFor(reg)
	if err != nil {
		return nil, err
	}

	// retained components are built on every resolution; only the owner's
	// retention bookkeeping applies, never its cache
	retained := reg.lifecycle == lifecycleRetained

	if owner != nil && !retained {
		owner.mu.Lock()
		v, ok := owner.cache[reg]
		owner.mu.Unlock()
		if ok {
			return v, nil
		}
	}

	for _, name := range inj.stack {
		if name == reg.display() {
			return nil, errCircular(append(append([]string{}, inj.stack...), reg.display()))
		}
	}

	inj.stack = append(inj.stack, reg.display())
	v, err := reg.provider(inj)
	inj.stack = inj.stack[:len(inj.stack)-1]
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, errProviderFailed(reg.display(), err)
	}

	if owner != nil {
		owner.mu.Lock()
		if !retained {
			if cached, ok := owner.cache[reg]; ok {
				owner.mu.Unlock()
				return cached, nil
			}
			owner.cache[reg] = v
		}
		if reg.onStart != nil || reg.onStop != nil {
			owner.hooks = append(owner.hooks, hookEntry{reg: reg, instance: v})
		}
		if retained || reg.lifecycle == lifecycleScoped {
			if closer, ok := v.(io.Closer); ok {
				owner.closers = append(owner.closers, closer)
			}
		}
		owner.mu.Unlock()
	}

	return v, nil
}

// Get resolves the unqualified binding for T.
func Get[T any](inj *Injector) (T, error) {
	return GetNamed[T](inj, "")
}

// GetNamed resolves the binding for T under the given qualifier.
func GetNamed[T any](inj *Injector, qualifier string) (T, error) {
	var zero T
	v, err := inj.resolveKey(bindingKey{typeKey: typeKey[T](), qualifier: qualifier})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newError(
			ErrCodeConversion,
			fmt.Sprintf("binding value has type %T, want %s", v, typeName[T]()),
			nil,
		)
	}
	return typed, nil
}

// All resolves every binding registered under type T, across qualifiers,
// in registration order.
func All[T any](inj *Injector) ([]T, error) {
	regs := inj.registry.lookupAll(typeKey[T]())
	out := make([]T, 0, len(regs))
	for _, reg := range regs {
		v, err := inj.resolveRegistration(reg)
		if err != nil {
			return nil, err
		}
		typed, ok := v.(T)
		if !ok {
			return nil, newError(
				ErrCodeConversion,
				fmt.Sprintf("binding value has type %T, want %s", v, typeName[T]()),
				nil,
			)
		}
		out = append(out, typed)
	}
	return out, nil
}

// Defer returns a Lazy handle for the unqualified binding of T.
func Defer[T any](inj *Injector) Lazy[T] {
	return Lazy[T]{state: &lazyState[T]{inj: inj}}
}

// DeferNamed returns a Lazy handle for the qualified binding of T.
func DeferNamed[T any](inj *Injector, qualifier string) Lazy[T] {
	return Lazy[T]{state: &lazyState[T]{inj: inj, qualifier: qualifier}}
}

// Maybe resolves the unqualified binding of T. An absent binding yields
// None; a registered binding that fails to construct is an error.
func Maybe[T any](inj *Injector) (Optional[T], error) {
	return MaybeNamed[T](inj, "")
}

// MaybeNamed resolves the qualified binding of T. An absent binding yields
// None; a registered binding that fails to construct is an error.
func MaybeNamed[T any](inj *Injector, qualifier string) (Optional[T], error) {
	key := bindingKey{typeKey: typeKey[T](), qualifier: qualifier}
	if inj.registry.lookup(key) == nil {
		return None[T](), nil
	}
	v, err := inj.resolveKey(key)
	if err != nil {
		return None[T](), err
	}
	typed, ok := v.(T)
	if !ok {
		return None[T](), newError(
			ErrCodeConversion,
			fmt.Sprintf("binding value has type %T, want %s", v, typeName[T]()),
			nil,
		)
	}
	return Some(typed), nil
}

// GetParam returns the runtime parameter bound under name, searching the
// injector chain and then the registry defaults.
func GetParam[T any](inj *Injector, name string) (T, error) {
	var zero T
	for cur := inj; cur != nil; cur = cur.parent {
		if v, ok := cur.params[name]; ok {
			typed, ok := v.(T)
			if !ok {
				return zero, newError(
					ErrCodeConversion,
					fmt.Sprintf("parameter %q has type %T, want %s", name, v, typeName[T]()),
					nil,
				)
			}
			return typed, nil
		}
	}
	if v, ok := inj.registry.params[name]; ok {
		typed, ok := v.(T)
		if !ok {
			return zero, newError(
				ErrCodeConversion,
				fmt.Sprintf("parameter %q has type %T, want %s", name, v, typeName[T]()),
				nil,
			)
		}
		return typed, nil
	}
	return zero, newError(
		ErrCodeMissingParam,
		fmt.Sprintf("no value bound for parameter %q", name),
		nil,
	)
}
