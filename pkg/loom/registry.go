package loom

import (
	"context"
	"errors"
	"fmt"
)

// Registry holds the applied modules and the root injector built from them.
type Registry struct {
	entries map[bindingKey]*Registration
	order   []*Registration
	root    *Injector
	props   *properties
	params  map[string]any
	started bool
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	propertyFiles []string
	envFiles      []string
	overrides     map[string]string
	params        map[string]any
}

// WithPropertiesFile loads component properties from a TOML file. Nested
// tables flatten to dotted keys.
func WithPropertiesFile(path string) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.propertyFiles = append(cfg.propertyFiles, path)
	}
}

// WithEnvFile overlays properties from a dotenv file.
func WithEnvFile(path string) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.envFiles = append(cfg.envFiles, path)
	}
}

// WithProperty sets a property value directly, overriding any file or
// environment source.
func WithProperty(key, value string) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.overrides[key] = value
	}
}

// WithParam binds a registry-wide default for a runtime parameter.
func WithParam(name string, value any) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.params[name] = value
	}
}

// NewRegistry builds an empty registry. Property sources are read once,
// here; a missing or malformed file panics because nothing can be resolved
// without it.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{
		overrides: make(map[string]string),
		params:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	props, err := loadProperties(cfg)
	if err != nil {
		panic(err)
	}

	r := &Registry{
		entries: make(map[bindingKey]*Registration),
		props:   props,
		params:  cfg.params,
	}
	r.root = newInjector(r, nil, nil)
	return r
}

// Apply registers every entry of the given modules. A second registration
// under an already-taken (type, qualifier) key fails the whole call.
func (r *Registry) Apply(modules ...*ModuleDef) error {
	for _, m := range modules {
		for _, reg := range m.registrations {
			keys := reg.keys()
			for _, key := range keys {
				if _, exists := r.entries[key]; exists {
					return errDuplicate(key.String())
				}
			}
			for _, key := range keys {
				r.entries[key] = reg
			}
			r.order = append(r.order, reg)
		}
	}
	return nil
}

func (r *Registry) lookup(key bindingKey) *Registration {
	return r.entries[key]
}

// lookupAll returns the registrations bound under a type key, any
// qualifier, in apply order.
func (r *Registry) lookupAll(tk string) []*Registration {
	var out []*Registration
	for _, reg := range r.order {
		for _, key := range reg.keys() {
			if key.typeKey == tk {
				out = append(out, reg)
				break
			}
		}
	}
	return out
}

// Injector returns the root injector.
func (r *Registry) Injector() *Injector {
	return r.root
}

// Size returns the number of applied registrations.
func (r *Registry) Size() int {
	return len(r.order)
}

// Start eagerly constructs every single, then runs start hooks in creation
// order. Construction order follows the dependency graph, so a hook never
// runs before the hooks of its dependencies.
func (r *Registry) Start(ctx context.Context) error {
	if r.started {
		return newError(ErrCodeAlreadyStarted, "registry already started", nil)
	}
	for _, reg := range r.order {
		if reg.lifecycle != lifecycleSingle {
			continue
		}
		if _, err := r.root.resolveRegistration(reg); err != nil {
			return newError(ErrCodeStartupFailed, fmt.Sprintf("failed to construct %s", reg.display()), err)
		}
	}
	for _, entry := range r.root.hooks {
		if entry.reg.onStart == nil {
			continue
		}
		if err := entry.reg.onStart(ctx, entry.instance); err != nil {
			return newError(ErrCodeStartupFailed, fmt.Sprintf("failed to start %s", entry.reg.display()), err)
		}
	}
	r.started = true
	return nil
}

// Stop runs stop hooks in reverse creation order, then closes retained
// instances. All errors are reported, not just the first.
func (r *Registry) Stop(ctx context.Context) error {
	var errs []error
	hooks := r.root.hooks
	for i := len(hooks) - 1; i >= 0; i-- {
		if hooks[i].reg.onStop == nil {
			continue
		}
		if err := hooks[i].reg.onStop(ctx, hooks[i].instance); err != nil {
			errs = append(errs, newError(ErrCodeShutdownFailed, fmt.Sprintf("failed to stop %s", hooks[i].reg.display()), err))
		}
	}
	closers := r.root.closers
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, newError(ErrCodeShutdownFailed, "failed to close retained instance", err))
		}
	}
	r.started = false
	return errors.Join(errs...)
}

// OpenScope opens an instance of the named scope. Scoped components tied to
// the name resolve through the returned scope's injector.
func (r *Registry) OpenScope(name string) *Scope {
	return newScope(r.root, scopeKey{name: name})
}

// OpenScopeOf opens an instance of the scope keyed by type S.
func OpenScopeOf[S any](r *Registry) *Scope {
	return newScope(r.root, scopeKey{typeKey: typeKey[S]()})
}

// Resolve resolves the unqualified binding for T from the root injector.
func Resolve[T any](r *Registry) (T, error) {
	return Get[T](r.root)
}

// ResolveNamed resolves the qualified binding for T from the root injector.
func ResolveNamed[T any](r *Registry, qualifier string) (T, error) {
	return GetNamed[T](r.root, qualifier)
}

// ResolveAll resolves every binding of type T from the root injector.
func ResolveAll[T any](r *Registry) ([]T, error) {
	return All[T](r.root)
}

// ResolveWith resolves T with runtime parameters bound for the duration of
// the resolution. Factories read them through their annotated param fields.
func ResolveWith[T any](r *Registry, args Args) (T, error) {
	return Get[T](r.root.With(args))
}

// MustResolve is Resolve, panicking on error.
func MustResolve[T any](r *Registry) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}
