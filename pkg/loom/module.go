package loom

import "context"

type lifecycle int

const (
	lifecycleSingle lifecycle = iota
	lifecycleFactory
	lifecycleRetained
	lifecycleScoped
)

func (l lifecycle) String() string {
	switch l {
	case lifecycleSingle:
		return "single"
	case lifecycleFactory:
		return "factory"
	case lifecycleRetained:
		return "retained"
	case lifecycleScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

type scopeKey struct {
	name    string
	typeKey string
}

func (k scopeKey) isZero() bool {
	return k.name == "" && k.typeKey == ""
}

func (k scopeKey) String() string {
	if k.name != "" {
		return "\"" + k.name + "\""
	}
	return k.typeKey
}

// Registration describes one component: its provider, the keys it is bound
// under, and its lifecycle. Values are built by Single, Factory, Retained
// and Scoped; generated code is the usual author.
type Registration struct {
	lifecycle   lifecycle
	provider    func(*Injector) (any, error)
	selfKey     string
	displayName string
	qualifier   string
	extraKeys   []string
	withoutSelf bool
	scope       scopeKey
	onStart     func(context.Context, any) error
	onStop      func(context.Context, any) error
}

func (r *Registration) display() string {
	if r.qualifier == "" {
		return r.displayName
	}
	return r.displayName + "#" + r.qualifier
}

// keys returns every binding key the registration answers to.
func (r *Registration) keys() []bindingKey {
	var keys []bindingKey
	if !r.withoutSelf {
		keys = append(keys, bindingKey{typeKey: r.selfKey, qualifier: r.qualifier})
	}
	for _, extra := range r.extraKeys {
		keys = append(keys, bindingKey{typeKey: extra, qualifier: r.qualifier})
	}
	return keys
}

// RegistrationOption configures a Registration.
type RegistrationOption func(*Registration)

// Named attaches a qualifier to every binding of the registration.
func Named(qualifier string) RegistrationOption {
	return func(r *Registration) {
		r.qualifier = qualifier
	}
}

// As additionally binds the component under interface type I.
func As[I any]() RegistrationOption {
	return func(r *Registration) {
		r.extraKeys = append(r.extraKeys, typeKey[I]())
	}
}

// WithoutSelf drops the concrete self binding, leaving only the keys added
// with As. Emitted when an explicit binds list replaces detection.
func WithoutSelf() RegistrationOption {
	return func(r *Registration) {
		r.withoutSelf = true
	}
}

// InScope ties the component to the named scope.
func InScope(name string) RegistrationOption {
	return func(r *Registration) {
		r.scope = scopeKey{name: name}
	}
}

// InScopeOf ties the component to the scope keyed by type S.
func InScopeOf[S any]() RegistrationOption {
	return func(r *Registration) {
		r.scope = scopeKey{typeKey: typeKey[S]()}
	}
}

// WithStart registers a start hook run by Registry.Start in creation order.
func WithStart[T any](fn func(context.Context, *T) error) RegistrationOption {
	return func(r *Registration) {
		r.onStart = func(ctx context.Context, v any) error {
			return fn(ctx, v.(*T))
		}
	}
}

// WithStop registers a stop hook run by Registry.Stop in reverse creation
// order.
func WithStop[T any](fn func(context.Context, *T) error) RegistrationOption {
	return func(r *Registration) {
		r.onStop = func(ctx context.Context, v any) error {
			return fn(ctx, v.(*T))
		}
	}
}

func newRegistration[T any](lc lifecycle, provider func(*Injector) (*T, error), opts []RegistrationOption) *Registration {
	r := &Registration{
		lifecycle:   lc,
		selfKey:     typeKey[*T](),
		displayName: typeName[*T](),
		provider: func(inj *Injector) (any, error) {
			return provider(inj)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Single registers a singleton cached on the root injector.
func Single[T any](provider func(*Injector) (*T, error), opts ...RegistrationOption) *Registration {
	return newRegistration(lifecycleSingle, provider, opts)
}

// Factory registers a component constructed anew on every resolution.
func Factory[T any](provider func(*Injector) (*T, error), opts ...RegistrationOption) *Registration {
	return newRegistration(lifecycleFactory, provider, opts)
}

// Retained registers a component held until its owner is torn down: the
// enclosing scope when one is set, otherwise the registry.
func Retained[T any](provider func(*Injector) (*T, error), opts ...RegistrationOption) *Registration {
	return newRegistration(lifecycleRetained, provider, opts)
}

// Scoped registers a per-scope singleton. Resolution outside an open
// matching scope fails.
func Scoped[T any](provider func(*Injector) (*T, error), opts ...RegistrationOption) *Registration {
	return newRegistration(lifecycleScoped, provider, opts)
}

// ModuleDef groups the registrations generated for one package.
type ModuleDef struct {
	name          string
	registrations []*Registration
}

// Module builds a ModuleDef. Generated registries declare
// var LoomModule = loom.Module("pkg", ...).
func Module(name string, registrations ...*Registration) *ModuleDef {
	return &ModuleDef{name: name, registrations: registrations}
}

// Name returns the package name the module was generated for.
func (m *ModuleDef) Name() string {
	return m.name
}
