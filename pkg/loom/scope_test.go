package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutCart struct {
	items  []string
	closed bool
}

func (c *checkoutCart) Close() error {
	c.closed = true
	return nil
}

type userSession struct {
	id string
}

func cartModule() *ModuleDef {
	return Module("checkout",
		Scoped(func(inj *Injector) (*checkoutCart, error) {
			return &checkoutCart{}, nil
		}, InScope("checkout")),
	)
}

func TestScope_ScopedCachedPerScopeInstance(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Apply(cartModule()))

	first := reg.OpenScope("checkout")
	second := reg.OpenScope("checkout")
	assert.NotEqual(t, first.ID(), second.ID())

	cartA1, err := Get[*checkoutCart](first.Injector())
	require.NoError(t, err)
	cartA2, err := Get[*checkoutCart](first.Injector())
	require.NoError(t, err)
	cartB, err := Get[*checkoutCart](second.Injector())
	require.NoError(t, err)

	assert.Same(t, cartA1, cartA2)
	assert.NotSame(t, cartA1, cartB)
}

func TestScope_ScopedOutsideScopeFails(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Apply(cartModule()))

	_, err := Resolve[*checkoutCart](reg)
	require.Error(t, err)
	assert.True(t, IsScopeMismatch(err))
}

func TestScope_RetainedBuiltPerResolution(t *testing.T) {
	calls := 0
	reg := NewRegistry()
	require.NoError(t, reg.Apply(Module("checkout",
		Retained(func(inj *Injector) (*checkoutCart, error) {
			calls++
			return &checkoutCart{}, nil
		}, InScope("checkout")),
	)))

	scope := reg.OpenScope("checkout")
	first, err := Get[*checkoutCart](scope.Injector())
	require.NoError(t, err)
	second, err := Get[*checkoutCart](scope.Injector())
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.NotSame(t, first, second)

	// every constructed instance is retained until the scope closes
	require.NoError(t, scope.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestScope_CloseReleasesRetainedInstances(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Apply(Module("checkout",
		Retained(func(inj *Injector) (*checkoutCart, error) {
			return &checkoutCart{}, nil
		}, InScope("checkout")),
	)))

	scope := reg.OpenScope("checkout")
	cart, err := Get[*checkoutCart](scope.Injector())
	require.NoError(t, err)
	assert.False(t, cart.closed)

	require.NoError(t, scope.Close())
	assert.True(t, cart.closed)

	// after Close the scope is empty; a new resolution builds a new cart
	fresh, err := Get[*checkoutCart](scope.Injector())
	require.NoError(t, err)
	assert.NotSame(t, cart, fresh)
}

func TestScope_TypedScopeKey(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Apply(Module("auth",
		Scoped(func(inj *Injector) (*checkoutCart, error) {
			return &checkoutCart{}, nil
		}, InScopeOf[*userSession]()),
	)))

	scope := OpenScopeOf[*userSession](reg)
	_, err := Get[*checkoutCart](scope.Injector())
	require.NoError(t, err)

	// a named scope does not satisfy a type-keyed one
	named := reg.OpenScope("userSession")
	_, err = Get[*checkoutCart](named.Injector())
	require.Error(t, err)
	assert.True(t, IsScopeMismatch(err))
}

func TestScope_SinglesResolveThroughScopeInjector(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Apply(Module("app",
		Single(provideConn),
		Scoped(func(inj *Injector) (*testStore, error) {
			conn, err := Get[*testConn](inj)
			if err != nil {
				return nil, err
			}
			return &testStore{conn: conn}, nil
		}, InScope("request")),
	)))

	scope := reg.OpenScope("request")
	store, err := Get[*testStore](scope.Injector())
	require.NoError(t, err)

	rootConn, err := Resolve[*testConn](reg)
	require.NoError(t, err)
	assert.Same(t, rootConn, store.conn)
}

func TestRegistry_RetainedWithoutScopeClosedOnStop(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Apply(Module("checkout",
		Retained(func(inj *Injector) (*checkoutCart, error) {
			return &checkoutCart{}, nil
		}),
	)))

	cart, err := Resolve[*checkoutCart](reg)
	require.NoError(t, err)
	other, err := Resolve[*checkoutCart](reg)
	require.NoError(t, err)
	assert.NotSame(t, cart, other)

	require.NoError(t, reg.Stop(t.Context()))
	assert.True(t, cart.closed)
	assert.True(t, other.closed)
}
