package loom

import (
	"fmt"
	"reflect"
	"sync"
)

var typeKeyCache sync.Map

// typeKey produces a stable string key for T, e.g.
// "*github.com/acme/app/store.DiskStore" or
// "github.com/acme/app/store.Reader" for an interface.
func typeKey[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// interface types have no dynamic value; recover via pointer elem
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return typeKeyOf(t)
}

func typeKeyOf(t reflect.Type) string {
	if cached, ok := typeKeyCache.Load(t); ok {
		return cached.(string)
	}
	key := buildTypeKey(t)
	typeKeyCache.Store(t, key)
	return key
}

func buildTypeKey(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind() {
	case reflect.Ptr:
		return "*" + buildTypeKey(t.Elem())
	case reflect.Slice:
		return "[]" + buildTypeKey(t.Elem())
	case reflect.Map:
		return "map[" + buildTypeKey(t.Key()) + "]" + buildTypeKey(t.Elem())
	case reflect.Chan:
		return "chan " + buildTypeKey(t.Elem())
	default:
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

// typeName is the short display form used in error messages.
func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return t.String()
}

type bindingKey struct {
	typeKey   string
	qualifier string
}

func (k bindingKey) String() string {
	if k.qualifier == "" {
		return k.typeKey
	}
	return fmt.Sprintf("%s#%s", k.typeKey, k.qualifier)
}
