// Package loom is the runtime half of the loom dependency injection
// toolchain. The generator emits one autogen_registry.go per package; each
// file declares provider functions and a LoomModule variable built from the
// constructors in this package.
//
// A program wires itself together by applying the generated modules to a
// Registry and starting it:
//
//	reg := loom.NewRegistry(loom.WithPropertiesFile("app.toml"))
//	if err := reg.Apply(store.LoomModule, api.LoomModule); err != nil {
//		log.Fatal(err)
//	}
//	if err := reg.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer reg.Stop(context.Background())
//
//	svc, err := loom.Resolve[*api.Server](reg)
//
// Components are resolved by (type, qualifier) key. Singles are cached on
// the root injector, factories are constructed on every resolution, and
// retained or scoped components live inside an open Scope until it is
// closed.
package loom
