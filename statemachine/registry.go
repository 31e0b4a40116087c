package statemachine

import (
	"fmt"
	"slices"
	"sort"
)

// ScriptCompiler turns an inline script into a callback.
type ScriptCompiler[L any] interface {
	Compile(key, source string) (Callback[L], error)
}

// Registry resolves the callback references found in a Config.
type Registry[L any] struct {
	callbacks map[string]Callback[L]
	compiler  ScriptCompiler[L]
}

// NewRegistry creates an empty registry.
func NewRegistry[L any]() *Registry[L] {
	return &Registry[L]{
		callbacks: make(map[string]Callback[L]),
	}
}

// Register stores cb under name. Registering a name twice replaces it.
func (r *Registry[L]) Register(name string, cb Callback[L]) *Registry[L] {
	r.callbacks[name] = cb

	return r
}

// RegisterGuard stores fn as a guard under name.
func (r *Registry[L]) RegisterGuard(name string, fn GuardFunc[L]) *Registry[L] {
	return r.Register(name, NewGuard(name, fn))
}

// RegisterEvent stores fn as an event under name.
func (r *Registry[L]) RegisterEvent(name string, fn EventFunc[L]) *Registry[L] {
	return r.Register(name, NewEvent(name, fn))
}

// WithScriptCompiler sets the compiler used for inline script references.
func (r *Registry[L]) WithScriptCompiler(compiler ScriptCompiler[L]) *Registry[L] {
	r.compiler = compiler

	return r
}

// Names returns the registered names, sorted.
func (r *Registry[L]) Names() []string {
	names := make([]string, 0, len(r.callbacks))
	for name := range r.callbacks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve returns the callback ref points at. A ref with an explicit key is
// re-declared under that key.
func (r *Registry[L]) Resolve(ref CallbackRef) (Callback[L], error) { //nolint:ireturn
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	if ref.Lua != "" {
		if r.compiler == nil {
			return nil, ErrNoScriptCompiler
		}

		key := ref.Key
		if key == "" {
			key = "lua"
		}

		cb, err := r.compiler.Compile(key, ref.Lua)
		if err != nil {
			return nil, fmt.Errorf("failed to compile script %q: %w", key, err)
		}

		return cb, nil
	}

	cb, ok := r.callbacks[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrCallbackNotFound, ref.Name, r.Names())
	}

	if ref.Key != "" && ref.Key != cb.Key() {
		return WithKey(ref.Key, cb), nil
	}

	return cb, nil
}

// ResolveAll resolves refs in order.
func (r *Registry[L]) ResolveAll(refs []CallbackRef) ([]Callback[L], error) {
	if len(refs) == 0 {
		return nil, nil
	}

	out := make([]Callback[L], 0, len(refs))

	for i, ref := range refs {
		cb, err := r.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("callback %d: %w", i, err)
		}

		out = append(out, cb)
	}

	return slices.Clip(out), nil
}
