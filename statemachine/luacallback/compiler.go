// Package luacallback compiles inline Lua scripts into statemachine callbacks.
//
// A script sees the globals from, to, phase, current_state and luggage. In a
// guard phase its result is the guard's verdict under Lua truthiness and any
// change to luggage is dropped. In an event phase its result is ignored and the
// top-level luggage entries the script changed are handed back to the Bridge.
// Entries the script left alone are never written, so values Lua cannot
// represent (times, structs, integers beyond 2^53) survive untouched.
//
// A single expression may omit the return keyword:
//
//	guardEnter:
//	  - lua: luggage.items > 0
//	    key: has_items
package luacallback

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shopify/go-lua"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// ErrSyntax indicates a script failed to parse.
var ErrSyntax = errors.New("lua syntax error")

// ScriptError is the panic value raised when a script fails at runtime.
type ScriptError struct {
	Key   string
	Phase statemachine.Phase
	Err   error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua script %q failed in %s: %v", e.Key, e.Phase, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Option configures a Compiler.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger behind the log() function scripts may call.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Compiler turns Lua sources into callbacks. It implements
// statemachine.ScriptCompiler.
type Compiler[L any] struct {
	bridge Bridge[L]
	logger *slog.Logger
}

var _ statemachine.ScriptCompiler[map[string]any] = (*Compiler[map[string]any])(nil)

// NewCompiler creates a compiler exchanging luggage through bridge. A nil
// bridge exposes luggage as nil.
func NewCompiler[L any](bridge Bridge[L], opts ...Option) *Compiler[L] {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if bridge == nil {
		bridge = NewBridge[L](nil, nil)
	}

	return &Compiler[L]{bridge: bridge, logger: o.logger}
}

// Compile checks source and returns a callback declared under key.
func (c *Compiler[L]) Compile(key, source string) (statemachine.Callback[L], error) { //nolint:ireturn
	chunk, err := normalize(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, key, err)
	}

	return &script[L]{
		key:    key,
		source: chunk,
		bridge: c.bridge,
		logger: c.logger,
	}, nil
}

// normalize returns source as a chunk, prefixing a bare expression with return.
func normalize(source string) (string, error) {
	if expr := "return " + source; parses(expr) == nil {
		return expr, nil
	}

	if err := parses(source); err != nil {
		return "", err
	}

	return source, nil
}

func parses(chunk string) error {
	return lua.LoadString(lua.NewState(), chunk)
}

type script[L any] struct {
	key    string
	source string
	bridge Bridge[L]
	logger *slog.Logger
}

func (s *script[L]) Key() string {
	return s.key
}

func (s *script[L]) DisplayName() string {
	return "lua"
}

// Invoke runs the script in a fresh interpreter. Runtime errors panic with a *ScriptError.
func (s *script[L]) Invoke(from, to string, luggage L, phase statemachine.Phase, m *statemachine.Machine[L]) bool {
	state := lua.NewState()
	lua.OpenLibraries(state)

	current := ""
	if m != nil {
		current = m.CurrentState()
	}

	s.setGlobals(state, from, to, phase, current)

	pushValue(state, s.bridge.ToLua(luggage))
	state.SetGlobal("luggage")

	var pushed map[string]any
	if !phase.IsGuard() {
		pushed = luggageGlobal(state)
	}

	if err := lua.LoadString(state, s.source); err != nil {
		panic(&ScriptError{Key: s.key, Phase: phase, Err: err})
	}

	if err := state.ProtectedCall(0, 1, 0); err != nil {
		panic(&ScriptError{Key: s.key, Phase: phase, Err: err})
	}

	verdict := state.ToBoolean(-1)
	state.Pop(1)

	if phase.IsGuard() {
		return verdict
	}

	after := luggageGlobal(state)
	if after == nil {
		return true
	}

	if changes := changedEntries(pushed, after); len(changes) > 0 {
		s.bridge.FromLua(changes, luggage)
	}

	return true
}

// luggageGlobal converts the luggage global back to Go values, or returns nil
// when the script replaced it with something other than a table.
func luggageGlobal(state *lua.State) map[string]any {
	state.Global("luggage")
	defer state.Pop(1)

	if state.TypeOf(-1) != lua.TypeTable {
		return nil
	}

	return tableToMap(state, -1)
}

func (s *script[L]) setGlobals(state *lua.State, from, to string, phase statemachine.Phase, current string) {
	for name, value := range map[string]string{
		"from":          from,
		"to":            to,
		"phase":         phase.String(),
		"current_state": current,
	} {
		state.PushString(value)
		state.SetGlobal(name)
	}

	state.PushGoFunction(func(state *lua.State) int {
		message := lua.CheckString(state, 1)
		s.logger.Info("Lua script log",
			"script", s.key,
			"phase", phase.String(),
			"message", message,
		)

		return 0
	})
	state.SetGlobal("log")
}
