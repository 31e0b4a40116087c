package statemachine

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/amp-labs/amp-fsm/sanitize"
	"gopkg.in/yaml.v3"
)

// Config is the declarative form of a machine.
type Config struct {
	Name               string         `json:"name"                         yaml:"name"`
	InitialState       string         `json:"initialState,omitempty"       yaml:"initialState,omitempty"`
	MoveGuards         []CallbackRef  `json:"moveGuards,omitempty"         yaml:"moveGuards,omitempty"`
	OnBeforeTransition []CallbackRef  `json:"onBeforeTransition,omitempty" yaml:"onBeforeTransition,omitempty"`
	OnAfterTransition  []CallbackRef  `json:"onAfterTransition,omitempty"  yaml:"onAfterTransition,omitempty"`
	Luggage            map[string]any `json:"luggage,omitempty"            yaml:"luggage,omitempty"`
	States             []StateConfig  `json:"states"                       yaml:"states"`
}

// StateConfig defines the configuration for a state.
type StateConfig struct {
	Name          string             `json:"name"                    yaml:"name"`
	Label         string             `json:"label,omitempty"         yaml:"label,omitempty"`
	GuardEnter    []CallbackRef      `json:"guardEnter,omitempty"    yaml:"guardEnter,omitempty"`
	GuardLeave    []CallbackRef      `json:"guardLeave,omitempty"    yaml:"guardLeave,omitempty"`
	OnEnter       []CallbackRef      `json:"onEnter,omitempty"       yaml:"onEnter,omitempty"`
	OnLeave       []CallbackRef      `json:"onLeave,omitempty"       yaml:"onLeave,omitempty"`
	TransitionsTo []TransitionConfig `json:"transitionsTo,omitempty" yaml:"transitionsTo,omitempty"`
}

// TransitionConfig defines the configuration for a transition.
type TransitionConfig struct {
	To              string        `json:"to"                        yaml:"to"`
	Label           string        `json:"label,omitempty"           yaml:"label,omitempty"`
	GuardTransition []CallbackRef `json:"guardTransition,omitempty" yaml:"guardTransition,omitempty"`
	OnTransition    []CallbackRef `json:"onTransition,omitempty"    yaml:"onTransition,omitempty"`
}

// CallbackRef points at a registered callback by Name or carries an inline Lua
// script. In YAML a bare string is shorthand for {name: <string>}.
type CallbackRef struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Key  string `json:"key,omitempty"  yaml:"key,omitempty"`
	Lua  string `json:"lua,omitempty"  yaml:"lua,omitempty"`
}

// UnmarshalYAML accepts either a scalar name or a mapping.
func (c *CallbackRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		c.Name = value.Value

		return nil
	}

	type plain CallbackRef

	var ref plain

	if err := value.Decode(&ref); err != nil {
		return err
	}

	*c = CallbackRef(ref)

	return nil
}

// MarshalYAML writes a plain name reference back as a scalar.
func (c CallbackRef) MarshalYAML() (any, error) {
	if c.Key == "" && c.Lua == "" {
		return c.Name, nil
	}

	type plain CallbackRef

	return plain(c), nil
}

// Validate checks that exactly one of Name and Lua is set.
func (c CallbackRef) Validate() error {
	if (c.Name == "") == (c.Lua == "") {
		return ErrInvalidCallbackRef
	}

	return nil
}

// displayName is how an unresolved reference is shown.
func (c CallbackRef) displayName() string {
	if c.Lua != "" {
		return "lua"
	}

	return c.Name
}

// LoadConfig loads a configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads a configuration from YAML bytes. Input in
// another encoding, such as UTF-16 written by some editors, is decoded to
// UTF-8 first.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	data, _ = sanitize.UTF8(data)

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from a filesystem such as embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks names and callback references. Transition targets are
// deliberately not checked against the declared states: an undeclared target is
// rejected when a move to it is attempted.
func (c *Config) Validate() error {
	if len(c.States) == 0 {
		return ErrEmptyStateTable
	}

	if err := validateRefs("moveGuards", c.MoveGuards); err != nil {
		return err
	}

	if err := validateRefs("onBeforeTransition", c.OnBeforeTransition); err != nil {
		return err
	}

	if err := validateRefs("onAfterTransition", c.OnAfterTransition); err != nil {
		return err
	}

	stateNames := make(map[string]bool)

	for _, state := range c.States {
		if state.Name == "" {
			return ErrStateNameRequired
		}

		if stateNames[state.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStateName, state.Name)
		}

		stateNames[state.Name] = true

		for _, list := range []struct {
			field string
			refs  []CallbackRef
		}{
			{"guardEnter", state.GuardEnter},
			{"guardLeave", state.GuardLeave},
			{"onEnter", state.OnEnter},
			{"onLeave", state.OnLeave},
		} {
			if err := validateRefs(list.field, list.refs); err != nil {
				return WrapStateError(state.Name, err)
			}
		}

		for i, transition := range state.TransitionsTo {
			if transition.To == "" {
				return WrapStateError(state.Name, fmt.Errorf("transition %d: %w", i, ErrTransitionToRequired))
			}

			if err := validateRefs("guardTransition", transition.GuardTransition); err != nil {
				return WrapTransitionError(state.Name, transition.To, err)
			}

			if err := validateRefs("onTransition", transition.OnTransition); err != nil {
				return WrapTransitionError(state.Name, transition.To, err)
			}
		}
	}

	return nil
}

func validateRefs(field string, refs []CallbackRef) error {
	for i, ref := range refs {
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
	}

	return nil
}

// BuildTable resolves every callback reference and builds the state table.
func BuildTable[L any](config *Config, registry *Registry[L]) (*StateTable[L], error) {
	if config == nil {
		return nil, ErrConfigNil
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	table := NewStateTable[L]()

	for _, state := range config.States {
		def, err := buildState(state, registry)
		if err != nil {
			return nil, WrapStateError(state.Name, err)
		}

		table.Add(state.Name, def)
	}

	return table, nil
}

func buildState[L any](state StateConfig, registry *Registry[L]) (*StateDefinition[L], error) {
	var (
		def = &StateDefinition[L]{Label: state.Label}
		err error
	)

	if def.GuardEnter, err = registry.ResolveAll(state.GuardEnter); err != nil {
		return nil, fmt.Errorf("guardEnter: %w", err)
	}

	if def.GuardLeave, err = registry.ResolveAll(state.GuardLeave); err != nil {
		return nil, fmt.Errorf("guardLeave: %w", err)
	}

	if def.OnEnter, err = registry.ResolveAll(state.OnEnter); err != nil {
		return nil, fmt.Errorf("onEnter: %w", err)
	}

	if def.OnLeave, err = registry.ResolveAll(state.OnLeave); err != nil {
		return nil, fmt.Errorf("onLeave: %w", err)
	}

	for _, transition := range state.TransitionsTo {
		edge := &TransitionDefinition[L]{To: transition.To, Label: transition.Label}

		if edge.GuardTransition, err = registry.ResolveAll(transition.GuardTransition); err != nil {
			return nil, WrapTransitionError(state.Name, transition.To, err)
		}

		if edge.OnTransition, err = registry.ResolveAll(transition.OnTransition); err != nil {
			return nil, WrapTransitionError(state.Name, transition.To, err)
		}

		def.TransitionsTo = append(def.TransitionsTo, edge)
	}

	return def, nil
}

// NewFromConfig builds a machine from config. The config's name, initial state
// and machine-wide hooks are applied before opts, so opts may override the name
// and append further hooks. Luggage is not taken from the config; pass it with
// WithLuggage.
func NewFromConfig[L any](config *Config, registry *Registry[L], opts ...Option[L]) (*Machine[L], error) {
	table, err := BuildTable(config, registry)
	if err != nil {
		return nil, err
	}

	moveGuards, err := registry.ResolveAll(config.MoveGuards)
	if err != nil {
		return nil, fmt.Errorf("moveGuards: %w", err)
	}

	before, err := registry.ResolveAll(config.OnBeforeTransition)
	if err != nil {
		return nil, fmt.Errorf("onBeforeTransition: %w", err)
	}

	after, err := registry.ResolveAll(config.OnAfterTransition)
	if err != nil {
		return nil, fmt.Errorf("onAfterTransition: %w", err)
	}

	all := make([]Option[L], 0, len(opts)+4) //nolint:mnd
	if config.Name != "" {
		all = append(all, WithName[L](config.Name))
	}

	all = append(all,
		WithMoveGuards(moveGuards...),
		WithBeforeTransition(before...),
		WithAfterTransition(after...),
	)
	all = append(all, opts...)

	return New(table, config.InitialState, all...)
}

// Snapshot describes the config without resolving any callback. CurrentState
// is the state a machine built from the config would start in.
func (c *Config) Snapshot() Snapshot {
	snap := Snapshot{
		Name:             c.Name,
		CurrentState:     c.startState(),
		States:           make([]StateSnapshot, 0, len(c.States)),
		MoveGuards:       describeRefs(c.MoveGuards),
		BeforeTransition: describeRefs(c.OnBeforeTransition),
		AfterTransition:  describeRefs(c.OnAfterTransition),
	}

	for _, state := range c.States {
		ss := StateSnapshot{
			ID:         state.Name,
			Label:      state.Label,
			GuardEnter: describeRefs(state.GuardEnter),
			GuardLeave: describeRefs(state.GuardLeave),
			OnEnter:    describeRefs(state.OnEnter),
			OnLeave:    describeRefs(state.OnLeave),
		}

		for _, transition := range state.TransitionsTo {
			ss.TransitionsTo = append(ss.TransitionsTo, TransitionSnapshot{
				To:              transition.To,
				Label:           transition.Label,
				GuardTransition: describeRefs(transition.GuardTransition),
				OnTransition:    describeRefs(transition.OnTransition),
			})
		}

		snap.States = append(snap.States, ss)
	}

	return snap
}

func (c *Config) startState() string {
	for _, state := range c.States {
		if state.Name == c.InitialState {
			return state.Name
		}
	}

	if len(c.States) == 0 {
		return ""
	}

	return c.States[0].Name
}

func describeRefs(refs []CallbackRef) []CallbackInfo {
	if len(refs) == 0 {
		return nil
	}

	infos := make([]CallbackInfo, len(refs))
	for i, ref := range refs {
		key := ref.Key
		if key == "" && ref.Name != "" {
			key = ref.Name
		}

		infos[i] = CallbackInfo{Key: key, Name: ref.displayName()}
	}

	return infos
}
