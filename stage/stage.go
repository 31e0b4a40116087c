// Package stage reports the deployment environment a process runs in, read
// from RUNNING_ENV. It feeds the deployment.environment resource attribute of
// exported traces and logs.
package stage

import (
	"errors"
	"flag"
	"fmt"
	"sync"

	"github.com/amp-labs/amp-fsm/logger"
	"github.com/caarlos0/env/v11"
)

// Stage represents a deployment environment.
type Stage string

// ErrUnrecognizedStage is returned when RUNNING_ENV holds an unknown value.
var ErrUnrecognizedStage = errors.New("unrecognized stage")

const (
	Unknown Stage = "unknown"
	Local   Stage = "local"
	Test    Stage = "test"
	Dev     Stage = "dev"
	Staging Stage = "staging"
	Prod    Stage = "prod"
)

// UnmarshalText accepts the known stage names only.
func (s *Stage) UnmarshalText(text []byte) error {
	switch value := Stage(text); value {
	case Local, Test, Dev, Staging, Prod:
		*s = value

		return nil
	case Unknown:
		fallthrough
	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedStage, string(text))
	}
}

type config struct {
	Stage Stage `env:"RUNNING_ENV"`
}

// Current returns the stage the process runs in. It is resolved once.
func Current() Stage {
	return current()
}

// IsLocal reports whether the process runs on a developer machine.
func IsLocal() bool {
	return Current() == Local
}

// IsProd reports whether the process runs in production.
func IsProd() bool {
	return Current() == Prod
}

var current = sync.OnceValue(func() Stage {
	value := resolve(flag.Lookup("test.v") != nil)

	if value != Unknown {
		logger.Get().Debug("Configured stage", "stage", value)
	}

	return value
})

// resolve reads RUNNING_ENV. An unset or invalid value falls back to Test
// under go test and Unknown otherwise.
func resolve(testing bool) Stage {
	fallback := Unknown
	if testing {
		fallback = Test
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Get().Warn("Ignoring RUNNING_ENV", "error", err)

		return fallback
	}

	if cfg.Stage == "" {
		return fallback
	}

	return cfg.Stage
}
