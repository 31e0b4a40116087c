package main

import (
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// loadConfig loads the machine config at path. Errors carry the path for logging.
func loadConfig(path string) (*statemachine.Config, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return nil, logger.AnnotateError(err, "path", path)
	}

	return config, nil
}
