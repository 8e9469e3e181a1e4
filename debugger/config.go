package debugger

import (
	"github.com/coregx/regexlab/engine"
)

// Config controls debug sessions.
//
// Example:
//
//	config := debugger.DefaultConfig()
//	config.MaxSteps = 10_000
//	session, err := debugger.NewSession(config)
type Config struct {
	// MaxSteps bounds the cycles of a single pass. A run that needs more is
	// reported as a MatchingEngineError wrapping ErrStepLimit.
	// Default: 1,000,000
	MaxSteps int

	// MaxRepetition bounds counted repetitions {n,m} in debugged patterns.
	// Default: engine.DefaultMaxRepetition
	MaxRepetition int

	// MaxInstructions bounds the size of debugged programs.
	// Default: 65,536
	MaxInstructions int
}

// DefaultConfig returns a configuration suited to interactive debugging of
// short patterns and texts.
func DefaultConfig() Config {
	return Config{
		MaxSteps:        1_000_000,
		MaxRepetition:   engine.DefaultMaxRepetition,
		MaxInstructions: 1 << 16,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.MaxSteps < 1 || c.MaxSteps > 100_000_000 {
		return &ConfigError{
			Field:   "MaxSteps",
			Message: "must be between 1 and 100,000,000",
		}
	}
	if c.MaxRepetition < 1 || c.MaxRepetition > 100_000 {
		return &ConfigError{
			Field:   "MaxRepetition",
			Message: "must be between 1 and 100,000",
		}
	}
	if c.MaxInstructions < 16 || c.MaxInstructions > engine.DefaultMaxInstructions {
		return &ConfigError{
			Field:   "MaxInstructions",
			Message: "must be between 16 and 1,048,576",
		}
	}
	return nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "debugger: invalid config: " + e.Field + ": " + e.Message
}
