package match

import (
	"github.com/coregx/regexlab/engine"
	"github.com/coregx/regexlab/syntax"
)

// Config controls matcher compilation and search limits.
//
// Example:
//
//	config := match.DefaultConfig()
//	config.EnablePrefilter = false // try every start position
//	m, err := match.Compile(`\d+`, nil, config)
type Config struct {
	// EnablePrefilter enables literal-based candidate search.
	// Default: true
	EnablePrefilter bool

	// MaxLiterals limits the literals extracted for the prefilter.
	// Default: 64
	MaxLiterals int

	// MaxCycles bounds the engine cycles of one search. A search that needs
	// more fails with ErrCycleLimit.
	// Default: 10,000,000
	MaxCycles int

	// MaxMatches bounds the number of matches returned by FindAll.
	// Default: 10,000
	MaxMatches int

	// MaxRecursionDepth limits group nesting in the pattern.
	// Default: syntax.DefaultMaxDepth
	MaxRecursionDepth int

	// MaxRepetition bounds counted repetitions {n,m}.
	// Default: engine.DefaultMaxRepetition
	MaxRepetition int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnablePrefilter:   true,
		MaxLiterals:       64,
		MaxCycles:         10_000_000,
		MaxMatches:        10_000,
		MaxRecursionDepth: syntax.DefaultMaxDepth,
		MaxRepetition:     engine.DefaultMaxRepetition,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxLiterals: 1 to 1,000 (checked only with the prefilter enabled)
//   - MaxCycles: 1 to 1,000,000,000
//   - MaxMatches: 1 to 1,000,000
//   - MaxRecursionDepth: 10 to 1,000
//   - MaxRepetition: 1 to 100,000
func (c Config) Validate() error {
	if c.EnablePrefilter && (c.MaxLiterals < 1 || c.MaxLiterals > 1_000) {
		return &ConfigError{
			Field:   "MaxLiterals",
			Message: "must be between 1 and 1,000",
		}
	}
	if c.MaxCycles < 1 || c.MaxCycles > 1_000_000_000 {
		return &ConfigError{
			Field:   "MaxCycles",
			Message: "must be between 1 and 1,000,000,000",
		}
	}
	if c.MaxMatches < 1 || c.MaxMatches > 1_000_000 {
		return &ConfigError{
			Field:   "MaxMatches",
			Message: "must be between 1 and 1,000,000",
		}
	}
	if c.MaxRecursionDepth < 10 || c.MaxRecursionDepth > 1_000 {
		return &ConfigError{
			Field:   "MaxRecursionDepth",
			Message: "must be between 10 and 1,000",
		}
	}
	if c.MaxRepetition < 1 || c.MaxRepetition > 100_000 {
		return &ConfigError{
			Field:   "MaxRepetition",
			Message: "must be between 1 and 100,000",
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
	return "match: invalid config: " + e.Field + ": " + e.Message
}
