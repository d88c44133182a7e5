package config

import "fmt"

// LoggerConfig holds logging settings shared by the server and the CLI.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json for deployments, console for local runs.
	Format string
	// Output is the destination stream, stdout or stderr.
	Output string
}

// LoadLoggerConfigFromEnv reads LOG_* environment variables.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  GetEnv("LOG_LEVEL", "info"),
		Format: GetEnv("LOG_FORMAT", "json"),
		Output: GetEnv("LOG_OUTPUT", "stdout"),
	}
}

// Validate checks the level and format against the values zap understands.
func (c LoggerConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}

	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Format)
	}

	return nil
}

// IsProduction reports whether the logger should use the production zap
// preset. Console format and debug level both indicate a local run.
func (c LoggerConfig) IsProduction() bool {
	return c.Format == "json" && c.Level != "debug"
}
