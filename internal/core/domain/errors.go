package domain

import "fmt"

// ConfigError marks a configuration-class failure: missing agent/task spec or
// missing required environment credential. Fatal at pipeline-construction
// time and never retried.
type ConfigError struct {
	What string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.What)
}

// NewConfigError builds a ConfigError with a formatted description.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{What: fmt.Sprintf(format, args...)}
}
