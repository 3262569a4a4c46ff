package tracker

import "fmt"

// ConfigurationError reports an invalid tracker construction parameter
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid tracker configuration: %s %s", e.Field, e.Reason)
}
