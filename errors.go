package revlens

import "fmt"

// InsufficientDataError reports that too few distinct cleaned reviews remain
// to build a feature matrix worth clustering.
type InsufficientDataError struct {
	Distinct int
	Minimum  int
	Reason   string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s (%d distinct, need at least %d)", e.Reason, e.Distinct, e.Minimum)
}

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	Parameter string
	Value     any
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v (%s)", e.Parameter, e.Value, e.Reason)
}
