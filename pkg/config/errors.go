package config

import "fmt"

// ConfigurationError reports a malformed hostmask or URL encountered while
// reading or writing configuration.
type ConfigurationError struct {
	URL  string
	Mask string
	Err  error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Mask != "":
		return fmt.Sprintf("invalid hostmask %q: %v", e.Mask, e.Err)
	default:
		return fmt.Sprintf("invalid configuration url %q: %v", e.URL, e.Err)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
