package adaptapi

import (
	"errors"
	"fmt"
)

var (
	// ErrBodyTooLarge is returned when a buffered body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("adaptapi: body exceeds size limit")
	// ErrEmptyBody is wrapped in a *BodyDecodeError when a body that must be
	// adapted is empty.
	ErrEmptyBody = errors.New("adaptapi: empty body")
	// ErrUnknownAdapter is returned when a config references an unregistered adapter.
	ErrUnknownAdapter = errors.New("adaptapi: unknown adapter")
	// ErrDuplicateAdapter is returned when an adapter name is registered twice.
	ErrDuplicateAdapter = errors.New("adaptapi: adapter already registered")
	// ErrPathCollision is returned when two versions resolve to the same path.
	ErrPathCollision = errors.New("adaptapi: versioned path collision")
	// ErrMissingPlaceholder is returned when a template has no placeholder segment.
	ErrMissingPlaceholder = errors.New("adaptapi: template has no version placeholder")
)

// ConfigError reports a configuration or adapter-resolution failure. It is
// fatal at startup.
type ConfigError struct {
	// Template is the canonical path template involved, if any
	Template string
	// Version is the version identifier involved, if any
	Version string
	Err     error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Template != "" && e.Version != "":
		return fmt.Sprintf("adaptapi: config %s[%s]: %v", e.Template, e.Version, e.Err)
	case e.Template != "":
		return fmt.Sprintf("adaptapi: config %s: %v", e.Template, e.Err)
	default:
		return fmt.Sprintf("adaptapi: config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// BodyDecodeError reports a request or response body that is not valid JSON.
type BodyDecodeError struct {
	Err error
}

func (e *BodyDecodeError) Error() string {
	return fmt.Sprintf("adaptapi: decode body: %v", e.Err)
}

func (e *BodyDecodeError) Unwrap() error { return e.Err }

// TransformError reports an adapter step failing during evaluation.
type TransformError struct {
	// Step is the adapter name as registered
	Step string
	// Direction is either DirectionUpgrade or DirectionDowngrade
	Direction Direction
	Err       error
}

func (e *TransformError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("adaptapi: %s: %v", e.Direction, e.Err)
	}
	return fmt.Sprintf("adaptapi: %s %q: %v", e.Direction, e.Step, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

func configErrorf(template, version string, format string, args ...interface{}) error {
	return &ConfigError{Template: template, Version: version, Err: fmt.Errorf(format, args...)}
}
