package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a declaration-file error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ValidationError collects everything wrong with a single sentinel instance.
// Validation runs to completion so the user sees all problems in one pass
// instead of fixing them one at a time.
type ValidationError struct {
	Instance string
	Problems []string
}

func (e ValidationError) Error() string {
	msg := fmt.Sprintf("Instance '%s' failed validation", e.Instance)
	for _, p := range e.Problems {
		msg += "\n  - " + p
	}
	return msg
}

// UnsupportedPlatformError is returned when the detected OS family has no
// init-script mapping. The declaration must fail before any artifact is
// rendered rather than propagating an empty template into the graph.
type UnsupportedPlatformError struct {
	Family       string
	MajorVersion int
}

func (e UnsupportedPlatformError) Error() string {
	msg := fmt.Sprintf("Unsupported OS family '%s'", e.Family)
	if e.MajorVersion > 0 {
		msg += fmt.Sprintf(" (major version %d)", e.MajorVersion)
	}
	msg += ": no service template is available for this platform"
	msg += "\n  💡 Supported families: debian, redhat, amazon, gentoo. Use --facts to override detection"
	return msg
}

// CredentialError represents a failure to resolve a credential source
type CredentialError struct {
	Source     string
	Message    string
	Suggestion string
	Err        error
}

func (e CredentialError) Error() string {
	msg := fmt.Sprintf("Credential source '%s': %s", e.Source, e.Message)
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

func (e CredentialError) Unwrap() error {
	return e.Err
}
