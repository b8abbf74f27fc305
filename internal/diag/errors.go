package diag

import (
	"fmt"
	"strings"
)

// ConfigError is a user-facing failure: bad flags, unresolvable targets,
// missing outputs. The message alone should let the user fix the
// invocation.
type ConfigError struct {
	Code Code
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Configf builds a ConfigError with a formatted message.
func Configf(code Code, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// InternalError is a compiler bug surfaced to the user: an invariant the
// driver enforces between phases was violated. It carries the full list
// of offending entities for the diagnostic dump.
type InternalError struct {
	Code     Code
	Msg      string
	Subjects []string
}

func (e *InternalError) Error() string {
	if len(e.Subjects) == 0 {
		return fmt.Sprintf("internal error %s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("internal error %s: %s (%d entities)", e.Code, e.Msg, len(e.Subjects))
}

// Dump renders the full entity list, one per line, for the error stream.
func (e *InternalError) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "internal error %s: %s\n", e.Code, e.Msg)
	for _, s := range e.Subjects {
		sb.WriteString("  ")
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Internalf builds an InternalError with a formatted message.
func Internalf(code Code, format string, args ...any) *InternalError {
	return &InternalError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
