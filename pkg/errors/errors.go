// Package errors provides structured error handling for navigation containers.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates conflicting or invalid container props.
	KindConfig
	// KindInvariant indicates a broken internal invariant.
	KindInvariant
	// KindPersistence indicates a snapshot load or save failure.
	KindPersistence
	// KindHydration indicates a failure while rendering restored state.
	KindHydration
	// KindLinking indicates a deep link or URL source failure.
	KindLinking
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindInvariant:
		return "invariant"
	case KindPersistence:
		return "persistence"
	case KindHydration:
		return "hydration"
	case KindLinking:
		return "linking"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// NavError represents a structured error raised by a navigation container.
type NavError struct {
	// Op is the operation that failed (e.g., "navigation.persist").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Key is the persistence key involved, if any.
	Key string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *NavError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s [%s] key=%s: %v", e.Op, e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *NavError) Unwrap() error {
	return e.Err
}

// ConfigurationConflictError is returned when a container receives a
// navigation handle together with props that only make sense for a container
// that owns its state.
type ConfigurationConflictError struct {
	// Keys lists the offending prop names in declaration order.
	Keys []string
}

func (e *ConfigurationConflictError) Error() string {
	return fmt.Sprintf("this navigator has both navigation and container props, so it is unclear if it should own its own state. "+
		"Remove props: %q if the navigator should get its state from the navigation prop. "+
		"If the navigator should maintain its own state, do not pass a navigation prop",
		strings.Join(e.Keys, ", "))
}

// InvariantViolation signals a programming error inside a container. It is
// raised with panic and is not meant to be recovered.
type InvariantViolation struct {
	Op     string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Reason)
}

// PersistenceWriteError reports a failed snapshot write.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persist navigation state %q: %v", e.Key, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "navigation.bootstrap").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by navigation containers.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *NavError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
