package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks a non-zero exit from an invoked executable.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks a malformed or incomplete request.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing entity record or input path.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an operation rejected because of existing state,
	// such as starting a recording for a classroom that already has one.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable marks a store read that returned no usable value.
	// Callers treat it as absence and degrade rather than crash.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Wrap builds an error message that includes step context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message returns the human-readable portion of a wrapped error, suitable for
// surfacing in progress snapshots.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
