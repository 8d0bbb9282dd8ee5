package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed field input. Recoverable: the actor is
	// re-prompted and session state stays unchanged.
	ErrValidation = errors.New("validation error")
	// ErrPermission marks an actor lacking the required role. The action is
	// aborted and no state is mutated.
	ErrPermission = errors.New("permission denied")
	// ErrConflict marks a uniqueness violation or a stale-decision race.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing certificate or user reference.
	ErrNotFound = errors.New("not found")
	// ErrDependency marks a persistence, render, or delivery failure.
	ErrDependency = errors.New("dependency failure")
)

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrDependency
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Validation builds a validation error carrying a user-facing message.
// UserMessage returns exactly that message for errors built this way.
func Validation(message string) error {
	return &userFacing{marker: ErrValidation, message: message}
}

// Conflict builds a conflict error carrying a user-facing message.
func Conflict(message string) error {
	return &userFacing{marker: ErrConflict, message: message}
}

type userFacing struct {
	marker  error
	message string
}

func (e *userFacing) Error() string { return e.marker.Error() + ": " + e.message }
func (e *userFacing) Unwrap() error { return e.marker }

// UserMessage maps any error to the reply the actor should see. Errors built
// with Validation or Conflict surface their own message; everything else maps
// to a generic phrase per classification so internal detail never leaks into
// chat.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var uf *userFacing
	if errors.As(err, &uf) {
		return uf.message
	}
	switch {
	case errors.Is(err, ErrValidation):
		return "Пожалуйста, введите корректные данные"
	case errors.Is(err, ErrPermission):
		return "🚫 У вас нет прав для этого действия"
	case errors.Is(err, ErrConflict):
		return "⚠️ Запись уже была обработана"
	case errors.Is(err, ErrNotFound):
		return "❌ Запись не найдена"
	default:
		return "❌ Произошла ошибка при обработке вашего запроса"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
