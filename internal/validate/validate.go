// Package validate holds the pure field validators for certificate capture.
//
// Every validator takes raw actor input and either returns the normalized
// value or a faults.ErrValidation error whose message is shown to the actor
// verbatim. Validators never touch storage or sessions; rejection always
// leaves the capture session at its current step.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"vcert/internal/faults"
)

var (
	platePattern = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9]{4,15}$`)
	vinPattern   = regexp.MustCompile(`^[A-HJ-NPR-Za-hj-npr-z0-9]{17}$`)
)

// Make validates a vehicle make: 2–50 characters.
func Make(input string) (string, error) {
	value := strings.TrimSpace(input)
	if n := utf8.RuneCountInString(value); n < 2 || n > 50 {
		return "", faults.Validation("Марка автомобиля должна содержать от 2 до 50 символов")
	}
	return value, nil
}

// Model validates a vehicle model: 1–50 characters.
func Model(input string) (string, error) {
	value := strings.TrimSpace(input)
	if n := utf8.RuneCountInString(value); n < 1 || n > 50 {
		return "", faults.Validation("Модель автомобиля должна содержать от 1 до 50 символов")
	}
	return value, nil
}

// Plate validates a license plate: 4–15 Latin or Cyrillic letters and digits.
// The accepted value is normalized to uppercase.
func Plate(input string) (string, error) {
	value := strings.TrimSpace(input)
	if !platePattern.MatchString(value) {
		return "", faults.Validation("Госномер должен содержать от 4 до 15 символов (буквы и цифры)")
	}
	return strings.ToUpper(value), nil
}

// VIN validates a vehicle identification number: exactly 17 characters from
// the alphanumeric set excluding I, O, and Q. The accepted value is
// normalized to uppercase.
func VIN(input string) (string, error) {
	value := strings.TrimSpace(input)
	if !vinPattern.MatchString(value) {
		return "", faults.Validation("VIN-номер должен содержать ровно 17 символов (буквы и цифры, кроме I, O, Q)")
	}
	return strings.ToUpper(value), nil
}

// RollNumber validates a roll number: 3–50 characters.
func RollNumber(input string) (string, error) {
	value := strings.TrimSpace(input)
	if n := utf8.RuneCountInString(value); n < 3 || n > 50 {
		return "", faults.Validation("Номер рулона должен содержать от 3 до 50 символов")
	}
	return value, nil
}

// RejectionReason validates a moderation rejection reason: at least 5
// characters after trimming.
func RejectionReason(input string) (string, error) {
	value := strings.TrimSpace(input)
	if utf8.RuneCountInString(value) < 5 {
		return "", faults.Validation("⚠️ Причина отказа должна содержать не менее 5 символов")
	}
	return value, nil
}
