package store

import (
	"strings"

	"vcert/internal/faults"
)

// ErrPlateExists and ErrVINExists mark which uniqueness constraint an
// insert lost so the capture layer can tell the operator which field to fix.
var (
	ErrPlateExists = faults.Conflict("❗ Авто с таким гос. номером уже зарегистрировано")
	ErrVINExists   = faults.Conflict("❗ Авто с таким VIN номером уже зарегистрировано")
)

func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "certificates.license_plate"):
		return ErrPlateExists
	case strings.Contains(msg, "certificates.vin"):
		return ErrVINExists
	}
	return err
}
