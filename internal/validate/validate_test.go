package validate_test

import (
	"errors"
	"testing"

	"vcert/internal/faults"
	"vcert/internal/validate"
)

func TestPlateNormalizesToUppercase(t *testing.T) {
	got, err := validate.Plate("a123bc777")
	if err != nil {
		t.Fatalf("Plate failed: %v", err)
	}
	if got != "A123BC777" {
		t.Fatalf("expected A123BC777, got %s", got)
	}
}

func TestPlateAcceptsCyrillic(t *testing.T) {
	got, err := validate.Plate("а123вс77")
	if err != nil {
		t.Fatalf("Plate failed: %v", err)
	}
	if got != "А123ВС77" {
		t.Fatalf("unexpected normalization: %s", got)
	}
}

func TestPlateRejectsBadInput(t *testing.T) {
	cases := []string{"", "abc", "A123-BC", "AB", "ABCDEFGHIJ1234567890"}
	for _, input := range cases {
		if _, err := validate.Plate(input); !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", input, err)
		}
	}
}

func TestVIN(t *testing.T) {
	got, err := validate.VIN("1hgcm82633a123456")
	if err != nil {
		t.Fatalf("VIN failed: %v", err)
	}
	if got != "1HGCM82633A123456" {
		t.Fatalf("expected uppercase VIN, got %s", got)
	}

	rejected := []string{
		"1HGCM82633A12345",   // 16 chars
		"1HGCM82633A1234567", // 18 chars
		"IHGCM82633A123456",  // contains I
		"OHGCM82633A123456",  // contains O
		"QHGCM82633A123456",  // contains Q
	}
	for _, input := range rejected {
		if _, err := validate.VIN(input); !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", input, err)
		}
	}
}

func TestMakeBounds(t *testing.T) {
	if _, err := validate.Make("A"); !errors.Is(err, faults.ErrValidation) {
		t.Fatal("expected single character make to be rejected")
	}
	if got, err := validate.Make("  Toyota  "); err != nil || got != "Toyota" {
		t.Fatalf("expected trimmed make, got %q err %v", got, err)
	}
}

func TestModelAllowsSingleCharacter(t *testing.T) {
	got, err := validate.Model("3")
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	if got != "3" {
		t.Fatalf("unexpected model value %q", got)
	}
}

func TestRollNumberBounds(t *testing.T) {
	if _, err := validate.RollNumber("ab"); !errors.Is(err, faults.ErrValidation) {
		t.Fatal("expected short roll number to be rejected")
	}
	if got, err := validate.RollNumber("RL-0099"); err != nil || got != "RL-0099" {
		t.Fatalf("unexpected roll number result %q err %v", got, err)
	}
}

func TestRejectionReasonMinimumLength(t *testing.T) {
	if _, err := validate.RejectionReason("ok"); !errors.Is(err, faults.ErrValidation) {
		t.Fatal("expected short reason to be rejected")
	}
	if _, err := validate.RejectionReason("   ok   "); !errors.Is(err, faults.ErrValidation) {
		t.Fatal("expected trimmed short reason to be rejected")
	}
	got, err := validate.RejectionReason("Недостаточно четкое фото")
	if err != nil {
		t.Fatalf("RejectionReason failed: %v", err)
	}
	if got != "Недостаточно четкое фото" {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestValidationMessagesSurfaceToActor(t *testing.T) {
	_, err := validate.Plate("ab")
	if msg := faults.UserMessage(err); msg != "Госномер должен содержать от 4 до 15 символов (буквы и цифры)" {
		t.Fatalf("unexpected user message %q", msg)
	}
}
