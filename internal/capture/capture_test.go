package capture

import (
	"errors"
	"strings"
	"testing"

	"vcert/internal/faults"
)

func TestHappyPathThroughReview(t *testing.T) {
	s := New()

	inputs := []struct {
		text     string
		nextHint string
	}{
		{"Toyota", "модель"},
		{"Camry", "госномер"},
		{"a123bc777", "VIN"},
		{"JTDBT923771012345", "рулона"},
		{"RL-100", "фото рулона"},
	}
	for _, in := range inputs {
		prompt, err := s.HandleText(in.text)
		if err != nil {
			t.Fatalf("HandleText(%q): %v", in.text, err)
		}
		if !strings.Contains(prompt, in.nextHint) {
			t.Fatalf("HandleText(%q) prompt = %q, want mention of %q", in.text, prompt, in.nextHint)
		}
	}

	if !s.ExpectsPhoto() {
		t.Fatal("session should expect the roll photo now")
	}
	prompt, done, err := s.HandlePhoto("roll-file-id")
	if err != nil || done {
		t.Fatalf("roll photo: done=%v err=%v", done, err)
	}
	if !strings.Contains(prompt, "автомобиля") {
		t.Fatalf("after roll photo prompt = %q", prompt)
	}

	summary, done, err := s.HandlePhoto("car-file-id")
	if err != nil {
		t.Fatalf("car photo: %v", err)
	}
	if !done || !s.Complete() {
		t.Fatal("session should reach review after both photos")
	}
	for _, want := range []string{"Toyota Camry", "A123BC777", "JTDBT923771012345", "RL-100"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q: %s", want, summary)
		}
	}
	if s.Draft.RollPhoto != "roll-file-id" || s.Draft.CarPhoto != "car-file-id" {
		t.Fatalf("photos not recorded: %+v", s.Draft)
	}
}

func TestInvalidInputKeepsStep(t *testing.T) {
	s := New()

	if _, err := s.HandleText("X"); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("one-letter brand: got %v", err)
	}
	if s.Step != StepBrand {
		t.Fatalf("step advanced on invalid input: %v", s.Step)
	}

	if _, err := s.HandleText("Toyota"); err != nil {
		t.Fatalf("valid brand: %v", err)
	}
	if s.Step != StepModel {
		t.Fatalf("step = %v, want model", s.Step)
	}
}

func TestTextDuringPhotoStepRepeatsPrompt(t *testing.T) {
	s := &Session{Step: StepRollPhoto}
	prompt, err := s.HandleText("это не фото")
	if err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if !strings.Contains(prompt, "фото рулона") {
		t.Fatalf("prompt = %q", prompt)
	}
	if s.Step != StepRollPhoto {
		t.Fatalf("step changed: %v", s.Step)
	}
}

func TestPhotoDuringTextStepRepeatsPrompt(t *testing.T) {
	s := New()
	prompt, done, err := s.HandlePhoto("file-id")
	if err != nil || done {
		t.Fatalf("done=%v err=%v", done, err)
	}
	if !strings.Contains(prompt, "марку") {
		t.Fatalf("prompt = %q", prompt)
	}
	if s.Draft.RollPhoto != "" {
		t.Fatal("photo stored outside a photo step")
	}
}
