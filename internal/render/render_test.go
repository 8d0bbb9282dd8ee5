package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"vcert/internal/store"
)

func sampleData() CertificateData {
	decided := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	return CertificateData{
		Serial:       "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0",
		CarBrand:     "Toyota",
		CarModel:     "Camry",
		LicensePlate: "A123BC777",
		VIN:          "JTDBT923771012345",
		RollNumber:   "RL-100",
		OperatorName: "Иван Петров",
		CreatedAt:    decided.Add(-48 * time.Hour),
		DecidedAt:    decided,
	}
}

func TestBuildDocumentJSON(t *testing.T) {
	payload, err := buildDocumentJSON(sampleData())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if doc.Paper != "A4" {
		t.Fatalf("paper = %q", doc.Paper)
	}
	page, ok := doc.Pages["1"]
	if !ok {
		t.Fatal("missing page 1")
	}

	text := string(payload)
	for _, want := range []string{
		"СЕРТИФИКАТ ТРАНСПОРТНОГО СРЕДСТВА",
		"A123BC777",
		"JTDBT923771012345",
		"14.03.2025",
		"Иван Петров",
		"Подпись администратора",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %q", want)
		}
	}
	if len(page.Content.Text) < 10 {
		t.Fatalf("text entries = %d", len(page.Content.Text))
	}
}

func TestFromRecord(t *testing.T) {
	decided := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	cert := &store.Certificate{
		Serial:       "serial-1",
		CarBrand:     "Lada",
		CarModel:     "Vesta",
		LicensePlate: "B456DE199",
		VIN:          "XTA21099912345678",
		RollNumber:   "RL-200",
		CreatedAt:    decided.Add(-time.Hour),
		DecidedAt:    &decided,
	}
	operator := &store.User{FirstName: "Maria", TelegramID: 100}

	data := FromRecord(cert, operator)
	if data.OperatorName != "Maria" {
		t.Fatalf("operator name = %q", data.OperatorName)
	}
	if !data.DecidedAt.Equal(decided) {
		t.Fatalf("decided at = %v", data.DecidedAt)
	}
}

func TestFallbackTextContainsAllFields(t *testing.T) {
	text := FallbackText(sampleData())
	for _, want := range []string{"Toyota", "Camry", "A123BC777", "JTDBT923771012345", "RL-100", "14.03.2025"} {
		if !strings.Contains(text, want) {
			t.Fatalf("fallback missing %q", want)
		}
	}
}
