// Package render produces the PDF artifact delivered to an operator when
// their certificate is approved. Pages are described as pdfcpu create
// JSON and handed to pdfcpu for layout, keeping this package free of
// low-level PDF plumbing.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"vcert/internal/faults"
	"vcert/internal/store"
)

// Renderer writes certificate PDFs into a working directory.
type Renderer struct {
	dir string
}

// New builds a Renderer that writes into dir.
func New(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// CertificateData carries the fields printed on the document.
type CertificateData struct {
	Serial       string
	CarBrand     string
	CarModel     string
	LicensePlate string
	VIN          string
	RollNumber   string
	OperatorName string
	CreatedAt    time.Time
	DecidedAt    time.Time
}

// FromRecord assembles CertificateData from the stored records.
func FromRecord(cert *store.Certificate, operator *store.User) CertificateData {
	data := CertificateData{
		Serial:       cert.Serial,
		CarBrand:     cert.CarBrand,
		CarModel:     cert.CarModel,
		LicensePlate: cert.LicensePlate,
		VIN:          cert.VIN,
		RollNumber:   cert.RollNumber,
		CreatedAt:    cert.CreatedAt,
	}
	if operator != nil {
		data.OperatorName = operator.DisplayName()
	}
	if cert.DecidedAt != nil {
		data.DecidedAt = *cert.DecidedAt
	}
	return data
}

const dateLayout = "02.01.2006"

type pageText struct {
	Value    string    `json:"value"`
	Anchor   string    `json:"anchor,omitempty"`
	Position []float64 `json:"position,omitempty"`
	Font     pageFont  `json:"font"`
}

type pageFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

type pageContent struct {
	Text []pageText `json:"text"`
}

type page struct {
	Content pageContent `json:"content"`
}

type document struct {
	Paper string          `json:"paper"`
	Pages map[string]page `json:"pages"`
}

func buildDocumentJSON(data CertificateData) ([]byte, error) {
	title := pageText{
		Value:    "СЕРТИФИКАТ ТРАНСПОРТНОГО СРЕДСТВА",
		Anchor:   "tc",
		Position: []float64{0, -60},
		Font:     pageFont{Name: "Helvetica-Bold", Size: 20},
	}

	lines := []string{
		fmt.Sprintf("Номер сертификата: %s", data.Serial),
		fmt.Sprintf("Дата выдачи: %s", data.DecidedAt.Format(dateLayout)),
		"",
		"Данные транспортного средства:",
		fmt.Sprintf("Марка: %s", data.CarBrand),
		fmt.Sprintf("Модель: %s", data.CarModel),
		fmt.Sprintf("Госномер: %s", data.LicensePlate),
		fmt.Sprintf("VIN: %s", data.VIN),
		fmt.Sprintf("Номер рулона: %s", data.RollNumber),
		"",
		"Данные оператора:",
		fmt.Sprintf("ФИО: %s", data.OperatorName),
		fmt.Sprintf("Дата создания: %s", data.CreatedAt.Format(dateLayout+" 15:04")),
	}

	texts := []pageText{title}
	y := -120.0
	for _, line := range lines {
		if line == "" {
			y -= 14
			continue
		}
		texts = append(texts, pageText{
			Value:    line,
			Anchor:   "tl",
			Position: []float64{60, y},
			Font:     pageFont{Name: "Helvetica", Size: 12},
		})
		y -= 20
	}
	texts = append(texts,
		pageText{Value: "_________________________", Anchor: "bl", Position: []float64{320, 120}, Font: pageFont{Name: "Helvetica", Size: 12}},
		pageText{Value: "Подпись администратора", Anchor: "bl", Position: []float64{330, 100}, Font: pageFont{Name: "Helvetica", Size: 10}},
	)

	doc := document{
		Paper: "A4",
		Pages: map[string]page{"1": {Content: pageContent{Text: texts}}},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// CertificatePDF renders the certificate and returns the PDF path. The
// caller owns the file and should remove it after delivery.
func (r *Renderer) CertificatePDF(data CertificateData) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", faults.Wrap(faults.ErrDependency, "render", "certificate_pdf", "create render dir", err)
	}

	payload, err := buildDocumentJSON(data)
	if err != nil {
		return "", faults.Wrap(faults.ErrDependency, "render", "certificate_pdf", "encode page description", err)
	}

	stamp := time.Now().UnixMilli()
	jsonPath := filepath.Join(r.dir, fmt.Sprintf("%s_%d.json", data.LicensePlate, stamp))
	pdfPath := filepath.Join(r.dir, fmt.Sprintf("%s_%d.pdf", data.LicensePlate, stamp))

	if err := os.WriteFile(jsonPath, payload, 0o644); err != nil {
		return "", faults.Wrap(faults.ErrDependency, "render", "certificate_pdf", "write page description", err)
	}
	defer os.Remove(jsonPath)

	if err := api.CreateFile("", jsonPath, pdfPath, model.NewDefaultConfiguration()); err != nil {
		os.Remove(pdfPath)
		return "", faults.Wrap(faults.ErrDependency, "render", "certificate_pdf", "generate pdf", err)
	}
	return pdfPath, nil
}

// Cleanup removes a delivered artifact, ignoring missing files.
func (r *Renderer) Cleanup(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// FallbackText renders the certificate as plain text for delivery when
// PDF generation fails. The approval itself is never rolled back.
func FallbackText(data CertificateData) string {
	return fmt.Sprintf("📄 СЕРТИФИКАТ ТРАНСПОРТНОГО СРЕДСТВА\n\n"+
		"Номер сертификата: %s\n"+
		"Дата выдачи: %s\n\n"+
		"Марка: %s\nМодель: %s\nГосномер: %s\nVIN: %s\nНомер рулона: %s\n\n"+
		"Оператор: %s",
		data.Serial, data.DecidedAt.Format(dateLayout),
		data.CarBrand, data.CarModel, data.LicensePlate, data.VIN, data.RollNumber,
		data.OperatorName)
}
