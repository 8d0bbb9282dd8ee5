// Package capture implements the step-by-step collection of certificate
// fields from an operator. A Session walks a fixed sequence of text and
// photo steps, validating each answer, until the draft is complete and
// ready for review.
package capture

import (
	"fmt"

	"vcert/internal/validate"
)

// Step identifies the field the session is currently collecting.
type Step int

const (
	StepBrand Step = iota
	StepModel
	StepPlate
	StepVIN
	StepRollNumber
	StepRollPhoto
	StepCarPhoto
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepBrand:
		return "brand"
	case StepModel:
		return "model"
	case StepPlate:
		return "plate"
	case StepVIN:
		return "vin"
	case StepRollNumber:
		return "roll_number"
	case StepRollPhoto:
		return "roll_photo"
	case StepCarPhoto:
		return "car_photo"
	case StepReview:
		return "review"
	}
	return "unknown"
}

// Draft accumulates validated certificate fields.
type Draft struct {
	CarBrand     string
	CarModel     string
	LicensePlate string
	VIN          string
	RollNumber   string
	RollPhoto    string
	CarPhoto     string
}

// Session is one operator's in-progress certificate.
type Session struct {
	Step  Step
	Draft Draft
}

// New starts a capture session at the first step.
func New() *Session {
	return &Session{Step: StepBrand}
}

// StartPrompt is the message that opens a new session.
const StartPrompt = "🚗 Начинаем создание сертификата. Введите марку автомобиля:"

// Prompt returns the message asking for the current step's input.
func (s *Session) Prompt() string {
	switch s.Step {
	case StepBrand:
		return "Введите марку автомобиля:"
	case StepModel:
		return "Введите модель автомобиля:"
	case StepPlate:
		return "Введите госномер автомобиля (например, A123BC777):"
	case StepVIN:
		return "Введите VIN-номер автомобиля (17 символов):"
	case StepRollNumber:
		return "Введите номер рулона:"
	case StepRollPhoto:
		return "📷 Отправьте четкое фото рулона:"
	case StepCarPhoto:
		return "📷 Отправьте четкое фото автомобиля (вид спереди):"
	case StepReview:
		return "Проверьте данные и подтвердите отправку."
	}
	return ""
}

// ExpectsPhoto reports whether the current step takes a photo.
func (s *Session) ExpectsPhoto() bool {
	return s.Step == StepRollPhoto || s.Step == StepCarPhoto
}

// Complete reports whether the draft has every field and awaits review.
func (s *Session) Complete() bool {
	return s.Step == StepReview
}

// HandleText validates text input for the current step, stores it, and
// advances. It returns the next prompt. On a photo or review step the
// session does not advance and the current prompt is returned again.
func (s *Session) HandleText(text string) (string, error) {
	switch s.Step {
	case StepBrand:
		value, err := validate.Make(text)
		if err != nil {
			return "", err
		}
		s.Draft.CarBrand = value
		s.Step = StepModel
	case StepModel:
		value, err := validate.Model(text)
		if err != nil {
			return "", err
		}
		s.Draft.CarModel = value
		s.Step = StepPlate
	case StepPlate:
		value, err := validate.Plate(text)
		if err != nil {
			return "", err
		}
		s.Draft.LicensePlate = value
		s.Step = StepVIN
	case StepVIN:
		value, err := validate.VIN(text)
		if err != nil {
			return "", err
		}
		s.Draft.VIN = value
		s.Step = StepRollNumber
	case StepRollNumber:
		value, err := validate.RollNumber(text)
		if err != nil {
			return "", err
		}
		s.Draft.RollNumber = value
		s.Step = StepRollPhoto
	default:
		return s.Prompt(), nil
	}
	return s.Prompt(), nil
}

// HandlePhoto stores the photo file id for the current photo step and
// advances. The second result reports whether the session just reached
// review. On a non-photo step nothing changes and the current prompt is
// returned.
func (s *Session) HandlePhoto(fileID string) (string, bool, error) {
	switch s.Step {
	case StepRollPhoto:
		s.Draft.RollPhoto = fileID
		s.Step = StepCarPhoto
		return s.Prompt(), false, nil
	case StepCarPhoto:
		s.Draft.CarPhoto = fileID
		s.Step = StepReview
		return s.Summary(), true, nil
	default:
		return s.Prompt(), false, nil
	}
}

// Summary renders the review message shown before submission.
func (s *Session) Summary() string {
	return fmt.Sprintf("🔍 *Проверьте данные сертификата:*\n\n"+
		"🚗 *Марка и модель:* %s %s\n"+
		"🔢 *Госномер:* %s\n"+
		"🆔 *VIN:* %s\n"+
		"📜 *Номер рулона:* %s",
		s.Draft.CarBrand, s.Draft.CarModel,
		s.Draft.LicensePlate, s.Draft.VIN, s.Draft.RollNumber)
}
