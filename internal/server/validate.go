package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/picwrite/internal/pipeline"
)

// evaluateRequest is the payload for both the form and the JSON API.
type evaluateRequest struct {
	ImageURL  string `json:"image_url" form:"image_url" validate:"required,max=2048"`
	Paragraph string `json:"paragraph" form:"paragraph" validate:"required,max=5000"`
	Model     string `json:"model" form:"model" validate:"omitempty,known_model"`
	Language  string `json:"language" form:"language" validate:"omitempty,max=32"`
}

func (r *evaluateRequest) normalize() {
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.Paragraph = strings.TrimSpace(r.Paragraph)
	r.Model = strings.TrimSpace(r.Model)
	r.Language = strings.TrimSpace(r.Language)
}

func (r evaluateRequest) pipelineRequest() pipeline.Request {
	return pipeline.Request{
		ImageURL:  r.ImageURL,
		Paragraph: r.Paragraph,
		Model:     r.Model,
		Language:  r.Language,
	}
}

// newValidator panics if a custom tag cannot be registered, since every
// request would then fail validation.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("known_model", func(fl validator.FieldLevel) bool {
		return pipeline.IsKnownModel(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register known_model validation: %v", err))
	}
	return v
}

// validationMessage turns validator errors into one readable sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "known_model":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a supported vision model", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonFieldName(field string) string {
	switch field {
	case "ImageURL":
		return "image_url"
	case "Paragraph":
		return "paragraph"
	case "Model":
		return "model"
	case "Language":
		return "language"
	}
	return field
}
