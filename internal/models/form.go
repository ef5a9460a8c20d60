package models

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/scratch"
)

var DefaultClasses = []string{"8A1", "8A2", "8A3", "8A4", "8B1", "8B2", "8B3", "8B4"}

// Form is what the student form layer hands over.
type Form struct {
	Class           string   `json:"class" validate:"classcode"`
	StudentName     string   `json:"student_name" validate:"min=3"`
	ScratchUsername string   `json:"scratch_username" validate:"min=3"`
	ProjectLink     string   `json:"project_link" validate:"scratchlink"`
	Features        []string `json:"features"`
}

var fieldMessages = map[string]string{
	"Class":           "Please select your class.",
	"StudentName":     "Please enter your full name.",
	"ScratchUsername": "Please enter your Scratch username.",
}

var fieldNames = map[string]string{
	"Class":           "class",
	"StudentName":     "student_name",
	"ScratchUsername": "scratch_username",
	"ProjectLink":     "project_link",
}

type FormValidator struct {
	validate *validator.Validate
}

func NewFormValidator(classes []string) *FormValidator {
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	allowed := slices.Clone(classes)

	v := validator.New()
	_ = v.RegisterValidation("classcode", func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	})
	_ = v.RegisterValidation("scratchlink", func(fl validator.FieldLevel) bool {
		return scratch.Normalize(fl.Field().String()).OK
	})

	return &FormValidator{validate: v}
}

// Validate trims the form in place and reports the first problem in field order
// as an apperror validation error carrying the corrective message.
func (fv *FormValidator) Validate(f *Form) error {
	f.Class = strings.TrimSpace(f.Class)
	f.StudentName = strings.TrimSpace(f.StudentName)
	f.ScratchUsername = strings.TrimSpace(f.ScratchUsername)
	f.ProjectLink = strings.TrimSpace(f.ProjectLink)

	err := fv.validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}

	first := verrs[0]
	if first.StructField() == "ProjectLink" {
		return apperror.ValidationFailed("project_link", scratch.Normalize(f.ProjectLink).Reason)
	}
	return apperror.ValidationFailed(fieldNames[first.StructField()], fieldMessages[first.StructField()])
}

// NewSubmission assembles the canonical record. A link the normalizer rejects is
// kept verbatim in ProjectURL rather than dropping the record.
func NewSubmission(f Form, userAgent string, now time.Time) Submission {
	rawLink := strings.TrimSpace(f.ProjectLink)
	link := scratch.Normalize(rawLink)

	sub := Submission{
		Class:           strings.TrimSpace(f.Class),
		StudentName:     strings.TrimSpace(f.StudentName),
		ScratchUsername: strings.TrimSpace(f.ScratchUsername),
		ProjectURL:      rawLink,
		Features:        dedupFeatures(f.Features),
		CreatedAt:       FormatCreatedAt(now),
		UserAgent:       userAgent,
	}
	if link.OK {
		sub.ProjectID = link.ID
		sub.ProjectURL = link.URL
		sub.ProjectEmbed = link.Embed
	}
	return sub
}

func dedupFeatures(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}
