package wizard

import (
	"strconv"
	"time"

	"github.com/dalemusser/neurohub/internal/app/system/inputval"
	"github.com/dalemusser/neurohub/internal/domain/models"
)

// Form input names that are not record fields.
const (
	InputImage    = "image"
	InputDocument = "document"
)

const dateLayout = "2006-01-02"

var listLabels = map[string]string{
	models.FieldTags:           "Tags",
	models.FieldKeywords:       "Keywords",
	models.FieldTargetAudience: "Target audience",
	models.FieldAuthors:        "Authors",
}

// ListLabel is the display label for an array field.
func ListLabel(field string) string {
	if l, ok := listLabels[field]; ok {
		return l
	}
	return field
}

type basicInput struct {
	Title       string `validate:"required,max=200" label:"Title" form:"title"`
	Description string `validate:"required,max=20000" label:"Description" form:"description"`
	Category    string `validate:"required,max=100" label:"Category" form:"category"`
}

type detailsInput struct {
	Language        string   `validate:"required,max=12" label:"Language" form:"language"`
	PublicationDate string   `validate:"omitempty,datetime=2006-01-02" label:"Publication date" form:"publication_date"`
	Tags            []string `validate:"max=30" label:"Tags" form:"tags"`
	Keywords        []string `validate:"max=30" label:"Keywords" form:"keywords"`
}

// ValidateStep runs step's rules against s and returns the failures keyed by
// form input name. An empty map means the step passes.
func ValidateStep(k models.Kind, step Step, s *State) Errors {
	errs := Errors{}
	v := s.Values
	switch step {
	case StepBasic:
		merge(errs, inputval.Validate(basicInput{
			Title:       v.Title,
			Description: v.Description,
			Category:    v.Category,
		}))
	case StepDetails:
		merge(errs, inputval.Validate(detailsInput{
			Language:        v.Language,
			PublicationDate: v.PublicationDate,
			Tags:            v.Tags,
			Keywords:        v.Keywords,
		}))
		for _, f := range k.RequiredArrays {
			if len(v.List(f)) == 0 {
				errs[f] = "Add at least one entry to " + ListLabel(f) + "."
			}
		}
		validateExtras(k, v, errs)
	case StepMedia:
		if k.DocumentField != "" && k.DocumentRequired && !s.HasDocument() {
			errs[InputDocument] = "A document file is required."
		}
	case StepReview:
		if _, ok := s.CanonicalStatus(k, v.Status); !ok {
			errs["status"] = "Choose a valid status."
		}
	}
	return errs
}

func merge(errs Errors, res *inputval.Result) {
	for field, msg := range res.ByField() {
		if !errs.Has(field) {
			errs[field] = msg
		}
	}
}

func validateExtras(k models.Kind, v Values, errs Errors) {
	for _, f := range k.Extras {
		val := v.Extra[f.Key]
		if val == "" {
			if f.Required {
				errs[f.Key] = f.Label + " is required."
			}
			continue
		}
		switch {
		case f.Numeric:
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				errs[f.Key] = f.Label + " must be a number."
			} else if n < 0 {
				errs[f.Key] = f.Label + " cannot be negative."
			}
		case f.Input == "date":
			if _, err := time.Parse(dateLayout, val); err != nil {
				errs[f.Key] = f.Label + " must be a date in YYYY-MM-DD form."
			}
		case f.Input == "url":
			if !inputval.IsValidHTTPURL(val) {
				errs[f.Key] = f.Label + " must be a full http:// or https:// address."
			}
		}
	}

	start, sErr := time.Parse(dateLayout, v.Extra["start_date"])
	end, eErr := time.Parse(dateLayout, v.Extra["end_date"])
	if sErr == nil && eErr == nil && end.Before(start) && !errs.Has("end_date") {
		if f, ok := k.Extra("end_date"); ok {
			errs[f.Key] = f.Label + " cannot be before the start date."
		}
	}
}
