package models

import "strings"

// FormFieldTypeEmail is the field type of an email input.
const FormFieldTypeEmail = "email"

// Form is a bio form as exposed by the forms collaborator.
type Form struct {
	ID     string      `json:"id"     yaml:"id"     validate:"required"`
	Name   string      `json:"name"   yaml:"name"`
	Fields []FormField `json:"fields" yaml:"fields" validate:"dive"`
}

// FormField is a single input of a form.
type FormField struct {
	Type     string `json:"type"     yaml:"type"     validate:"required"`
	Label    string `json:"label"    yaml:"label"`
	Required bool   `json:"required" yaml:"required"`
}

// IsEmail reports whether the field collects an email address, either by type or by label.
func (f FormField) IsEmail() bool {
	return f.Type == FormFieldTypeEmail || strings.Contains(strings.ToLower(f.Label), "email")
}

// HasRequiredEmailField reports whether submissions of the form always carry an email address.
func (f Form) HasRequiredEmailField() bool {
	for _, field := range f.Fields {
		if field.Required && field.IsEmail() {
			return true
		}
	}

	return false
}
