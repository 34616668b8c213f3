// Package config provides configuration loading for the forms snapshot file
package config

import (
	"fmt"
	"os"

	"github.com/dukex/automations/pkg/models"
	"gopkg.in/yaml.v3"
)

// FormsConfigFile represents the structure of the forms.yaml file
type FormsConfigFile struct {
	Forms []FormConfigFile `yaml:"forms"`
}

// FormConfigFile represents a form in the YAML file
type FormConfigFile struct {
	ID     string             `yaml:"id"`
	Name   string             `yaml:"name"`
	Fields []models.FormField `yaml:"fields"`
}

// LoadFormsConfig loads the forms snapshot from a YAML file
func LoadFormsConfig(filepath string) ([]models.Form, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile FormsConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	forms := make([]models.Form, len(configFile.Forms))
	for i, form := range configFile.Forms {
		forms[i] = models.Form{
			ID:     form.ID,
			Name:   form.Name,
			Fields: form.Fields,
		}
	}

	if err := ValidateFormsConfig(forms); err != nil {
		return nil, err
	}

	return forms, nil
}

// LoadFormsConfigOrDefault attempts to load forms from file, falling back to no
// forms when the path is empty
func LoadFormsConfigOrDefault(filepath string) ([]models.Form, error) {
	if filepath == "" {
		return []models.Form{}, nil
	}

	return LoadFormsConfig(filepath)
}

// ValidateFormsConfig validates the forms configuration
func ValidateFormsConfig(forms []models.Form) error {
	seen := make(map[string]struct{}, len(forms))

	for i, form := range forms {
		if form.ID == "" {
			return fmt.Errorf("forms[%d]: id is required", i)
		}

		if _, exists := seen[form.ID]; exists {
			return fmt.Errorf("forms[%d]: duplicate id '%s'", i, form.ID)
		}

		seen[form.ID] = struct{}{}

		for j, field := range form.Fields {
			if field.Type == "" {
				return fmt.Errorf("forms[%d].fields[%d]: type is required", i, j)
			}
		}
	}

	return nil
}
