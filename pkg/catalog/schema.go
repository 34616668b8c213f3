package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/automations/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidStepData is returned when a step's raw data does not match its kind's schema.
var ErrInvalidStepData = errors.New("invalid step data")

// ValidateData checks the raw "data" object of a step against the schema of its kind.
// Empty or null data is valid: Normalize fills it with defaults.
func ValidateData(kind models.StepKind, data json.RawMessage) error {
	entry, err := Resolve(kind)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(entry.Schema)
	dataLoader := gojsonschema.NewBytesLoader(trimmed)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStepData, err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidStepData, strings.Join(messages, "; "))
	}

	return nil
}

func stringProperty(description string, enum ...any) *models.Property {
	return &models.Property{Type: "string", Description: description, Enum: enum}
}

func integerProperty(description string, minimum float64) *models.Property {
	return &models.Property{Type: "integer", Description: description, Minimum: &minimum}
}

func objectSchema(title string, properties map[string]*models.Property) *models.JSONSchema {
	return &models.JSONSchema{
		Type:       "object",
		Title:      title,
		Properties: properties,
	}
}

func enumOf[T ~string](values ...T) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}

	return out
}

var durationUnits = enumOf(
	models.DurationUnitMinutes,
	models.DurationUnitHours,
	models.DurationUnitDays,
	models.DurationUnitWeeks,
)

func triggerSchema() *models.JSONSchema {
	return objectSchema("Trigger", map[string]*models.Property{
		"eventType":      stringProperty("Event that starts the automation", enumOf(models.TriggerEvents...)...),
		"elementId":      stringProperty("Form identifier for form submission triggers"),
		"label":          stringProperty("Display label"),
		"cronExpression": stringProperty("Five-field cron expression for schedule triggers"),
	})
}

func emailSchema() *models.JSONSchema {
	return objectSchema("Send email", map[string]*models.Property{
		"subject":  stringProperty("Email subject"),
		"content":  stringProperty("Email body"),
		"fromName": stringProperty("Sender display name"),
		"replyTo":  {Type: "string", Description: "Reply-to address", Format: "email"},
	})
}

func conditionSchema() *models.JSONSchema {
	return objectSchema("Condition", map[string]*models.Property{
		"field":    stringProperty("Subscriber field to compare"),
		"operator": stringProperty("Comparison operator", "equals", "not_equals", "contains", "exists"),
		"value":    stringProperty("Value to compare against"),
	})
}

func delaySchema() *models.JSONSchema {
	return objectSchema("Delay", map[string]*models.Property{
		"amount": integerProperty("How long to wait", 0),
		"unit":   stringProperty("Unit of the amount", durationUnits...),
	})
}

func stripeDiscountSchema() *models.JSONSchema {
	return objectSchema("Stripe discount", map[string]*models.Property{
		"discountType":        stringProperty("Kind of discount", "percent", "amount"),
		"percentOff":          {Type: "integer", Description: "Percentage off", Minimum: ptr(0.0), Maximum: ptr(100.0)},
		"amountOff":           integerProperty("Amount off in minor currency units", 0),
		"currency":            stringProperty("ISO currency code for amount discounts"),
		"durationType":        stringProperty("How long the discount applies", "once", "repeating", "forever"),
		"durationInMonths":    integerProperty("Months for repeating discounts", 0),
		"promotionCodePrefix": stringProperty("Prefix of generated promotion codes"),
		"expiresIn":           integerProperty("Promotion code lifetime", 0),
		"expiresInUnit":       stringProperty("Unit of the lifetime", durationUnits...),
	})
}

func webhookSchema() *models.JSONSchema {
	return objectSchema("Webhook", map[string]*models.Property{
		"url":     {Type: "string", Description: "Target URL", Format: "uri"},
		"method":  stringProperty("HTTP method", "GET", "POST", "PUT", "PATCH", "DELETE"),
		"headers": {Type: "object", Description: "Extra request headers", AdditionalProperties: &models.Property{Type: "string"}},
	})
}

func ptr[T any](v T) *T {
	return &v
}
