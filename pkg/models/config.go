package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// StepConfig is the per-kind configuration of a step. Each StepKind has exactly one
// implementation; the set is closed to this package.
type StepConfig interface {
	Kind() StepKind
	isStepConfig()
}

// TriggerEvent is the event a trigger step subscribes to.
type TriggerEvent string

const (
	TriggerEventNewSubscriber     TriggerEvent = "new_subscriber"
	TriggerEventFormSubmit        TriggerEvent = "form_submit"
	TriggerEventBlogPostPublished TriggerEvent = "blog_post_published"
	TriggerEventProductPurchased  TriggerEvent = "product_purchased"
	TriggerEventSchedule          TriggerEvent = "schedule"
)

// TriggerEvents lists every supported trigger event.
var TriggerEvents = []TriggerEvent{
	TriggerEventNewSubscriber,
	TriggerEventFormSubmit,
	TriggerEventBlogPostPublished,
	TriggerEventProductPurchased,
	TriggerEventSchedule,
}

// DurationUnit is a calendar unit used by delays and discount expirations.
type DurationUnit string

const (
	DurationUnitMinutes DurationUnit = "minutes"
	DurationUnitHours   DurationUnit = "hours"
	DurationUnitDays    DurationUnit = "days"
	DurationUnitWeeks   DurationUnit = "weeks"
)

// TriggerConfig configures a trigger step.
type TriggerConfig struct {
	EventType      TriggerEvent `json:"eventType,omitempty"`
	ElementID      string       `json:"elementId,omitempty"` // Form identifier for form_submit triggers
	Label          string       `json:"label,omitempty"`
	CronExpression string       `json:"cronExpression,omitempty"` // Only for schedule triggers
}

// EmailConfig configures an email action step.
type EmailConfig struct {
	Subject  string `json:"subject,omitempty"`
	Content  string `json:"content,omitempty"`
	FromName string `json:"fromName,omitempty"`
	ReplyTo  string `json:"replyTo,omitempty"`
}

// ConditionConfig configures a condition step. The step routes to its "true" or
// "false" port depending on the comparison.
type ConditionConfig struct {
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value,omitempty"`
}

// DelayConfig configures a delay step.
type DelayConfig struct {
	Amount int          `json:"amount,omitempty"`
	Unit   DurationUnit `json:"unit,omitempty"`
}

// StripeDiscountConfig configures the creation of a Stripe coupon and promotion code.
type StripeDiscountConfig struct {
	DiscountType        string       `json:"discountType,omitempty"` // "percent" or "amount"
	PercentOff          int          `json:"percentOff,omitempty"`
	AmountOff           int          `json:"amountOff,omitempty"` // Minor currency units
	Currency            string       `json:"currency,omitempty"`
	DurationType        string       `json:"durationType,omitempty"` // "once", "repeating" or "forever"
	DurationInMonths    int          `json:"durationInMonths,omitempty"`
	PromotionCodePrefix string       `json:"promotionCodePrefix,omitempty"`
	ExpiresIn           int          `json:"expiresIn,omitempty"`
	ExpiresInUnit       DurationUnit `json:"expiresInUnit,omitempty"`
}

// WebhookConfig configures a call to an external integration.
type WebhookConfig struct {
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (TriggerConfig) Kind() StepKind        { return StepKindTrigger }
func (EmailConfig) Kind() StepKind          { return StepKindAction }
func (ConditionConfig) Kind() StepKind      { return StepKindCondition }
func (DelayConfig) Kind() StepKind          { return StepKindDelay }
func (StripeDiscountConfig) Kind() StepKind { return StepKindStripeDiscount }
func (WebhookConfig) Kind() StepKind        { return StepKindWebhook }

func (TriggerConfig) isStepConfig()        {}
func (EmailConfig) isStepConfig()          {}
func (ConditionConfig) isStepConfig()      {}
func (DelayConfig) isStepConfig()          {}
func (StripeDiscountConfig) isStepConfig() {}
func (WebhookConfig) isStepConfig()        {}

// Clone returns a copy of the webhook config that shares no maps with w.
func (w WebhookConfig) Clone() WebhookConfig {
	w.Headers = maps.Clone(w.Headers)

	return w
}

// DecodeStepConfig decodes the raw "data" object of a step of the given kind.
// Empty or null data yields a nil config, which the normalizer replaces with defaults.
func DecodeStepConfig(kind StepKind, data json.RawMessage) (StepConfig, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepKind, kind)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch kind {
	case StepKindTrigger:
		return decodeInto[TriggerConfig](trimmed)
	case StepKindAction:
		return decodeInto[EmailConfig](trimmed)
	case StepKindCondition:
		return decodeInto[ConditionConfig](trimmed)
	case StepKindDelay:
		return decodeInto[DelayConfig](trimmed)
	case StepKindStripeDiscount:
		return decodeInto[StripeDiscountConfig](trimmed)
	case StepKindWebhook:
		return decodeInto[WebhookConfig](trimmed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepKind, kind)
	}
}

func decodeInto[T StepConfig](data []byte) (StepConfig, error) {
	var config T
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", config.Kind(), err)
	}

	return config, nil
}
