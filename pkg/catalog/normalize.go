package catalog

import (
	"maps"

	"github.com/dukex/automations/pkg/models"
)

// Defaults applied by Normalize.
const (
	DefaultTriggerEvent        = models.TriggerEventNewSubscriber
	DefaultScheduleCron        = "0 9 * * *"
	DefaultEmailSubject        = "Hello from us"
	DefaultEmailContent        = "Write your message here."
	DefaultConditionOperator   = "equals"
	DefaultDelayAmount         = 1
	DefaultDiscountType        = "percent"
	DefaultPercentOff          = 10
	DefaultDurationType        = "once"
	DefaultPromotionCodePrefix = "BIOFLOW"
	DefaultCurrency            = "usd"
	DefaultWebhookMethod       = "POST"
)

// Normalize returns a copy of step whose configuration carries every field its kind
// requires. The input is never modified and Normalize(Normalize(s)) equals Normalize(s).
//
// A nil configuration, or one belonging to another kind, is replaced by the kind's
// default configuration: the step kind is authoritative.
func Normalize(step models.Step) models.Step {
	out := step

	switch config := step.Config.(type) {
	case models.TriggerConfig:
		out.Config = normalizeTrigger(config)
	case models.EmailConfig:
		out.Config = normalizeEmail(config)
	case models.ConditionConfig:
		out.Config = normalizeCondition(config)
	case models.DelayConfig:
		out.Config = normalizeDelay(config)
	case models.StripeDiscountConfig:
		out.Config = normalizeStripeDiscount(config)
	case models.WebhookConfig:
		out.Config = normalizeWebhook(config)
	}

	if out.Config == nil || out.Config.Kind() != step.Kind {
		entry, ok := Lookup(step.Kind)
		if !ok {
			out.Config = step.Config

			return out
		}

		out.Config = entry.DefaultConfig()
	}

	return out
}

// IsNormalized reports whether Normalize would leave step unchanged.
func IsNormalized(step models.Step) bool {
	return equalConfig(Normalize(step).Config, step.Config)
}

func normalizeTrigger(c models.TriggerConfig) models.TriggerConfig {
	if c.EventType == "" {
		c.EventType = DefaultTriggerEvent
	}

	if c.EventType == models.TriggerEventSchedule && c.CronExpression == "" {
		c.CronExpression = DefaultScheduleCron
	}

	return c
}

func normalizeEmail(c models.EmailConfig) models.EmailConfig {
	if c.Subject == "" {
		c.Subject = DefaultEmailSubject
	}

	if c.Content == "" {
		c.Content = DefaultEmailContent
	}

	return c
}

func normalizeCondition(c models.ConditionConfig) models.ConditionConfig {
	if c.Operator == "" {
		c.Operator = DefaultConditionOperator
	}

	return c
}

func normalizeDelay(c models.DelayConfig) models.DelayConfig {
	if c.Amount <= 0 {
		c.Amount = DefaultDelayAmount
	}

	if c.Unit == "" {
		c.Unit = models.DurationUnitDays
	}

	return c
}

func normalizeStripeDiscount(c models.StripeDiscountConfig) models.StripeDiscountConfig {
	if c.DiscountType == "" {
		c.DiscountType = DefaultDiscountType
	}

	if c.PercentOff == 0 {
		c.PercentOff = DefaultPercentOff
	}

	if c.DiscountType == "amount" && c.Currency == "" {
		c.Currency = DefaultCurrency
	}

	if c.DurationType == "" {
		c.DurationType = DefaultDurationType
	}

	if c.PromotionCodePrefix == "" {
		c.PromotionCodePrefix = DefaultPromotionCodePrefix
	}

	if c.ExpiresInUnit == "" {
		c.ExpiresInUnit = models.DurationUnitDays
	}

	return c
}

func normalizeWebhook(c models.WebhookConfig) models.WebhookConfig {
	c = c.Clone()

	if c.Method == "" {
		c.Method = DefaultWebhookMethod
	}

	return c
}

func equalConfig(a, b models.StepConfig) bool {
	wa, aok := a.(models.WebhookConfig)
	wb, bok := b.(models.WebhookConfig)

	if aok && bok {
		return wa.URL == wb.URL && wa.Method == wb.Method && maps.Equal(wa.Headers, wb.Headers)
	}

	if aok != bok {
		return false
	}

	return a == b
}
