package catalog_test

import (
	"testing"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeCases() []models.Step {
	cases := []models.Step{
		{ID: "t1", Kind: models.StepKindTrigger, Config: models.TriggerConfig{}},
		{ID: "t2", Kind: models.StepKindTrigger, Config: models.TriggerConfig{EventType: models.TriggerEventFormSubmit, ElementID: "f1"}},
		{ID: "t3", Kind: models.StepKindTrigger, Config: models.TriggerConfig{EventType: models.TriggerEventSchedule}},
		{ID: "a1", Kind: models.StepKindAction, Config: models.EmailConfig{}},
		{ID: "a2", Kind: models.StepKindAction, Config: models.EmailConfig{Subject: "Hi", Content: "Body"}},
		{ID: "c1", Kind: models.StepKindCondition, Config: models.ConditionConfig{Field: "tag"}},
		{ID: "d1", Kind: models.StepKindDelay, Config: models.DelayConfig{Amount: -4}},
		{ID: "s1", Kind: models.StepKindStripeDiscount, Config: models.StripeDiscountConfig{}},
		{ID: "s2", Kind: models.StepKindStripeDiscount, Config: models.StripeDiscountConfig{DiscountType: "amount", AmountOff: 500}},
		{ID: "w1", Kind: models.StepKindWebhook, Config: models.WebhookConfig{URL: "https://example.com", Headers: map[string]string{"X-Key": "1"}}},
		{ID: "mismatch", Kind: models.StepKindDelay, Config: models.EmailConfig{Subject: "wrong"}},
	}

	// Every kind with no configuration at all
	for _, kind := range models.StepKinds {
		cases = append(cases, models.Step{ID: "nil-" + string(kind), Kind: kind})
	}

	return cases
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, step := range normalizeCases() {
		t.Run(step.ID, func(t *testing.T) {
			once := catalog.Normalize(step)
			twice := catalog.Normalize(once)

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("Normalize is not idempotent (-once +twice):\n%s", diff)
			}

			assert.True(t, catalog.IsNormalized(once))
			require.NotNil(t, once.Config)
			assert.Equal(t, step.Kind, once.Config.Kind())
		})
	}
}

func TestNormalize_StripeDiscountDefaults(t *testing.T) {
	step := models.Step{ID: "s", Kind: models.StepKindStripeDiscount, Config: models.StripeDiscountConfig{}}

	got := catalog.Normalize(step).Config

	assert.Equal(t, models.StripeDiscountConfig{
		DiscountType:        "percent",
		PercentOff:          10,
		DurationType:        "once",
		PromotionCodePrefix: catalog.DefaultPromotionCodePrefix,
		ExpiresInUnit:       models.DurationUnitDays,
	}, got)
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	config := models.StripeDiscountConfig{
		DiscountType:        "amount",
		PercentOff:          25,
		AmountOff:           1000,
		Currency:            "eur",
		DurationType:        "repeating",
		DurationInMonths:    3,
		PromotionCodePrefix: "SPRING",
		ExpiresIn:           2,
		ExpiresInUnit:       models.DurationUnitWeeks,
	}

	got := catalog.Normalize(models.Step{ID: "s", Kind: models.StepKindStripeDiscount, Config: config})
	assert.Equal(t, config, got.Config)
}

func TestNormalize_EmailNeverEmpty(t *testing.T) {
	got := catalog.Normalize(models.Step{ID: "a", Kind: models.StepKindAction, Config: models.EmailConfig{Subject: "Kept"}})

	config, ok := got.Config.(models.EmailConfig)
	require.True(t, ok)
	assert.Equal(t, "Kept", config.Subject)
	assert.NotEmpty(t, config.Content)
}

func TestNormalize_TriggerDefaults(t *testing.T) {
	got := catalog.Normalize(models.Step{ID: "t", Kind: models.StepKindTrigger})
	assert.Equal(t, models.TriggerConfig{EventType: models.TriggerEventNewSubscriber}, got.Config)

	got = catalog.Normalize(models.Step{ID: "t", Kind: models.StepKindTrigger, Config: models.TriggerConfig{EventType: models.TriggerEventSchedule}})
	assert.Equal(t, catalog.DefaultScheduleCron, got.Config.(models.TriggerConfig).CronExpression)
}

func TestNormalize_CopyOnWrite(t *testing.T) {
	headers := map[string]string{"X-Key": "1"}
	step := models.Step{ID: "w", Kind: models.StepKindWebhook, Config: models.WebhookConfig{Headers: headers}}

	got := catalog.Normalize(step)

	got.Config.(models.WebhookConfig).Headers["X-Key"] = "changed"

	assert.Equal(t, "1", headers["X-Key"])
	assert.Empty(t, step.Config.(models.WebhookConfig).Method)
	assert.Equal(t, "POST", got.Config.(models.WebhookConfig).Method)
}

func TestNormalize_UnknownKindLeftAlone(t *testing.T) {
	step := models.Step{ID: "x", Kind: "sms"}

	assert.Equal(t, step, catalog.Normalize(step))
}
