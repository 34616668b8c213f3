package graph

import "github.com/dukex/automations/pkg/models"

// Template variables offered by the configuration panel.
var (
	subscriberVariables = []string{"subscriber.email", "subscriber.name"}
	formVariables       = []string{"form.name", "form.fields"}
	blogPostVariables   = []string{"post.title", "post.url", "post.excerpt"}
	purchaseVariables   = []string{"order.product", "order.amount", "order.currency"}
	discountVariables   = []string{"discount.code", "discount.expires_at"}
)

// AvailableVariables lists the template variables a step may reference, based on
// what is upstream of it.
func AvailableVariables(g Graph, stepID string) ([]string, error) {
	if _, ok := g.Step(stepID); !ok {
		return nil, ErrStepNotFound
	}

	variables := append([]string{}, subscriberVariables...)

	upstream := []struct {
		predicate StepPredicate
		variables []string
	}{
		{TriggerWithEvent(models.TriggerEventFormSubmit), formVariables},
		{TriggerWithEvent(models.TriggerEventBlogPostPublished), blogPostVariables},
		{TriggerWithEvent(models.TriggerEventProductPurchased), purchaseVariables},
		{KindIs(models.StepKindStripeDiscount), discountVariables},
	}

	for _, u := range upstream {
		if IsReachableBackward(g, stepID, u.predicate) {
			variables = append(variables, u.variables...)
		}
	}

	return variables, nil
}
