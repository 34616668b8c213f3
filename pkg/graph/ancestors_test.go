package graph_test

import (
	"fmt"
	"testing"

	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReachableBackward(t *testing.T) {
	v := graph.NewValidator(nil)

	g := buildGraph(t,
		testutil.CreateTestStep(testutil.WithID("blog"), testutil.WithTrigger(models.TriggerEventBlogPostPublished)),
		testutil.CreateTestStep(testutil.WithID("discount"), testutil.WithKind(models.StepKindStripeDiscount)),
		testutil.CreateTestStep(testutil.WithID("email")),
		testutil.CreateTestStep(testutil.WithID("orphan")),
	)
	g = mustConnect(t, g, v,
		testutil.Connect("c1", "blog", "discount"),
		testutil.Connect("c2", "discount", "email"),
	)

	tests := []struct {
		name      string
		start     string
		predicate graph.StepPredicate
		want      bool
	}{
		{"direct parent", "discount", graph.TriggerWithEvent(models.TriggerEventBlogPostPublished), true},
		{"transitive", "email", graph.TriggerWithEvent(models.TriggerEventBlogPostPublished), true},
		{"kind upstream", "email", graph.KindIs(models.StepKindStripeDiscount), true},
		{"other event", "email", graph.TriggerWithEvent(models.TriggerEventFormSubmit), false},
		{"start step not tested", "discount", graph.KindIs(models.StepKindStripeDiscount), false},
		{"downstream is not upstream", "blog", graph.KindIs(models.StepKindAction), false},
		{"disconnected", "orphan", graph.KindIs(models.StepKindTrigger), false},
		{"unknown start", "ghost", graph.KindIs(models.StepKindTrigger), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, graph.IsReachableBackward(g, tt.start, tt.predicate))
		})
	}
}

func TestIsReachableBackward_TerminatesOnCycles(t *testing.T) {
	// The store does not forbid cycles, so build one directly.
	const size = 50

	steps := make([]models.Step, 0, size)
	conns := make([]models.Connection, 0, size)

	for i := range size {
		steps = append(steps, testutil.CreateTestStep(testutil.WithID(fmt.Sprintf("s%d", i))))
		conns = append(conns, testutil.Connect(fmt.Sprintf("c%d", i), fmt.Sprintf("s%d", i), fmt.Sprintf("s%d", (i+1)%size)))
	}

	g := graph.New(steps, conns)

	visits := 0
	found := graph.IsReachableBackward(g, "s0", func(models.Step) bool {
		visits++

		return false
	})

	assert.False(t, found)
	assert.Equal(t, size-1, visits)

	assert.True(t, graph.IsReachableBackward(g, "s0", func(s models.Step) bool { return s.ID == "s1" }))
	assert.Len(t, graph.Ancestors(g, "s10"), size-1)
}

func TestAncestors(t *testing.T) {
	v := graph.NewValidator(nil)

	g := buildGraph(t,
		testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithTrigger(models.TriggerEventNewSubscriber)),
		testutil.CreateTestStep(testutil.WithID("wait"), testutil.WithKind(models.StepKindDelay)),
		testutil.CreateTestStep(testutil.WithID("email")),
	)
	g = mustConnect(t, g, v,
		testutil.Connect("c1", "trigger", "wait"),
		testutil.Connect("c2", "wait", "email"),
	)

	ids := func(steps []models.Step) []string {
		out := make([]string, 0, len(steps))
		for _, s := range steps {
			out = append(out, s.ID)
		}

		return out
	}

	assert.Equal(t, []string{"wait", "trigger"}, ids(graph.Ancestors(g, "email")))
	assert.Empty(t, graph.Ancestors(g, "trigger"))
}

func TestAvailableVariables(t *testing.T) {
	v := graph.NewValidator(nil)

	g := buildGraph(t,
		testutil.CreateTestStep(testutil.WithID("blog"), testutil.WithTrigger(models.TriggerEventBlogPostPublished)),
		testutil.CreateTestStep(testutil.WithID("discount"), testutil.WithKind(models.StepKindStripeDiscount)),
		testutil.CreateTestStep(testutil.WithID("email")),
		testutil.CreateTestStep(testutil.WithID("plain")),
	)
	g = mustConnect(t, g, v,
		testutil.Connect("c1", "blog", "discount"),
		testutil.Connect("c2", "discount", "email"),
	)

	vars, err := graph.AvailableVariables(g, "email")
	require.NoError(t, err)
	assert.Contains(t, vars, "post.title")
	assert.Contains(t, vars, "discount.code")
	assert.Contains(t, vars, "subscriber.email")
	assert.NotContains(t, vars, "form.name")

	vars, err = graph.AvailableVariables(g, "plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"subscriber.email", "subscriber.name"}, vars)

	_, err = graph.AvailableVariables(g, "ghost")
	require.ErrorIs(t, err, graph.ErrStepNotFound)
}

func TestIsReachableForward(t *testing.T) {
	v := graph.NewValidator(nil)

	g := buildGraph(t,
		testutil.CreateTestStep(testutil.WithID("trigger"), testutil.WithTrigger(models.TriggerEventNewSubscriber)),
		testutil.CreateTestStep(testutil.WithID("wait"), testutil.WithKind(models.StepKindDelay)),
		testutil.CreateTestStep(testutil.WithID("email")),
	)
	g = mustConnect(t, g, v,
		testutil.Connect("c1", "trigger", "wait"),
		testutil.Connect("c2", "wait", "email"),
	)

	isEmail := func(s models.Step) bool { return s.ID == "email" }

	assert.True(t, graph.IsReachableForward(g, "trigger", isEmail))
	assert.False(t, graph.IsReachableForward(g, "email", isEmail))
	assert.False(t, graph.IsReachableForward(g, "wait", graph.KindIs(models.StepKindTrigger)))
}
