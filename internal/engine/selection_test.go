package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/reqflow/pkg/api"
)

func TestSelection_InsteadOfPreemptsRegardlessOfDeclarationOrder(t *testing.T) {
	ctx := context.Background()

	basic := []api.StepDefinition{
		{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
		{Name: "S2", Flow: "Basic", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
	}
	alt := []api.StepDefinition{
		{Name: "A1", Flow: "Alt", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
	}

	tests := []struct {
		name  string
		steps []api.StepDefinition
	}{
		{"alternative declared last", append(append([]api.StepDefinition{}, basic...), alt...)},
		{"alternative declared first", append(append([]api.StepDefinition{}, alt...), basic...)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newModel(t, api.UseCaseDefinition{
				Name: "Numbers",
				Flows: []api.FlowDefinition{
					{Name: "Basic"},
					{Name: "Alt", Position: api.InsteadOf("S2")},
				},
				Steps: tc.steps,
			})
			r, rec := newRecordedRunner(m)

			_, err := r.ReactTo(ctx, EntersText{Text: "a"}, EntersNumber{N: 1})
			require.NoError(t, err)
			assert.Equal(t, []string{"S1", "A1"}, rec.StepNames())
		})
	}
}

func TestSelection_InsteadOfKeepsDeclarationOrderWithIndependentSteps(t *testing.T) {
	ctx := context.Background()

	flowless := api.StepDefinition{Name: "F", MessageType: api.TypeOf[EntersNumber](), Reaction: noop}
	help := api.StepDefinition{Name: "H1", Flow: "Help", MessageType: api.TypeOf[EntersNumber](), Reaction: noop}
	basic := []api.StepDefinition{
		{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
		{Name: "S2", Flow: "Basic", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
	}
	alt := api.StepDefinition{Name: "A1", Flow: "Alt", MessageType: api.TypeOf[EntersNumber](), Reaction: noop}

	tests := []struct {
		name  string
		steps []api.StepDefinition
		want  string
	}{
		{"flowless declared first", append([]api.StepDefinition{flowless}, append(basic, alt)...), "F"},
		{"flowless declared last", append(append([]api.StepDefinition{}, basic...), alt, flowless), "A1"},
		{"anytime declared first", append([]api.StepDefinition{help}, append(basic, alt)...), "H1"},
		{"anytime declared last", append(append([]api.StepDefinition{}, basic...), alt, help), "A1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newModel(t, api.UseCaseDefinition{
				Name: "Numbers",
				Flows: []api.FlowDefinition{
					{Name: "Basic"},
					{Name: "Alt", Position: api.InsteadOf("S2")},
					{Name: "Help", Position: api.Anytime()},
				},
				Steps: tc.steps,
			})
			r, rec := newRecordedRunner(m)

			_, err := r.ReactTo(ctx, EntersText{Text: "a"}, EntersNumber{N: 1})
			require.NoError(t, err)
			assert.Equal(t, []string{"S1", tc.want}, rec.StepNames())
		})
	}
}

func TestSelection_InsteadOfFlowCondition(t *testing.T) {
	ctx := context.Background()
	enabled := false
	m := newModel(t, api.UseCaseDefinition{
		Name: "Numbers",
		Flows: []api.FlowDefinition{
			{Name: "Basic"},
			{Name: "Alt", Position: api.InsteadOf("S2"), Condition: func() bool { return enabled }},
		},
		Steps: []api.StepDefinition{
			{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "S2", Flow: "Basic", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
			{Name: "A1", Flow: "Alt", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
		},
	})

	r, rec := newRecordedRunner(m)
	_, err := r.ReactTo(ctx, EntersText{Text: "a"}, EntersNumber{N: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, rec.StepNames())

	enabled = true
	require.NoError(t, r.Run(ctx))
	rec.Reset()
	_, err = r.ReactTo(ctx, EntersText{Text: "a"}, EntersNumber{N: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "A1"}, rec.StepNames())
}

func continuesModel(t *testing.T, altEnabled *bool) *api.Model {
	return newModel(t, api.UseCaseDefinition{
		Name: "Continue",
		Flows: []api.FlowDefinition{
			{Name: "Basic"},
			{Name: "Alt", Position: api.InsteadOf("S2"), Condition: func() bool { return *altEnabled }},
		},
		Steps: []api.StepDefinition{
			{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "S2", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "A1", Flow: "Alt", MessageType: api.TypeOf[EntersText](), Reaction: noop},
		},
	})
}

func TestSelection_ContinuesAt(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name               string
		altEnabled         bool
		withoutAlternative bool
		want               string
	}{
		{"continues at step", false, false, "S2"},
		{"enabled alternative wins", true, false, "A1"},
		{"without alternative forces step", true, true, "S2"},
		{"without alternative and disabled alternative", false, true, "S2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			altEnabled := tc.altEnabled
			r, rec := newRecordedRunner(continuesModel(t, &altEnabled))

			var err error
			if tc.withoutAlternative {
				err = r.ContinuesWithoutAlternativeAt("S2")
			} else {
				err = r.ContinuesAt("S2")
			}
			require.NoError(t, err)
			assert.Equal(t, "S1", r.LatestStep().Name())

			_, err = r.ReactTo(ctx, EntersText{Text: "a"})
			require.NoError(t, err)
			assert.Equal(t, []string{tc.want}, rec.StepNames())
		})
	}
}

func TestSelection_ContinuesAfter(t *testing.T) {
	ctx := context.Background()
	altEnabled := false
	r, rec := newRecordedRunner(continuesModel(t, &altEnabled))

	require.NoError(t, r.ContinuesAfter("S2"))
	pos, ok := r.Position()
	require.True(t, ok)
	assert.Equal(t, "S2", pos)

	_, err := r.ReactTo(ctx, EntersText{Text: "a"})
	require.NoError(t, err)
	assert.Empty(t, rec.StepNames())
}

func TestSelection_RepositionUnknownStep(t *testing.T) {
	altEnabled := false
	r := NewRunner(continuesModel(t, &altEnabled))

	assert.ErrorIs(t, r.ContinuesAt("Nope"), api.ErrNoSuchElementInModel)
	assert.ErrorIs(t, r.ContinuesAfter("Nope"), api.ErrNoSuchElementInModel)
	assert.ErrorIs(t, r.ContinuesWithoutAlternativeAt("Nope"), api.ErrNoSuchElementInModel)
	assert.Nil(t, r.LatestStep())
}

// ageModel asks for an age, and asks again while the age is out of bounds.
func ageModel(t *testing.T) (*api.Model, *[]string) {
	var output []string
	age := 0
	outOfBounds := func() bool { return age < 0 || age > 150 }

	say := func(text string) api.Reaction {
		return func(context.Context, any) (any, error) {
			output = append(output, text)
			return nil, nil
		}
	}

	m := newModel(t, api.UseCaseDefinition{
		Name: "AgeCheck",
		Flows: []api.FlowDefinition{
			{Name: "Basic"},
			{Name: "AgeOutOfBounds", Position: api.InsteadOf("S3"), Condition: outOfBounds},
		},
		Steps: []api.StepDefinition{
			{Name: "S1", Flow: "Basic", Reaction: say("enter your age")},
			{
				Name:        "S2",
				Flow:        "Basic",
				MessageType: api.TypeOf[EntersAge](),
				Reaction: func(_ context.Context, msg any) (any, error) {
					age = msg.(EntersAge).Age
					return nil, nil
				},
			},
			{Name: "S3", Flow: "Basic", Reaction: say("age accepted")},
			{Name: "A1", Flow: "AgeOutOfBounds", Reaction: say("age out of bounds")},
			{
				Name: "A2",
				Flow: "AgeOutOfBounds",
				Reaction: func(ctx context.Context, _ any) (any, error) {
					r, ok := api.RunnerFromContext(ctx)
					if !ok {
						return nil, api.ErrNoRunnerInContext
					}
					return nil, r.ContinuesAt("S1")
				},
			},
		},
	})
	return m, &output
}

func TestSelection_AgeOutOfBoundsRequestsInputAgain(t *testing.T) {
	ctx := context.Background()
	m, output := ageModel(t)
	r, rec := newRecordedRunner(m)

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, []string{"S1"}, rec.StepNames())

	_, err := r.ReactTo(ctx, EntersAge{Age: 200})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "A1", "A2", "S1"}, rec.StepNames())

	_, err = r.ReactTo(ctx, EntersAge{Age: 42})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "A1", "A2", "S1", "S2", "S3"}, rec.StepNames())

	assert.Equal(t, []string{
		"enter your age",
		"age out of bounds",
		"enter your age",
		"age accepted",
	}, *output)
}

func TestSelection_AfterPosition(t *testing.T) {
	ctx := context.Background()
	m := newModel(t, api.UseCaseDefinition{
		Name: "After",
		Flows: []api.FlowDefinition{
			{Name: "Basic"},
			{Name: "Followup", Position: api.After("S1")},
		},
		Steps: []api.StepDefinition{
			{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "S2", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "F1", Flow: "Followup", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
		},
	})
	r, rec := newRecordedRunner(m)

	// F1 is not reachable before S1 ran.
	_, err := r.ReactTo(ctx, EntersNumber{N: 1})
	require.NoError(t, err)
	assert.Empty(t, rec.StepNames())

	_, err = r.ReactTo(ctx, EntersText{Text: "a"}, EntersNumber{N: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "F1"}, rec.StepNames())

	// S2 follows S1 only, so the basic flow is left behind.
	_, err = r.ReactTo(ctx, EntersText{Text: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "F1"}, rec.StepNames())
}

func TestSelection_OnlyBasicFlowStartsUnpositioned(t *testing.T) {
	ctx := context.Background()
	m := newModel(t, api.UseCaseDefinition{
		Name: "Menu",
		Flows: []api.FlowDefinition{
			{Name: "Basic"},
			{Name: "Extra"},
		},
		Steps: []api.StepDefinition{
			{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "E1", Flow: "Extra", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
			{Name: "E2", Flow: "Extra", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
		},
	})
	r, rec := newRecordedRunner(m)

	_, err := r.ReactTo(ctx, EntersNumber{N: 1})
	require.NoError(t, err)
	assert.Empty(t, rec.StepNames())

	require.NoError(t, r.ContinuesAt("E1"))
	_, err = r.ReactTo(ctx, EntersNumber{N: 1}, EntersNumber{N: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2"}, rec.StepNames())
}

func TestSelection_AnytimeFlow(t *testing.T) {
	ctx := context.Background()
	m := newModel(t, api.UseCaseDefinition{
		Name: "Anytime",
		Flows: []api.FlowDefinition{
			{Name: "Basic"},
			{Name: "Help", Position: api.Anytime()},
		},
		Steps: []api.StepDefinition{
			{Name: "S1", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "S2", Flow: "Basic", MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "H1", Flow: "Help", MessageType: api.TypeOf[EntersNumber](), Reaction: noop},
		},
	})
	r, rec := newRecordedRunner(m)

	_, err := r.ReactTo(ctx, EntersNumber{N: 1}, EntersText{Text: "a"}, EntersNumber{N: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H1"}, rec.StepNames())
}

func TestSelection_TieBreakFollowsUseCaseRegistration(t *testing.T) {
	ctx := context.Background()
	handler := func(name string) api.UseCaseDefinition {
		return api.UseCaseDefinition{
			Name: name,
			Steps: []api.StepDefinition{
				{Name: "Handle" + name, MessageType: api.TypeOf[EntersText](), Reaction: noop},
			},
		}
	}

	m := newModel(t, handler("B"), handler("A"))
	r, rec := newRecordedRunner(m)

	_, err := r.ReactTo(ctx, EntersText{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HandleB"}, rec.StepNames())
}

func TestSelection_GuardsAreReevaluated(t *testing.T) {
	ctx := context.Background()
	open := false
	m := newModel(t, api.UseCaseDefinition{
		Name: "Door",
		Steps: []api.StepDefinition{
			{Name: "Open", Condition: func() bool { return open }, MessageType: api.TypeOf[EntersText](), Reaction: noop},
			{Name: "Closed", MessageType: api.TypeOf[EntersText](), Reaction: noop},
		},
	})
	r, rec := newRecordedRunner(m)

	_, err := r.ReactTo(ctx, EntersText{Text: "a"})
	require.NoError(t, err)
	open = true
	_, err = r.ReactTo(ctx, EntersText{Text: "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Closed", "Open"}, rec.StepNames())
}
