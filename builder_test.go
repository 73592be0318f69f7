package reqflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type EntersText struct {
	Text string
}

type EntersAge struct {
	Age int
}

type TextSaved struct {
	Text string
}

type RequestsQuit struct{}

func TestBuilder_HelloWorldCascade(t *testing.T) {
	ctx := context.Background()
	var greeted []string
	name := ""
	saveName := func(_ context.Context, m EntersText) error {
		name = m.Text
		return nil
	}
	greet := func(context.Context) error {
		greeted = append(greeted, "Hello, "+name+".")
		return nil
	}

	model, err := NewModel().
		UseCase("Get greeted").
		BasicFlow().
		Step("S1").User(Handles(saveName)).
		Step("S2").System(greet).
		Build()
	require.NoError(t, err)

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)
	require.NoError(t, r.Run(ctx))

	_, err = r.ReactTo(ctx, EntersText{Text: "Joe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, rec.StepNames())
	assert.Equal(t, []string{"Hello, Joe."}, greeted)

	uc, err := model.UseCase("Get greeted")
	require.NoError(t, err)
	require.NotNil(t, uc.BasicFlow())
	assert.Equal(t, BasicFlowName, uc.BasicFlow().Name())
	assert.Len(t, uc.BasicFlow().Steps(), 2)
}

func TestBuilder_AgeOutOfBoundsWithExprCondition(t *testing.T) {
	ctx := context.Background()
	age := 0
	var output []string
	say := func(text string) func(context.Context) error {
		return func(context.Context) error {
			output = append(output, text)
			return nil
		}
	}

	saveAge := func(_ context.Context, m EntersAge) error {
		age = m.Age
		return nil
	}
	outOfBounds := MustExpr("age < 5 || age > 130", func() map[string]any {
		return map[string]any{"age": age}
	})

	model := NewModel().
		UseCase("Get greeted").
		BasicFlow().
		Step("S1").System(say("Please enter your age.")).
		Step("S2").User(Handles(saveAge)).
		Step("S3").System(say("Thank you.")).
		Flow("Age is out of bounds").InsteadOf("S3").Condition(outOfBounds).
		Step("S3a_1").System(say("Age is out of bounds.")).
		Step("S3a_2").ContinuesAt("S1").
		MustBuild()

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)
	require.NoError(t, r.Run(ctx))

	_, err := r.ReactTo(ctx, EntersAge{Age: 200})
	require.NoError(t, err)
	_, err = r.ReactTo(ctx, EntersAge{Age: 40})
	require.NoError(t, err)

	assert.Equal(t, []string{"S1", "S2", "S3a_1", "S3a_2", "S1", "S2", "S3"}, rec.StepNames())
	assert.Equal(t, []string{
		"Please enter your age.",
		"Age is out of bounds.",
		"Please enter your age.",
		"Thank you.",
	}, output)
}

func TestBuilder_ContinuesWithoutAlternativeAt(t *testing.T) {
	ctx := context.Background()
	model := NewModel().
		UseCase("Retry").
		BasicFlow().
		Step("S1").User(IgnoresIt[EntersText]()).
		Step("S2").User(IgnoresIt[EntersText]()).
		Flow("Alternative").InsteadOf("S2").
		Step("A1").User(IgnoresIt[EntersText]()).
		Step("A2").ContinuesWithoutAlternativeAt("S2").
		MustBuild()

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)

	_, err := r.ReactTo(ctx, EntersText{Text: "a"}, EntersText{Text: "b"}, EntersText{Text: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "A1", "A2", "S2"}, rec.StepNames())
}

func TestBuilder_ContinuesAfter(t *testing.T) {
	ctx := context.Background()
	model := NewModel().
		UseCase("Skip").
		BasicFlow().
		Step("S1").User(IgnoresIt[EntersText]()).
		Step("S2").User(IgnoresIt[EntersAge]()).
		Step("S3").User(IgnoresIt[EntersText]()).
		Flow("Shortcut").After("S1").
		Step("F1").User(IgnoresIt[RequestsQuit]()).
		Step("F2").ContinuesAfter("S2").
		MustBuild()

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)

	_, err := r.ReactTo(ctx, EntersText{}, RequestsQuit{}, EntersText{})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "F1", "F2", "S3"}, rec.StepNames())
}

func TestBuilder_ActorDefaults(t *testing.T) {
	ctx := context.Background()
	admin := NewActor("Admin")

	b := NewModel()
	model := b.
		UseCase("Manage").
		Step("UserStep").User(IgnoresIt[EntersText]()).
		Step("AdminStep").As(admin).User(IgnoresIt[EntersAge]()).
		Step("EventStep").On(IgnoresIt[TextSaved]()).
		MustBuild()

	assert.Same(t, b.UserActor(), model.UserActor())
	assert.Same(t, b.SystemActor(), model.SystemActor())

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)

	_, err := r.ReactTo(ctx, EntersText{}, EntersAge{}, TextSaved{})
	require.NoError(t, err)
	assert.Equal(t, []string{"UserStep", "EventStep"}, rec.StepNames())

	rec.Reset()
	_, err = r.As(admin).ReactTo(ctx, EntersText{}, EntersAge{}, TextSaved{})
	require.NoError(t, err)
	assert.Equal(t, []string{"AdminStep", "EventStep"}, rec.StepNames())
}

func TestBuilder_UseCaseDefaultActor(t *testing.T) {
	ctx := context.Background()
	normal := NewActor("NormalUser")
	anonymous := NewActor("AnonymousUser")
	admin := NewActor("Admin")

	model := NewModel().
		UseCase("Get greeted").As(normal).
		BasicFlow().
		Step("S1").User(IgnoresIt[EntersText]()).
		Step("S2").As(admin).User(IgnoresIt[EntersAge]()).
		UseCase("Get greeted anonymously").As(anonymous).
		Step("A1").User(IgnoresIt[EntersText]()).
		Step("A2").On(IgnoresIt[TextSaved]()).
		MustBuild()

	uc, err := model.UseCase("Get greeted")
	require.NoError(t, err)
	s1, err := uc.Step("S1")
	require.NoError(t, err)
	assert.Equal(t, []*Actor{normal}, s1.Actors())

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)

	require.NoError(t, r.As(normal).Run(ctx))
	_, err = r.ReactTo(ctx, EntersText{}, EntersAge{})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, rec.StepNames())

	rec.Reset()
	require.NoError(t, r.As(anonymous).Run(ctx))
	_, err = r.ReactTo(ctx, EntersText{}, TextSaved{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, rec.StepNames())

	// The model's default user is no longer accepted by either use case.
	rec.Reset()
	require.NoError(t, r.As(model.UserActor()).Run(ctx))
	_, err = r.ReactTo(ctx, EntersText{})
	require.NoError(t, err)
	assert.Empty(t, rec.StepNames())
}

func TestBuilder_UseCaseNilDefaultActor(t *testing.T) {
	_, err := NewModel().UseCase("UC").As(nil).Step("S1").User(IgnoresIt[EntersText]()).Build()
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestBuilder_FlowlessShortcuts(t *testing.T) {
	ctx := context.Background()
	open := false
	var handled []string
	handle := func(_ context.Context, m EntersText) error {
		handled = append(handled, m.Text)
		return nil
	}

	model := NewModel().
		UseCase("Account").
		When(func() bool { return open }).Handles(Handles(handle)).
		Handles(IgnoresIt[EntersText]()).
		MustBuild()

	uc, err := model.UseCase("Account")
	require.NoError(t, err)
	var names []string
	for _, s := range uc.FlowlessSteps() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"S1", "S2"}, names)

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)

	_, err = r.ReactTo(ctx, EntersText{Text: "closed"})
	require.NoError(t, err)
	open = true
	_, err = r.ReactTo(ctx, EntersText{Text: "open"})
	require.NoError(t, err)

	assert.Equal(t, []string{"S2", "S1"}, rec.StepNames())
	assert.Equal(t, []string{"open"}, handled)
}

func TestBuilder_PublishTo(t *testing.T) {
	ctx := context.Background()
	display := NewActor("Display")
	save := func(_ context.Context, m EntersText) (TextSaved, error) {
		return TextSaved{Text: m.Text}, nil
	}

	model := NewModel().
		UseCase("Save").
		BasicFlow().
		Step("S1").User(Publishes(save)).To(display).
		Step("Saved").On(IgnoresIt[TextSaved]()).
		UseCase("Audit").
		Step("Log").On(IgnoresIt[TextSaved]()).
		MustBuild()

	rec := &Recorder{}
	r := NewRunnerWithObserver(model, rec)
	var to []*Actor
	r.PublishWith(func(_ context.Context, p Publication) {
		to = append(to, p.To)
	})

	res, err := r.ReactTo(ctx, EntersText{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, TextSaved{Text: "x"}, res)
	assert.Equal(t, []*Actor{display}, to)
	// The published value reaches exactly one step.
	assert.Equal(t, []string{"S1", "Saved"}, rec.StepNames())
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Model, error)
		want  error
	}{
		{
			name: "continuation to unknown step",
			build: func() (*Model, error) {
				return NewModel().UseCase("UC").BasicFlow().
					Step("S1").ContinuesAt("Nope").
					Build()
			},
			want: ErrNoSuchElementInModel,
		},
		{
			name: "position names unknown step",
			build: func() (*Model, error) {
				return NewModel().UseCase("UC").
					BasicFlow().Step("S1").User(IgnoresIt[EntersText]()).
					Flow("Alt").InsteadOf("Nope").Step("A1").User(IgnoresIt[EntersText]()).
					Build()
			},
			want: ErrNoSuchElementInModel,
		},
		{
			name: "duplicate step",
			build: func() (*Model, error) {
				return NewModel().UseCase("UC").
					Step("S1").On(IgnoresIt[EntersText]()).
					Step("S1").On(IgnoresIt[EntersAge]()).
					Build()
			},
			want: ErrElementAlreadyInModel,
		},
		{
			name: "step without reaction",
			build: func() (*Model, error) {
				return NewModel().UseCase("UC").Step("S1").Build()
			},
			want: ErrInvalidModel,
		},
		{
			name: "nil handler function",
			build: func() (*Model, error) {
				var fn func(context.Context, EntersText) error
				return NewModel().UseCase("UC").Step("S1").On(Handles(fn)).Build()
			},
			want: ErrInvalidModel,
		},
		{
			name: "basic flow declared late",
			build: func() (*Model, error) {
				b := NewModel().UseCase("UC")
				b.Flow("Alt").Anytime().Step("A1").On(IgnoresIt[EntersText]())
				return b.BasicFlow().Step("S1").On(IgnoresIt[EntersAge]()).Build()
			},
			want: ErrInvalidModel,
		},
		{
			name: "empty use case name",
			build: func() (*Model, error) {
				return NewModel().UseCase("").Step("S1").On(IgnoresIt[EntersText]()).Build()
			},
			want: ErrInvalidModel,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.build()
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewModel().UseCase("UC").Step("S1").MustBuild()
	})
}

func TestBuilder_UseCaseIsDeclaredOnce(t *testing.T) {
	b := NewModel()
	b.UseCase("UC").Step("S1").On(IgnoresIt[EntersText]())
	b.UseCase("UC").Step("S2").On(IgnoresIt[EntersAge]())

	model, err := b.Build()
	require.NoError(t, err)
	require.Len(t, model.UseCases(), 1)
	assert.Len(t, model.Steps(), 2)
}
