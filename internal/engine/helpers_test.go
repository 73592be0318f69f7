package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/reqflow/pkg/api"
)

type EntersText struct {
	Text string
}

func (e EntersText) Greet() string { return "hello " + e.Text }

type EntersNumber struct {
	N int
}

type EntersAge struct {
	Age int
}

type Greeted struct {
	Text string
}

// Greeting is implemented by EntersText only.
type Greeting interface {
	Greet() string
}

type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s", e.Field)
}

func noop(context.Context, any) (any, error) { return nil, nil }

func publish(v any) api.Reaction {
	return func(context.Context, any) (any, error) { return v, nil }
}

func fail(err error) api.Reaction {
	return func(context.Context, any) (any, error) { return nil, err }
}

func basicFlow() []api.FlowDefinition {
	return []api.FlowDefinition{{Name: "Basic"}}
}

func newModel(t *testing.T, useCases ...api.UseCaseDefinition) *api.Model {
	t.Helper()
	m, err := api.NewModel(api.ModelDefinition{UseCases: useCases})
	require.NoError(t, err)
	return m
}

// newRecordedRunner returns a runner whose executed steps are recorded.
func newRecordedRunner(m *api.Model) (api.Runner, *api.Recorder) {
	rec := &api.Recorder{}
	return NewRunnerWithConfig(m, Config{Observer: rec}), rec
}
