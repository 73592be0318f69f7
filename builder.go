package reqflow

import (
	"context"
	"fmt"

	"github.com/petrijr/reqflow/pkg/api"
)

// BasicFlowName is the name BasicFlow gives to the basic flow of a use case.
const BasicFlowName = "BasicFlow"

// ModelBuilder provides a fluent API for defining models:
//
//	model, err := reqflow.NewModel().
//	    UseCase("Greet").
//	    BasicFlow().
//	        Step("S1").User(reqflow.Handles(greet)).
//	        Step("S2").System(printGreeting).
//	    Build()
//
// The first error is remembered and reported by Build.
type ModelBuilder struct {
	systemActor *api.Actor
	userActor   *api.Actor
	useCases    []*UseCaseBuilder
	err         error
}

// NewModel starts a new model definition.
func NewModel() *ModelBuilder {
	return &ModelBuilder{
		systemActor: api.NewActor(api.SystemActorName),
		userActor:   api.NewActor(api.UserActorName),
	}
}

// SystemActor returns the reserved system actor of the model being built.
func (b *ModelBuilder) SystemActor() *api.Actor { return b.systemActor }

// UserActor returns the reserved default user actor of the model being built.
func (b *ModelBuilder) UserActor() *api.Actor { return b.userActor }

// UseCase returns the builder of the named use case, declaring it on first use.
func (b *ModelBuilder) UseCase(name string) *UseCaseBuilder {
	for _, uc := range b.useCases {
		if uc.name == name {
			return uc
		}
	}
	uc := &UseCaseBuilder{model: b, name: name}
	b.useCases = append(b.useCases, uc)
	return uc
}

// Build validates the definition and returns the model.
func (b *ModelBuilder) Build() (*api.Model, error) {
	if b.err != nil {
		return nil, b.err
	}

	def := api.ModelDefinition{
		SystemActor: b.systemActor,
		UserActor:   b.userActor,
	}
	for _, uc := range b.useCases {
		ucDef, err := uc.definition()
		if err != nil {
			return nil, err
		}
		def.UseCases = append(def.UseCases, ucDef)
	}
	return api.NewModel(def)
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *ModelBuilder) MustBuild() *api.Model {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func (b *ModelBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// UseCaseBuilder declares the flows and flowless steps of a use case.
type UseCaseBuilder struct {
	model        *ModelBuilder
	name         string
	defaultActor *api.Actor
	flows        []*FlowBuilder
	steps        []*StepBuilder
	flowless     int
}

// As sets the actor that User steps of the use case accept when they name
// no actor of their own. It defaults to the model's user actor.
func (u *UseCaseBuilder) As(actor *api.Actor) *UseCaseBuilder {
	if actor == nil {
		u.model.fail(fmt.Errorf("%w: use case %q has a nil default actor", api.ErrInvalidModel, u.name))
		return u
	}
	u.defaultActor = actor
	return u
}

// BasicFlow declares the basic flow. It must be the first flow declared.
func (u *UseCaseBuilder) BasicFlow() *FlowBuilder {
	if len(u.flows) > 0 && u.flows[0].def.Name != BasicFlowName {
		u.model.fail(fmt.Errorf("%w: basic flow of use case %q must be declared first", api.ErrInvalidModel, u.name))
	}
	return u.Flow(BasicFlowName)
}

// Flow returns the builder of the named flow, declaring it on first use.
func (u *UseCaseBuilder) Flow(name string) *FlowBuilder {
	for _, f := range u.flows {
		if f.def.Name == name {
			return f
		}
	}
	f := &FlowBuilder{useCase: u, def: api.FlowDefinition{Name: name}}
	u.flows = append(u.flows, f)
	return f
}

// Step declares a flowless step.
func (u *UseCaseBuilder) Step(name string) *StepBuilder {
	return u.newStep(name, nil)
}

// When declares a guarded flowless step named after its position, like
// "S1". Complete it with Handles.
func (u *UseCaseBuilder) When(cond api.Condition) *StepBuilder {
	u.flowless++
	return u.newStep(fmt.Sprintf("S%d", u.flowless), nil).Condition(cond)
}

// Handles declares an unguarded flowless step named after its position and
// returns the use case for further declarations.
func (u *UseCaseBuilder) Handles(h Handler) *UseCaseBuilder {
	u.flowless++
	return u.newStep(fmt.Sprintf("S%d", u.flowless), nil).Handles(h)
}

// UseCase continues with another use case of the same model.
func (u *UseCaseBuilder) UseCase(name string) *UseCaseBuilder { return u.model.UseCase(name) }

func (u *UseCaseBuilder) Build() (*api.Model, error) { return u.model.Build() }
func (u *UseCaseBuilder) MustBuild() *api.Model      { return u.model.MustBuild() }

func (u *UseCaseBuilder) userActor() *api.Actor {
	if u.defaultActor != nil {
		return u.defaultActor
	}
	return u.model.userActor
}

func (u *UseCaseBuilder) newStep(name string, flow *FlowBuilder) *StepBuilder {
	s := &StepBuilder{useCase: u, flow: flow, def: api.StepDefinition{Name: name}}
	if flow != nil {
		s.def.Flow = flow.def.Name
	}
	u.steps = append(u.steps, s)
	return s
}

func (u *UseCaseBuilder) definition() (api.UseCaseDefinition, error) {
	def := api.UseCaseDefinition{Name: u.name}
	for _, f := range u.flows {
		def.Flows = append(def.Flows, f.def)
	}

	names := make(map[string]bool, len(u.steps))
	for _, s := range u.steps {
		names[s.def.Name] = true
	}
	for _, s := range u.steps {
		if s.continuesAt != "" && !names[s.continuesAt] {
			return def, fmt.Errorf("%w: step %q continues at unknown step %q in use case %q",
				api.ErrNoSuchElementInModel, s.def.Name, s.continuesAt, u.name)
		}
		def.Steps = append(def.Steps, s.definition())
	}
	return def, nil
}

// FlowBuilder declares the position, condition and steps of a flow.
type FlowBuilder struct {
	useCase *UseCaseBuilder
	def     api.FlowDefinition
}

// Anytime lets the flow start whenever its first step matches.
func (f *FlowBuilder) Anytime() *FlowBuilder {
	f.def.Position = api.Anytime()
	return f
}

// After lets the flow start once the named step was the latest to run.
func (f *FlowBuilder) After(stepName string) *FlowBuilder {
	f.def.Position = api.After(stepName)
	return f
}

// InsteadOf lets the flow start in place of the named step.
func (f *FlowBuilder) InsteadOf(stepName string) *FlowBuilder {
	f.def.Position = api.InsteadOf(stepName)
	return f
}

// Condition guards the start of the flow.
func (f *FlowBuilder) Condition(cond api.Condition) *FlowBuilder {
	f.def.Condition = cond
	return f
}

// Step declares the next step of the flow.
func (f *FlowBuilder) Step(name string) *StepBuilder {
	return f.useCase.newStep(name, f)
}

// StepBuilder declares a single step. Its methods return the step builder
// itself; Step, Flow and UseCase move on to the next declaration.
type StepBuilder struct {
	useCase  *UseCaseBuilder
	flow     *FlowBuilder
	def      api.StepDefinition
	userStep bool

	// continuesAt is the target of a jump step, checked by Build.
	continuesAt string
}

// As restricts the actors that may trigger the step.
func (s *StepBuilder) As(actors ...*api.Actor) *StepBuilder {
	s.def.Actors = append(s.def.Actors, actors...)
	return s
}

// Condition guards the step.
func (s *StepBuilder) Condition(cond api.Condition) *StepBuilder {
	s.def.Condition = cond
	return s
}

// User makes the step react to a message sent by the default user, or by
// the actors given to As.
func (s *StepBuilder) User(h Handler) *StepBuilder {
	s.userStep = true
	return s.react(h)
}

// On makes the step react to a message from any actor, typically an event
// or an error.
func (s *StepBuilder) On(h Handler) *StepBuilder {
	return s.react(h)
}

// Handles completes a step declared with When. It returns the use case.
func (s *StepBuilder) Handles(h Handler) *UseCaseBuilder {
	s.react(h)
	return s.useCase
}

// System makes the step autonomous: it runs without a message as soon as it
// is reachable.
func (s *StepBuilder) System(fn func(ctx context.Context) error) *StepBuilder {
	if fn == nil {
		s.useCase.model.fail(fmt.Errorf("%w: step %q has no reaction", api.ErrInvalidModel, s.def.Name))
		return s
	}
	s.def.MessageType = api.MessageType{}
	s.def.Reaction = func(ctx context.Context, _ any) (any, error) {
		return nil, fn(ctx)
	}
	return s
}

// SystemPublish makes the step autonomous and publishes what fn returns.
func (s *StepBuilder) SystemPublish(fn func(ctx context.Context) (any, error)) *StepBuilder {
	if fn == nil {
		s.useCase.model.fail(fmt.Errorf("%w: step %q has no reaction", api.ErrInvalidModel, s.def.Name))
		return s
	}
	s.def.MessageType = api.MessageType{}
	s.def.Reaction = func(ctx context.Context, _ any) (any, error) {
		return fn(ctx)
	}
	return s
}

// To names the recipient of the values the step publishes.
func (s *StepBuilder) To(actor *api.Actor) *StepBuilder {
	s.def.PublishTo = actor
	return s
}

// ContinuesAfter makes the step an autonomous jump: the runner continues as
// if the named step had just run.
func (s *StepBuilder) ContinuesAfter(stepName string) *StepBuilder {
	return s.continues(stepName, api.Runner.ContinuesAfter)
}

// ContinuesAt makes the step an autonomous jump to the named step. Flows
// positioned instead of that step still take precedence.
func (s *StepBuilder) ContinuesAt(stepName string) *StepBuilder {
	return s.continues(stepName, api.Runner.ContinuesAt)
}

// ContinuesWithoutAlternativeAt makes the step an autonomous jump to the
// named step, which then runs even if an alternative flow is enabled.
func (s *StepBuilder) ContinuesWithoutAlternativeAt(stepName string) *StepBuilder {
	return s.continues(stepName, api.Runner.ContinuesWithoutAlternativeAt)
}

// Step declares the next step: in the same flow, or flowless if this step
// is flowless.
func (s *StepBuilder) Step(name string) *StepBuilder {
	if s.flow != nil {
		return s.flow.Step(name)
	}
	return s.useCase.Step(name)
}

// Flow continues with another flow of the same use case.
func (s *StepBuilder) Flow(name string) *FlowBuilder { return s.useCase.Flow(name) }

// UseCase continues with another use case of the same model.
func (s *StepBuilder) UseCase(name string) *UseCaseBuilder { return s.useCase.UseCase(name) }

func (s *StepBuilder) Build() (*api.Model, error) { return s.useCase.Build() }
func (s *StepBuilder) MustBuild() *api.Model      { return s.useCase.MustBuild() }

func (s *StepBuilder) react(h Handler) *StepBuilder {
	if h.reaction == nil {
		s.useCase.model.fail(fmt.Errorf("%w: step %q has no handler", api.ErrInvalidModel, s.def.Name))
		return s
	}
	s.def.MessageType = h.messageType
	s.def.Reaction = h.reaction
	return s
}

func (s *StepBuilder) continues(stepName string, apply func(api.Runner, string) error) *StepBuilder {
	s.continuesAt = stepName
	s.def.MessageType = api.MessageType{}
	s.def.Reaction = func(ctx context.Context, _ any) (any, error) {
		r, ok := api.RunnerFromContext(ctx)
		if !ok {
			return nil, api.ErrNoRunnerInContext
		}
		return nil, apply(r, stepName)
	}
	return s
}

func (s *StepBuilder) definition() api.StepDefinition {
	def := s.def
	def.Actors = append([]*api.Actor(nil), s.def.Actors...)
	if len(def.Actors) == 0 {
		if s.userStep {
			def.Actors = []*api.Actor{s.useCase.userActor()}
		} else {
			def.Actors = []*api.Actor{s.useCase.model.systemActor}
		}
	}
	return def
}
