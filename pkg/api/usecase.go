package api

import "fmt"

// UseCaseDefinition declares a use case. The first flow is the basic flow.
// Steps are listed in declaration order, which is also the order used to
// break ties between candidates.
type UseCaseDefinition struct {
	Name  string
	Flows []FlowDefinition
	Steps []StepDefinition
}

// UseCase is a named container of flows and flowless steps.
type UseCase struct {
	name    string
	model   *Model
	flows   []*Flow
	steps   []*Step
	byName  map[string]*Step
	flowsBy map[string]*Flow
}

func (uc *UseCase) Name() string  { return uc.name }
func (uc *UseCase) Model() *Model { return uc.model }

// Flows returns the flows in declaration order.
func (uc *UseCase) Flows() []*Flow {
	return append([]*Flow(nil), uc.flows...)
}

// BasicFlow returns the first declared flow, or nil if there is none.
func (uc *UseCase) BasicFlow() *Flow {
	if len(uc.flows) == 0 {
		return nil
	}
	return uc.flows[0]
}

// Flow looks up a flow by name.
func (uc *UseCase) Flow(name string) (*Flow, error) {
	f, ok := uc.flowsBy[name]
	if !ok {
		return nil, fmt.Errorf("%w: flow %q in use case %q", ErrNoSuchElementInModel, name, uc.name)
	}
	return f, nil
}

// Steps returns all steps of the use case in declaration order.
func (uc *UseCase) Steps() []*Step {
	return append([]*Step(nil), uc.steps...)
}

// FlowlessSteps returns the steps that belong to no flow.
func (uc *UseCase) FlowlessSteps() []*Step {
	var out []*Step
	for _, s := range uc.steps {
		if s.flow == nil {
			out = append(out, s)
		}
	}
	return out
}

// Step looks up a step by name.
func (uc *UseCase) Step(name string) (*Step, error) {
	s, ok := uc.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: step %q in use case %q", ErrNoSuchElementInModel, name, uc.name)
	}
	return s, nil
}

// HasStep reports whether the use case declares a step with the given name.
func (uc *UseCase) HasStep(name string) bool {
	_, ok := uc.byName[name]
	return ok
}
