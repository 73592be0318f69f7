package api

// PositionKind selects the rule by which a flow may start or interrupt
// another flow.
type PositionKind int

const (
	// PositionNone is the zero kind: a basic flow starts only before any step
	// ran, any other flow only when a runner continues at its first step.
	PositionNone PositionKind = iota
	// PositionAnytime lets the flow start whenever its first step matches.
	PositionAnytime
	// PositionAfter lets the flow start once the named step was the latest to run.
	PositionAfter
	// PositionInsteadOf lets the flow start in place of the named step.
	PositionInsteadOf
)

func (k PositionKind) String() string {
	switch k {
	case PositionAnytime:
		return "anytime"
	case PositionAfter:
		return "after"
	case PositionInsteadOf:
		return "insteadOf"
	}
	return "none"
}

// FlowPosition describes when a flow's first step becomes reachable.
type FlowPosition struct {
	kind     PositionKind
	stepName string
	step     *Step
}

// Anytime returns a position that is always satisfied.
func Anytime() FlowPosition {
	return FlowPosition{kind: PositionAnytime}
}

// After returns a position satisfied right after the named step ran.
func After(stepName string) FlowPosition {
	return FlowPosition{kind: PositionAfter, stepName: stepName}
}

// InsteadOf returns a position satisfied whenever the named step would be
// next in sequence. Such a flow pre-empts the named step.
func InsteadOf(stepName string) FlowPosition {
	return FlowPosition{kind: PositionInsteadOf, stepName: stepName}
}

func (p FlowPosition) Kind() PositionKind { return p.kind }
func (p FlowPosition) StepName() string   { return p.stepName }
func (p FlowPosition) IsZero() bool       { return p.kind == PositionNone }

// Step returns the resolved step the position refers to. It is only set on
// positions taken from a built model.
func (p FlowPosition) Step() *Step { return p.step }

func (p FlowPosition) String() string {
	if p.stepName == "" {
		return p.kind.String()
	}
	return p.kind.String() + " " + p.stepName
}

// FlowDefinition declares a flow of a use case.
type FlowDefinition struct {
	Name     string
	Position FlowPosition

	// Condition is combined with the guard of the flow's first step.
	Condition Condition
}

// Flow is a named, ordered sequence of steps.
type Flow struct {
	name     string
	useCase  *UseCase
	steps    []*Step
	position FlowPosition
	basic    bool
}

func (f *Flow) Name() string           { return f.name }
func (f *Flow) UseCase() *UseCase      { return f.useCase }
func (f *Flow) Position() FlowPosition { return f.position }

// IsBasic reports whether f is the first flow declared in its use case.
func (f *Flow) IsBasic() bool { return f.basic }

// Steps returns the flow's steps in order.
func (f *Flow) Steps() []*Step {
	return append([]*Step(nil), f.steps...)
}

// FirstStep returns the first step, or nil for an empty flow.
func (f *Flow) FirstStep() *Step {
	if len(f.steps) == 0 {
		return nil
	}
	return f.steps[0]
}
