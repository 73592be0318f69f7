package api

import "context"

// Condition is a guard evaluated against live state each time the runner
// considers a step. It must not have side effects: it may be called any
// number of times per message.
type Condition func() bool

// Reaction is the normalized form of every step reaction. Autonomous steps
// receive a nil message. A non-nil result is published by the runner.
type Reaction func(ctx context.Context, msg any) (any, error)

// StepDefinition declares a step of a use case.
type StepDefinition struct {
	Name string

	// Flow names the flow the step belongs to. Empty means flowless.
	Flow string

	Condition Condition

	// Actors that may trigger the step. Empty means any actor.
	Actors []*Actor

	// MessageType accepted by the step. Zero means autonomous.
	MessageType MessageType

	Reaction Reaction

	// PublishTo is recipient metadata attached to published results.
	PublishTo *Actor
}

// Step is the atomic unit of reaction inside a model.
type Step struct {
	name        string
	useCase     *UseCase
	flow        *Flow
	ordinal     int
	index       int
	guard       Condition
	actors      []*Actor
	messageType MessageType
	reaction    Reaction
	publishTo   *Actor
}

func (s *Step) Name() string             { return s.name }
func (s *Step) UseCase() *UseCase        { return s.useCase }
func (s *Step) Flow() *Flow              { return s.flow }
func (s *Step) Actors() []*Actor         { return append([]*Actor(nil), s.actors...) }
func (s *Step) Reaction() Reaction       { return s.reaction }
func (s *Step) PublishTo() *Actor        { return s.publishTo }
func (s *Step) IsFlowless() bool         { return s.flow == nil }
func (s *Step) IsAutonomous() bool       { return s.messageType.IsZero() }
func (s *Step) Guard() Condition         { return s.guard }
func (s *Step) MessageType() MessageType { return s.messageType }

// Ordinal is the 1-based position of the step inside its flow, 0 for
// flowless steps.
func (s *Step) Ordinal() int { return s.ordinal }

// Index is the step's position in the model-wide declaration order.
func (s *Step) Index() int { return s.index }

// Position returns the flow position for the first step of a flow. Every
// other step carries the zero position.
func (s *Step) Position() FlowPosition {
	if s.flow == nil || s.ordinal != 1 {
		return FlowPosition{}
	}
	return s.flow.position
}

// Previous returns the step declared before s in its flow, or nil.
func (s *Step) Previous() *Step {
	if s.flow == nil || s.ordinal <= 1 {
		return nil
	}
	return s.flow.steps[s.ordinal-2]
}

// Next returns the step declared after s in its flow, or nil.
func (s *Step) Next() *Step {
	if s.flow == nil || s.ordinal >= len(s.flow.steps) {
		return nil
	}
	return s.flow.steps[s.ordinal]
}

// IsGuardTrue evaluates the guard; steps without a guard are always enabled.
func (s *Step) IsGuardTrue() bool {
	return s.guard == nil || s.guard()
}

// AcceptsActor reports whether actor may trigger s. Steps open to the system
// actor accept every actor.
func (s *Step) AcceptsActor(actor *Actor) bool {
	if len(s.actors) == 0 {
		return true
	}
	if containsActor(s.actors, s.useCase.model.systemActor) {
		return true
	}
	return containsActor(s.actors, actor)
}

// AcceptsMessage reports whether s reacts to msg. A nil msg matches
// autonomous steps only.
func (s *Step) AcceptsMessage(msg any) bool {
	if msg == nil {
		return s.messageType.IsZero()
	}
	return s.messageType.Accepts(msg)
}

func (s *Step) String() string {
	return s.useCase.name + "/" + s.name
}

func and(a, b Condition) Condition {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func() bool { return a() && b() }
}
