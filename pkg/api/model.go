package api

import "fmt"

// ModelDefinition declares a whole model. Nil reserved actors are created
// by NewModel.
type ModelDefinition struct {
	SystemActor *Actor
	UserActor   *Actor
	UseCases    []UseCaseDefinition
}

// Model is the immutable container of use cases a Runner executes.
// A Model may back any number of runners.
type Model struct {
	useCases    []*UseCase
	byName      map[string]*UseCase
	steps       []*Step
	systemActor *Actor
	userActor   *Actor
}

// NewModel validates def and builds the model it describes.
func NewModel(def ModelDefinition) (*Model, error) {
	m := &Model{
		byName:      make(map[string]*UseCase),
		systemActor: def.SystemActor,
		userActor:   def.UserActor,
	}
	if m.systemActor == nil {
		m.systemActor = NewActor(SystemActorName)
	}
	if m.userActor == nil {
		m.userActor = NewActor(UserActorName)
	}

	for _, ucDef := range def.UseCases {
		uc, err := m.addUseCase(ucDef)
		if err != nil {
			return nil, err
		}
		m.useCases = append(m.useCases, uc)
		m.byName[uc.name] = uc
	}
	return m, nil
}

func (m *Model) addUseCase(def UseCaseDefinition) (*UseCase, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: use case name is required", ErrInvalidModel)
	}
	if _, exists := m.byName[def.Name]; exists {
		return nil, fmt.Errorf("%w: use case %q", ErrElementAlreadyInModel, def.Name)
	}

	uc := &UseCase{
		name:    def.Name,
		model:   m,
		byName:  make(map[string]*Step),
		flowsBy: make(map[string]*Flow),
	}

	conditions := make(map[*Flow]Condition, len(def.Flows))
	for i, fDef := range def.Flows {
		if fDef.Name == "" {
			return nil, fmt.Errorf("%w: flow name is required in use case %q", ErrInvalidModel, def.Name)
		}
		if _, exists := uc.flowsBy[fDef.Name]; exists {
			return nil, fmt.Errorf("%w: flow %q in use case %q", ErrElementAlreadyInModel, fDef.Name, def.Name)
		}
		f := &Flow{
			name:     fDef.Name,
			useCase:  uc,
			position: fDef.Position,
			basic:    i == 0,
		}
		uc.flows = append(uc.flows, f)
		uc.flowsBy[f.name] = f
		conditions[f] = fDef.Condition
	}

	for _, sDef := range def.Steps {
		if sDef.Name == "" {
			return nil, fmt.Errorf("%w: step name is required in use case %q", ErrInvalidModel, def.Name)
		}
		if _, exists := uc.byName[sDef.Name]; exists {
			return nil, fmt.Errorf("%w: step %q in use case %q", ErrElementAlreadyInModel, sDef.Name, def.Name)
		}
		if sDef.Reaction == nil {
			return nil, fmt.Errorf("%w: step %q has no reaction", ErrInvalidModel, sDef.Name)
		}

		s := &Step{
			name:        sDef.Name,
			useCase:     uc,
			index:       len(m.steps),
			guard:       sDef.Condition,
			actors:      append([]*Actor(nil), sDef.Actors...),
			messageType: sDef.MessageType,
			reaction:    sDef.Reaction,
			publishTo:   sDef.PublishTo,
		}
		if sDef.Flow != "" {
			f, err := uc.Flow(sDef.Flow)
			if err != nil {
				return nil, err
			}
			f.steps = append(f.steps, s)
			s.flow = f
			s.ordinal = len(f.steps)
			if s.ordinal == 1 {
				s.guard = and(conditions[f], s.guard)
			}
		}

		uc.steps = append(uc.steps, s)
		uc.byName[s.name] = s
		m.steps = append(m.steps, s)
	}

	// Positions may refer to steps declared later, so resolve them last.
	for _, f := range uc.flows {
		switch f.position.kind {
		case PositionAfter, PositionInsteadOf:
			target, err := uc.Step(f.position.stepName)
			if err != nil {
				return nil, fmt.Errorf("flow %q %s: %w", f.name, f.position, err)
			}
			f.position.step = target
		}
	}
	return uc, nil
}

// UseCases returns the use cases in registration order.
func (m *Model) UseCases() []*UseCase {
	return append([]*UseCase(nil), m.useCases...)
}

// UseCase looks up a use case by name.
func (m *Model) UseCase(name string) (*UseCase, error) {
	uc, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: use case %q", ErrNoSuchElementInModel, name)
	}
	return uc, nil
}

// Steps returns every step of the model in declaration order: use cases in
// registration order, then steps in the order they were declared inside
// their use case. The runner breaks ties between candidates by this order.
func (m *Model) Steps() []*Step {
	return append([]*Step(nil), m.steps...)
}

// SystemActor is the reserved actor of autonomous and event-handling steps.
func (m *Model) SystemActor() *Actor { return m.systemActor }

// UserActor is the reserved actor used when a step declares no actor.
func (m *Model) UserActor() *Actor { return m.userActor }
