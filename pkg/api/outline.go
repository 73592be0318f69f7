package api

// Outline is a plain description of a model for tooling and diagnostics.
type Outline struct {
	UseCases []UseCaseOutline `yaml:"useCases" json:"useCases"`
}

type UseCaseOutline struct {
	Name     string        `yaml:"name" json:"name"`
	Flows    []FlowOutline `yaml:"flows,omitempty" json:"flows,omitempty"`
	Flowless []StepOutline `yaml:"flowless,omitempty" json:"flowless,omitempty"`
}

type FlowOutline struct {
	Name     string        `yaml:"name" json:"name"`
	Position string        `yaml:"position,omitempty" json:"position,omitempty"`
	Steps    []StepOutline `yaml:"steps" json:"steps"`
}

type StepOutline struct {
	Name        string   `yaml:"name" json:"name"`
	MessageType string   `yaml:"message,omitempty" json:"message,omitempty"`
	Actors      []string `yaml:"actors,omitempty" json:"actors,omitempty"`
	Guarded     bool     `yaml:"guarded,omitempty" json:"guarded,omitempty"`
	PublishTo   string   `yaml:"publishTo,omitempty" json:"publishTo,omitempty"`
}

// Outline describes the model's use cases, flows and steps.
func (m *Model) Outline() Outline {
	var out Outline
	for _, uc := range m.useCases {
		uo := UseCaseOutline{Name: uc.name}
		for _, f := range uc.flows {
			fo := FlowOutline{Name: f.name}
			if !f.position.IsZero() {
				fo.Position = f.position.String()
			}
			for _, s := range f.steps {
				fo.Steps = append(fo.Steps, s.outline())
			}
			uo.Flows = append(uo.Flows, fo)
		}
		for _, s := range uc.FlowlessSteps() {
			uo.Flowless = append(uo.Flowless, s.outline())
		}
		out.UseCases = append(out.UseCases, uo)
	}
	return out
}

func (s *Step) outline() StepOutline {
	so := StepOutline{
		Name:        s.name,
		MessageType: s.messageType.String(),
		Guarded:     s.guard != nil,
	}
	for _, a := range s.actors {
		so.Actors = append(so.Actors, a.Name())
	}
	if s.publishTo != nil {
		so.PublishTo = s.publishTo.Name()
	}
	return so
}
