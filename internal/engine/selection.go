package engine

import "github.com/petrijr/reqflow/pkg/api"

// selectStep returns the step that reacts to msg, or nil if there is none.
// A nil msg selects among autonomous steps. A candidate of a flow positioned
// instead of another step outranks the step it pre-empts and any plain
// sequence continuation. Flowless steps and steps of anytime or after flows
// keep their declaration order relative to it; the model's declaration
// order breaks all remaining ties.
func (r *runnerImpl) selectStep(msg any) *api.Step {
	var candidates []*api.Step
	preempted := map[*api.Step]bool{}
	for _, s := range r.steps {
		if !r.isCandidate(s, msg) {
			continue
		}
		if pos := s.Position(); pos.Kind() == api.PositionInsteadOf {
			if r.withoutAlternative && pos.Step() == r.next {
				continue
			}
			preempted[pos.Step()] = true
		}
		candidates = append(candidates, s)
	}

	for _, s := range candidates {
		if len(preempted) > 0 && s.Position().Kind() != api.PositionInsteadOf &&
			(preempted[s] || r.continuesSequence(s)) {
			continue
		}
		return s
	}
	return nil
}

// continuesSequence reports whether s runs as the plain continuation of its
// flow: a forced next step, a step following another one, or the first step
// of an unpositioned flow.
func (r *runnerImpl) continuesSequence(s *api.Step) bool {
	return s == r.next || (!s.IsFlowless() && s.Position().IsZero())
}

func (r *runnerImpl) isCandidate(s *api.Step, msg any) bool {
	return s.AcceptsMessage(msg) &&
		s.AcceptsActor(r.actor) &&
		r.reachable(s, len(r.steps)) &&
		s.IsGuardTrue()
}

// reachable reports whether the runner's position allows s to run next.
// depth bounds chains of flows positioned instead of one another. Of the
// unpositioned flows only the basic one starts on its own; the others are
// entered through ContinuesAt.
func (r *runnerImpl) reachable(s *api.Step, depth int) bool {
	if depth < 0 {
		return false
	}
	if s.IsFlowless() || s == r.next {
		return true
	}
	if prev := s.Previous(); prev != nil {
		return r.latest == prev
	}

	pos := s.Position()
	switch pos.Kind() {
	case api.PositionAnytime:
		return true
	case api.PositionAfter:
		return r.latest == pos.Step()
	case api.PositionInsteadOf:
		return r.reachable(pos.Step(), depth-1)
	}
	return r.latest == nil && s.Flow().IsBasic()
}
