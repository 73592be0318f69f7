package api

import "errors"

var (
	// ErrNoSuchElementInModel is returned when a name refers to a use case,
	// flow or step that the model does not contain.
	ErrNoSuchElementInModel = errors.New("no such element in model")

	// ErrElementAlreadyInModel is returned when a use case, flow or step
	// name is declared twice in the same scope.
	ErrElementAlreadyInModel = errors.New("element already in model")

	// ErrInvalidModel is returned for definitions that cannot form a model,
	// such as empty names or missing reactions.
	ErrInvalidModel = errors.New("invalid model")

	// ErrLivelock is returned when the autonomous cascade selects the same
	// step twice in direct succession, or runs more steps than a runner's
	// configured bound. Longer cycles such as S1, S2, S1 are only caught by
	// that bound; without one they run until a guard or the context ends them.
	ErrLivelock = errors.New("autonomous step selected twice in succession")

	// ErrNoRunnerInContext is returned by helpers that need the runner of the
	// reaction being executed, but were called with a plain context.
	ErrNoRunnerInContext = errors.New("no runner in context")

	// ErrUnexpectedMessage is returned by typed reactions that receive a
	// message they cannot convert.
	ErrUnexpectedMessage = errors.New("unexpected message type")
)
