package reqflow

import (
	"context"
	"reflect"

	"github.com/petrijr/reqflow/pkg/api"
)

// Handler binds a reaction to the type of message it accepts. Build one
// with Handles, Publishes or IgnoresIt.
type Handler struct {
	messageType api.MessageType
	reaction    api.Reaction
}

// MessageType returns the type of message the handler accepts.
func (h Handler) MessageType() api.MessageType { return h.messageType }

// Handles wraps a strongly-typed consumer into a Handler accepting T.
// T may be an interface or an error type; see api.MessageType.
//
//	reqflow.Handles(func(ctx context.Context, m EntersText) error { ... })
func Handles[T any](fn func(ctx context.Context, msg T) error) Handler {
	if fn == nil {
		return Handler{messageType: api.TypeOf[T]()}
	}
	return Handler{
		messageType: api.TypeOf[T](),
		reaction: func(ctx context.Context, msg any) (any, error) {
			in, err := api.Convert[T](msg)
			if err != nil {
				return nil, err
			}
			return nil, fn(ctx, in)
		},
	}
}

// Publishes wraps a strongly-typed function whose non-nil result is
// published as a new message.
func Publishes[T, R any](fn func(ctx context.Context, msg T) (R, error)) Handler {
	if fn == nil {
		return Handler{messageType: api.TypeOf[T]()}
	}
	return Handler{
		messageType: api.TypeOf[T](),
		reaction: func(ctx context.Context, msg any) (any, error) {
			in, err := api.Convert[T](msg)
			if err != nil {
				return nil, err
			}
			out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			return publishable(out), nil
		},
	}
}

// IgnoresIt accepts messages of type T and does nothing with them. It is
// useful to consume a message that would otherwise be unhandled.
func IgnoresIt[T any]() Handler {
	return Handler{
		messageType: api.TypeOf[T](),
		reaction:    func(context.Context, any) (any, error) { return nil, nil },
	}
}

// publishable turns typed nil values, such as a nil pointer, into an
// untyped nil so that nothing is published.
func publishable(v any) any {
	if v == nil {
		return nil
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// ContinuesAfter repositions the runner executing the current reaction as
// if the named step had just run.
func ContinuesAfter(ctx context.Context, stepName string) error {
	r, ok := api.RunnerFromContext(ctx)
	if !ok {
		return api.ErrNoRunnerInContext
	}
	return r.ContinuesAfter(stepName)
}

// ContinuesAt makes the named step next in sequence for the runner executing
// the current reaction.
func ContinuesAt(ctx context.Context, stepName string) error {
	r, ok := api.RunnerFromContext(ctx)
	if !ok {
		return api.ErrNoRunnerInContext
	}
	return r.ContinuesAt(stepName)
}

// ContinuesWithoutAlternativeAt is ContinuesAt, ignoring alternative flows
// positioned instead of the named step.
func ContinuesWithoutAlternativeAt(ctx context.Context, stepName string) error {
	r, ok := api.RunnerFromContext(ctx)
	if !ok {
		return api.ErrNoRunnerInContext
	}
	return r.ContinuesWithoutAlternativeAt(stepName)
}

// Stop stops the runner executing the current reaction.
func Stop(ctx context.Context) error {
	r, ok := api.RunnerFromContext(ctx)
	if !ok {
		return api.ErrNoRunnerInContext
	}
	r.Stop()
	return nil
}
