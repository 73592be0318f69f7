package api

import (
	"errors"
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// MessageType is the type token a step accepts messages by.
//
// The zero MessageType accepts nothing; steps that carry it are autonomous
// and run without a message.
type MessageType struct {
	t reflect.Type
}

// TypeOf returns the MessageType for T. T may be an interface, in which case
// every message implementing it is accepted.
func TypeOf[T any]() MessageType {
	return MessageType{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// MessageTypeOf returns the exact MessageType of msg, or the zero value for nil.
func MessageTypeOf(msg any) MessageType {
	if msg == nil {
		return MessageType{}
	}
	return MessageType{t: reflect.TypeOf(msg)}
}

// IsZero reports whether mt is the autonomous (no message) token.
func (mt MessageType) IsZero() bool {
	return mt.t == nil
}

// Type returns the underlying reflect.Type, nil for the zero value.
func (mt MessageType) Type() reflect.Type {
	return mt.t
}

func (mt MessageType) String() string {
	if mt.t == nil {
		return ""
	}
	return mt.t.String()
}

// IsFailure reports whether the token describes error values.
func (mt MessageType) IsFailure() bool {
	return mt.t != nil && mt.t.Implements(errorType)
}

// Accepts reports whether msg can be delivered to a step declared with mt.
//
// A message is accepted when its dynamic type is mt, when mt is an interface
// the message implements, or when the message is an error whose chain holds
// a value of type mt.
func (mt MessageType) Accepts(msg any) bool {
	if mt.t == nil || msg == nil {
		return false
	}
	dyn := reflect.TypeOf(msg)
	if dyn == mt.t {
		return true
	}
	if mt.t.Kind() == reflect.Interface && dyn.Implements(mt.t) {
		return true
	}
	_, ok := unwrapAs(msg, mt.t)
	return ok
}

// unwrapAs looks for a value of type t in the chain of msg, if msg is an error.
func unwrapAs(msg any, t reflect.Type) (any, bool) {
	err, ok := msg.(error)
	if !ok {
		return nil, false
	}
	// errors.As panics for targets that are neither interfaces nor errors.
	if t.Kind() != reflect.Interface && !t.Implements(errorType) {
		return nil, false
	}
	target := reflect.New(t)
	if !errors.As(err, target.Interface()) {
		return nil, false
	}
	return target.Elem().Interface(), true
}

// Convert extracts a T from msg using the same rules as MessageType.Accepts.
func Convert[T any](msg any) (T, error) {
	if v, ok := msg.(T); ok {
		return v, nil
	}
	var zero T
	if v, ok := unwrapAs(msg, reflect.TypeOf((*T)(nil)).Elem()); ok {
		return v.(T), nil
	}
	return zero, fmt.Errorf("%w: got %T, want %s", ErrUnexpectedMessage, msg, TypeOf[T]())
}
