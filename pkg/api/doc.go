// Package api contains the core building blocks of the reqflow engine: the
// model (actors, use cases, flows, steps and their flow positions), the
// Runner contract, and the observability types the runner reports to.
//
// Most users interact with the higher-level reqflow package, which builds
// models with a fluent builder and re-exports the types of this package.
//
// # Model
//
// A Model is built once from a ModelDefinition and never changes
// afterwards. Each use case holds an ordered list of flows (the first one is
// the basic flow) and steps. A step belongs to at most one flow; steps that
// belong to none are flowless and are reachable whenever their guard, actor
// and message type match.
//
// A flow may carry a FlowPosition that tells when its first step becomes
// reachable: Anytime, After a named step, or InsteadOf a named step.
// InsteadOf flows pre-empt the step they name.
//
// # Messages
//
// Steps accept messages by MessageType. A type token accepts values of the
// same dynamic type, values implementing it when it is an interface, and
// errors wrapping a value of it. Steps with the zero MessageType are
// autonomous: the runner executes them without a message.
//
// # Observability
//
// Runners report to an Observer. LoggingObserver logs with log/slog,
// BasicMetrics counts, Recorder keeps the names of executed steps, and
// CompositeObserver fans out to several of them.
package api
