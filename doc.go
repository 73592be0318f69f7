// Package reqflow turns use case models into running code.
//
// A model describes what a system does as use cases made of flows of steps.
// A runner executes the model: for each message it receives (a command, an
// event, an error) it selects the single step that should react, runs it,
// and advances its position. Steps that need no message run on their own as
// soon as they become reachable.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Model, built with NewModel
//  2. Runner, created with NewRunner
//  3. Handler, created with Handles, Publishes or IgnoresIt
//  4. Observer and the step history
//
// # Model
//
// A model contains use cases. Each use case has an ordered list of flows,
// the first of which is the basic flow, and optionally flowless steps:
//
//	model := reqflow.NewModel().
//	    UseCase("Get greeted").
//	    BasicFlow().
//	        Step("S1").User(reqflow.Handles(saveName)).
//	        Step("S2").System(greetUser).
//	    Flow("Invalid name").InsteadOf("S2").Condition(nameIsInvalid).
//	        Step("S2a_1").System(showError).
//	        Step("S2a_2").ContinuesAt("S1").
//	    MustBuild()
//
// A step inside a flow is reachable right after the step before it. The first
// step of the basic flow is reachable before any step ran. Other flows start
// Anytime, After a given step, or InsteadOf a given step; an enabled
// InsteadOf flow always wins over the step it replaces.
//
// Flowless steps are reachable whenever their condition holds, which suits
// event-driven models:
//
//	reqflow.NewModel().
//	    UseCase("Credit card").
//	        When(accountIsOpen).Handles(reqflow.Handles(requestToCloseCycle)).
//	        Handles(reqflow.IgnoresIt[RequestsRepay]())
//
// Conditions are plain functions evaluated against live state. Expr compiles
// them from expressions instead.
//
// # Runner
//
// A Runner owns the position of one execution. ReactTo delivers messages;
// values published by reactions are delivered within the same call, then
// every reachable autonomous step runs. Reactions reach their runner through
// the context, to reposition it (ContinuesAt and friends) or to Stop it.
//
// Runners report to an Observer. LoggingObserver logs with log/slog,
// BasicMetrics counts, and a HistoryObserver appends every completed step
// to a HistoryStore kept in memory or in SQLite.
//
// For examples, see the /examples directory.
package reqflow
