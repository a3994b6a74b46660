package protocol

import "context"

// ScriptEngine evaluates user-authored source for the script action. Engines
// run against the shared mutable variables map of the execution; mutations
// are visible to later actions of the same run.
type ScriptEngine interface {
	// Language is the identifier scripts select the engine by.
	Language() string

	// Run evaluates source. logFn appends a line to the execution log.
	Run(ctx context.Context, source string, vars map[string]any, logFn func(message string)) error
}
