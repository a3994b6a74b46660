// Package protocol defines the contracts between the engine and pluggable
// action executors, script engines and host capabilities.
package protocol

import (
	"context"
	"log/slog"

	"github.com/yanyucloud/flowd/pkg/models"
)

// Executor runs one action within an execution. It either completes,
// optionally appending informational log lines to the execution, or returns
// an error that the runner records as the execution's failure reason.
type Executor interface {
	Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error
}

// ExecutorFactory builds executors for one action type.
type ExecutorFactory interface {
	// Type returns the action type this factory serves.
	Type() models.ActionType

	// Schema returns the JSON schema the action's typed config must satisfy.
	Schema() map[string]any

	// Create builds an executor bound to the given action.
	Create(action *models.Action) (Executor, error)
}
