// Package persistence defines the snapshot storage contract for workflows
// and execution history.
package persistence

import (
	"context"
	"errors"

	"github.com/yanyucloud/flowd/pkg/models"
)

var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrExecutionNotFound = errors.New("execution not found")
)

func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// ExecutionHistoryLimit caps the persisted execution snapshot; the oldest
// record is evicted first.
const ExecutionHistoryLimit = 100

// Persistence stores full snapshots of the workflow set and the capped
// execution history. Loads after a persistence fault return an empty set,
// never an error the engine would have to crash on.
type Persistence interface {
	SaveWorkflows(ctx context.Context, workflows []*models.Workflow) error
	LoadWorkflows(ctx context.Context) ([]*models.Workflow, error)

	SaveExecutions(ctx context.Context, executions []*models.WorkflowExecution) error
	LoadExecutions(ctx context.Context) ([]*models.WorkflowExecution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
