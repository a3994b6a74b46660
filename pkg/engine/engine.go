// Package engine owns workflow storage, scheduling and execution dispatch.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yanyucloud/flowd/pkg/eventbus"
	"github.com/yanyucloud/flowd/pkg/events"
	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/persistence"
	"github.com/yanyucloud/flowd/pkg/registry"
	"github.com/yanyucloud/flowd/pkg/scheduler"
)

// Config carries the engine's injected dependencies. The caller owning the
// application lifecycle constructs one engine and passes it by reference;
// there is no package-level instance.
type Config struct {
	Logger      *slog.Logger
	Persistence persistence.Persistence
	Scheduler   *scheduler.Scheduler
	Registry    *registry.Registry
	EventBus    eventbus.EventBus
	Clock       clockwork.Clock
}

// Engine is the single entry point for workflow CRUD, execution and stats.
// The workflow map is the canonical in-memory copy; the scheduler holds only
// timer handles keyed by workflow and trigger ID.
type Engine struct {
	logger    *slog.Logger
	store     persistence.Persistence
	scheduler *scheduler.Scheduler
	registry  *registry.Registry
	bus       eventbus.EventBus
	clock     clockwork.Clock
	validate  *validator.Validate

	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	executions map[string]*models.WorkflowExecution
	history    []*models.WorkflowExecution
}

func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Engine{
		logger:     logger.With("module", "engine"),
		store:      cfg.Persistence,
		scheduler:  cfg.Scheduler,
		registry:   cfg.Registry,
		bus:        cfg.EventBus,
		clock:      clock,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.WorkflowExecution),
		history:    make([]*models.WorkflowExecution, 0),
	}
}

// WorkflowUpdate is a partial update; nil fields are left unchanged.
// Counters and version are engine-owned and cannot be set through an update.
type WorkflowUpdate struct {
	Name        *string            `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string            `json:"description,omitempty"`
	Enabled     *bool              `json:"enabled,omitempty"`
	Triggers    []*models.Trigger  `json:"triggers,omitempty"`
	Actions     []*models.Action   `json:"actions,omitempty"`
	Variables   []models.Variable  `json:"variables,omitempty"`
}

// CreateWorkflow validates and stores a new workflow, schedules it when
// enabled, and persists the snapshot.
func (e *Engine) CreateWorkflow(ctx context.Context, input *models.Workflow) (*models.Workflow, error) {
	workflow := cloneWorkflow(input)

	now := e.clock.Now().UTC()
	workflow.ID = "wf-" + uuid.New().String()[:8]
	workflow.ExecutionCount = 0
	workflow.SuccessCount = 0
	workflow.FailureCount = 0
	workflow.Version = 1
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	workflow.LastExecuted = nil

	if err := e.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.workflows[workflow.ID] = workflow
	e.mu.Unlock()

	e.scheduleWorkflow(workflow)

	if err := e.persistWorkflows(ctx); err != nil {
		return nil, err
	}

	e.publish(ctx, events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, workflow.ID),
		Name:      workflow.Name,
	})

	e.logger.InfoContext(ctx, "Workflow created", "workflow_id", workflow.ID, "name", workflow.Name)

	return cloneWorkflow(workflow), nil
}

// UpdateWorkflow merges the partial update into the stored workflow, bumps
// the version, refreshes UpdatedAt and re-schedules. Unknown IDs return
// persistence.ErrWorkflowNotFound without mutating anything.
func (e *Engine) UpdateWorkflow(ctx context.Context, id string, update WorkflowUpdate) (*models.Workflow, error) {
	if err := e.validate.Struct(update); err != nil {
		return nil, err
	}

	e.mu.Lock()

	existing, ok := e.workflows[id]
	if !ok {
		e.mu.Unlock()

		return nil, fmt.Errorf("workflow %s: %w", id, persistence.ErrWorkflowNotFound)
	}

	updated := cloneWorkflow(existing)
	applyUpdate(updated, update)
	updated.Version = existing.Version + 1
	updated.UpdatedAt = e.clock.Now().UTC()

	if err := e.validateWorkflow(updated); err != nil {
		e.mu.Unlock()

		return nil, err
	}

	e.workflows[id] = updated
	e.mu.Unlock()

	e.scheduleWorkflow(updated)

	if err := e.persistWorkflows(ctx); err != nil {
		return nil, err
	}

	e.publish(ctx, events.WorkflowUpdated{
		BaseEvent: events.NewBaseEvent(events.WorkflowUpdatedEvent, id),
		Version:   updated.Version,
	})

	return cloneWorkflow(updated), nil
}

// DeleteWorkflow cancels the workflow's timers and removes it. It reports
// whether the workflow existed.
func (e *Engine) DeleteWorkflow(ctx context.Context, id string) bool {
	e.scheduler.Unschedule(id)

	e.mu.Lock()
	_, existed := e.workflows[id]
	delete(e.workflows, id)
	e.mu.Unlock()

	if !existed {
		return false
	}

	if err := e.persistWorkflows(ctx); err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist after delete", "workflow_id", id, "error", err)
	}

	e.publish(ctx, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id),
	})

	return true
}

// GetWorkflow returns a copy of the stored workflow.
func (e *Engine) GetWorkflow(id string) (*models.Workflow, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	workflow, ok := e.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", id, persistence.ErrWorkflowNotFound)
	}

	return cloneWorkflow(workflow), nil
}

// GetAllWorkflows returns copies of every workflow, oldest first.
func (e *Engine) GetAllWorkflows() []*models.Workflow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(e.workflows))
	for _, workflow := range e.workflows {
		workflows = append(workflows, cloneWorkflow(workflow))
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows
}

// LoadWorkflows replaces the in-memory set from the persisted snapshot and
// schedules every workflow currently marked enabled.
func (e *Engine) LoadWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := e.store.LoadWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.workflows = make(map[string]*models.Workflow, len(workflows))
	for _, workflow := range workflows {
		e.workflows[workflow.ID] = workflow
	}
	e.mu.Unlock()

	for _, workflow := range workflows {
		e.scheduleWorkflow(workflow)
	}

	e.logger.InfoContext(ctx, "Workflows loaded", "count", len(workflows))

	return workflows, nil
}

// LoadExecutions replaces the in-memory execution history from the
// persisted snapshot.
func (e *Engine) LoadExecutions(ctx context.Context) ([]*models.WorkflowExecution, error) {
	executions, err := e.store.LoadExecutions(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.history = executions
	e.executions = make(map[string]*models.WorkflowExecution, len(executions))
	for _, execution := range executions {
		e.executions[execution.ID] = execution
	}
	e.mu.Unlock()

	return executions, nil
}

// GetExecution returns a snapshot of one execution record by ID. The record
// may still be running; the snapshot is safe to serialize regardless.
func (e *Engine) GetExecution(id string) (*models.WorkflowExecution, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	execution, ok := e.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
	}

	return execution.Snapshot(), nil
}

// GetWorkflowExecutions returns snapshots of the recorded executions of one
// workflow, oldest first.
func (e *Engine) GetWorkflowExecutions(workflowID string) []*models.WorkflowExecution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	executions := make([]*models.WorkflowExecution, 0)
	for _, execution := range e.history {
		if execution.WorkflowID == workflowID {
			executions = append(executions, execution.Snapshot())
		}
	}

	return executions
}

// Close stops all timers and releases the engine's resources.
func (e *Engine) Close(ctx context.Context) error {
	e.scheduler.Stop()

	if e.bus != nil {
		if err := e.bus.Close(); err != nil {
			e.logger.WarnContext(ctx, "Failed to close event bus", "error", err)
		}
	}

	return e.store.Close(ctx)
}

func (e *Engine) validateWorkflow(workflow *models.Workflow) error {
	if err := e.validate.Struct(workflow); err != nil {
		return err
	}

	for _, trigger := range workflow.Triggers {
		if err := e.validate.Struct(trigger); err != nil {
			return fmt.Errorf("trigger %s: %w", trigger.ID, err)
		}

		if err := trigger.Validate(); err != nil {
			return fmt.Errorf("trigger %s: %w", trigger.ID, err)
		}
	}

	for _, action := range workflow.Actions {
		if err := e.registry.ValidateAction(action); err != nil {
			return err
		}
	}

	return nil
}

// scheduleWorkflow re-arms the workflow's timers from its current
// definition. Each tick runs an execution attributed to its trigger.
func (e *Engine) scheduleWorkflow(workflow *models.Workflow) {
	e.scheduler.Schedule(workflow, func(ctx context.Context, workflowID, triggerID, triggerName string) {
		triggeredBy := fmt.Sprintf("schedule trigger: %s", triggerName)

		if _, err := e.ExecuteWorkflow(ctx, workflowID, triggeredBy, nil); err != nil {
			e.logger.ErrorContext(ctx, "Scheduled execution failed",
				"workflow_id", workflowID, "trigger_id", triggerID, "error", err)
		}
	})
}

// persistWorkflows serializes a copy taken under the lock; the stored
// workflows keep changing (counters, concurrent updates) while the snapshot
// is marshaled and written.
func (e *Engine) persistWorkflows(ctx context.Context) error {
	e.mu.RLock()
	workflows := make([]*models.Workflow, 0, len(e.workflows))
	for _, workflow := range e.workflows {
		workflows = append(workflows, cloneWorkflow(workflow))
	}
	e.mu.RUnlock()

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return e.store.SaveWorkflows(ctx, workflows)
}

// persistExecutions serializes snapshots; records in history may belong to
// runs that are still appending logs.
func (e *Engine) persistExecutions(ctx context.Context) error {
	e.mu.RLock()
	executions := make([]*models.WorkflowExecution, len(e.history))
	for i, execution := range e.history {
		executions[i] = execution.Snapshot()
	}
	e.mu.RUnlock()

	return e.store.SaveExecutions(ctx, executions)
}

func (e *Engine) publish(ctx context.Context, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, string(event.GetType()), event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func applyUpdate(workflow *models.Workflow, update WorkflowUpdate) {
	if update.Name != nil {
		workflow.Name = *update.Name
	}

	if update.Description != nil {
		workflow.Description = *update.Description
	}

	if update.Enabled != nil {
		workflow.Enabled = *update.Enabled
	}

	if update.Triggers != nil {
		workflow.Triggers = update.Triggers
	}

	if update.Actions != nil {
		workflow.Actions = update.Actions
	}

	if update.Variables != nil {
		workflow.Variables = update.Variables
	}
}

func cloneWorkflow(workflow *models.Workflow) *models.Workflow {
	clone := *workflow

	clone.Triggers = make([]*models.Trigger, len(workflow.Triggers))
	copy(clone.Triggers, workflow.Triggers)

	clone.Actions = make([]*models.Action, len(workflow.Actions))
	copy(clone.Actions, workflow.Actions)

	clone.Variables = make([]models.Variable, len(workflow.Variables))
	copy(clone.Variables, workflow.Variables)

	if workflow.LastExecuted != nil {
		lastExecuted := *workflow.LastExecuted
		clone.LastExecuted = &lastExecuted
	}

	return &clone
}
