// Package events defines event types for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every lifecycle event on the in-process bus.
const Topic = "flowd.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"

	WorkflowExecutionStartedEvent   EventType = "workflow.execution.started"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"

	NotificationDispatchedEvent EventType = "notification.dispatched"
)

type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name string `json:"name"`
}

func (e WorkflowCreated) GetType() EventType { return WorkflowCreatedEvent }

type WorkflowUpdated struct {
	BaseEvent

	Version int `json:"version"`
}

func (e WorkflowUpdated) GetType() EventType { return WorkflowUpdatedEvent }

type WorkflowDeleted struct {
	BaseEvent
}

func (e WorkflowDeleted) GetType() EventType { return WorkflowDeletedEvent }

type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	TriggeredBy string `json:"triggered_by"`
}

func (e WorkflowExecutionStarted) GetType() EventType { return WorkflowExecutionStartedEvent }

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	DurationMS  int64  `json:"duration_ms"`
}

func (e WorkflowExecutionCompleted) GetType() EventType { return WorkflowExecutionCompletedEvent }

type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Error       string `json:"error"`
}

func (e WorkflowExecutionFailed) GetType() EventType { return WorkflowExecutionFailedEvent }

type NotificationDispatched struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
}

func (e NotificationDispatched) GetType() EventType { return NotificationDispatchedEvent }
