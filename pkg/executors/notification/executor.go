// Package notification provides the system-notification action executor.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanyucloud/flowd/pkg/eventbus"
	"github.com/yanyucloud/flowd/pkg/events"
	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
	"github.com/yanyucloud/flowd/pkg/template"
)

// Executor dispatches a notification through the host notifier when
// permission is granted, and falls back to logging otherwise. Title and
// message are rendered against the execution variables.
type Executor struct {
	action   *models.Action
	config   *models.NotificationConfig
	notifier protocol.Notifier
	bus      eventbus.EventBus
}

func NewExecutor(action *models.Action, notifier protocol.Notifier, bus eventbus.EventBus) (*Executor, error) {
	if action.Notification == nil {
		return nil, fmt.Errorf("%w for notification action %q", models.ErrMissingConfig, action.ID)
	}

	return &Executor{
		action:   action,
		config:   action.Notification,
		notifier: notifier,
		bus:      bus,
	}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error {
	logger = logger.With("action_type", "notification")

	title, err := template.RenderString(e.config.Title, execCtx.Variables)
	if err != nil {
		return fmt.Errorf("failed to render notification title: %w", err)
	}

	message, err := template.RenderString(e.config.Message, execCtx.Variables)
	if err != nil {
		return fmt.Errorf("failed to render notification message: %w", err)
	}

	permission, err := e.notifier.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request notification permission: %w", err)
	}

	if permission == protocol.PermissionGranted {
		if err := e.notifier.Show(ctx, title, message); err != nil {
			return fmt.Errorf("failed to show notification: %w", err)
		}

		execCtx.Execution.AppendLog(models.LogLevelInfo,
			fmt.Sprintf("Notification shown: %s", title), e.action.ID, nil)
	} else {
		logger.InfoContext(ctx, "Notification permission denied, logging only",
			"title", title, "message", message)
		execCtx.Execution.AppendLog(models.LogLevelInfo,
			fmt.Sprintf("Notification logged (permission denied): %s", title), e.action.ID, nil)
	}

	if e.bus != nil {
		event := events.NotificationDispatched{
			BaseEvent:   events.NewBaseEvent(events.NotificationDispatchedEvent, execCtx.Workflow.ID),
			ExecutionID: execCtx.Execution.ID,
			Title:       title,
			Message:     message,
		}
		if err := e.bus.Publish(ctx, execCtx.Workflow.ID, event); err != nil {
			logger.WarnContext(ctx, "Failed to publish notification event", "error", err)
		}
	}

	return nil
}
