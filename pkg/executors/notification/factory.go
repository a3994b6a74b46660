package notification

import (
	"context"
	"log/slog"

	"github.com/yanyucloud/flowd/pkg/eventbus"
	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
)

// Factory creates notification executors bound to a host notifier.
type Factory struct {
	notifier protocol.Notifier
	bus      eventbus.EventBus
}

func NewFactory(notifier protocol.Notifier, bus eventbus.EventBus) *Factory {
	return &Factory{notifier: notifier, bus: bus}
}

func (f *Factory) Type() models.ActionType {
	return models.ActionTypeNotification
}

func (f *Factory) Create(action *models.Action) (protocol.Executor, error) {
	return NewExecutor(action, f.notifier, f.bus)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Notification title. Supports templating against execution variables.",
			},
			"message": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Notification body. Supports templating against execution variables.",
			},
		},
		"required":             []string{"title", "message"},
		"additionalProperties": false,
	}
}

// SlogNotifier is the default host notifier: permission is always granted
// and notifications surface as log lines.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger.With("module", "notifier")}
}

func (n *SlogNotifier) RequestPermission(_ context.Context) (protocol.Permission, error) {
	return protocol.PermissionGranted, nil
}

func (n *SlogNotifier) Show(ctx context.Context, title, body string) error {
	n.logger.InfoContext(ctx, "Notification", "title", title, "body", body)

	return nil
}
