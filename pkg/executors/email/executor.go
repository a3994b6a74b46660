// Package email provides the email action executor. Delivery is a stub for
// an external mail service: the executor records intent, nothing is sent.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
	"github.com/yanyucloud/flowd/pkg/template"
)

type Executor struct {
	action *models.Action
	config *models.EmailConfig
}

func NewExecutor(action *models.Action) (*Executor, error) {
	if action.Email == nil {
		return nil, fmt.Errorf("%w for email action %q", models.ErrMissingConfig, action.ID)
	}

	if len(action.Email.To) == 0 {
		return nil, fmt.Errorf("email action %q has no recipients", action.ID)
	}

	return &Executor{action: action, config: action.Email}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error {
	logger = logger.With("action_type", "email")

	subject, err := template.RenderString(e.config.Subject, execCtx.Variables)
	if err != nil {
		return fmt.Errorf("failed to render email subject: %w", err)
	}

	logger.InfoContext(ctx, "Email delivery requested",
		"to", e.config.To, "subject", subject)

	execCtx.Execution.AppendLog(models.LogLevelInfo,
		fmt.Sprintf("Email queued for %s: %s", strings.Join(e.config.To, ", "), subject),
		e.action.ID, map[string]any{"recipients": len(e.config.To)})

	return nil
}

// Factory creates email executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.ActionType {
	return models.ActionTypeEmail
}

func (f *Factory) Create(action *models.Action) (protocol.Executor, error) {
	return NewExecutor(action)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "array",
				"minItems":    1,
				"items":       map[string]any{"type": "string", "format": "email"},
				"description": "Recipient addresses.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Mail subject. Supports templating against execution variables.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Mail body. Supports templating against execution variables.",
			},
		},
		"required":             []string{"to"},
		"additionalProperties": false,
	}
}
