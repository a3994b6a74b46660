// Package webhook provides the HTTP webhook action executor.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
	"github.com/yanyucloud/flowd/pkg/template"
)

const defaultTimeoutSeconds = 30

// ErrWebhookStatus is returned when the target responds with a non-2xx
// status. The wrapping error message carries the status code and text.
var ErrWebhookStatus = errors.New("webhook returned non-success status")

// Executor issues one HTTP request as configured. URL, headers and body are
// rendered against the execution variables before the request is built.
type Executor struct {
	action  *models.Action
	config  *models.WebhookConfig
	method  string
	timeout time.Duration
}

func NewExecutor(action *models.Action) (*Executor, error) {
	if action.Webhook == nil {
		return nil, fmt.Errorf("%w for webhook action %q", models.ErrMissingConfig, action.ID)
	}

	if action.Webhook.URL == "" {
		return nil, fmt.Errorf("webhook action %q has no url", action.ID)
	}

	method := strings.ToUpper(action.Webhook.Method)
	if method == "" {
		method = http.MethodPost
	}

	return &Executor{
		action:  action,
		config:  action.Webhook,
		method:  method,
		timeout: defaultTimeoutSeconds * time.Second,
	}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error {
	logger = logger.With("action_type", "webhook")

	req, err := e.buildRequest(ctx, execCtx)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "Sending webhook request", "method", e.method, "url", req.URL.String())

	client := &http.Client{Timeout: e.timeout}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read webhook response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d %s", ErrWebhookStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	execCtx.Execution.AppendLog(models.LogLevelDebug,
		fmt.Sprintf("Webhook response (%d): %s", resp.StatusCode, string(bodyBytes)),
		e.action.ID, map[string]any{"status_code": resp.StatusCode})

	logger.InfoContext(ctx, "Webhook completed", "status_code", resp.StatusCode, "body_length", len(bodyBytes))

	return nil
}

func (e *Executor) buildRequest(ctx context.Context, execCtx *models.ExecutionContext) (*http.Request, error) {
	url, err := template.RenderString(e.config.URL, execCtx.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to render webhook url: %w", err)
	}

	bodyReader, err := e.buildRequestBody(execCtx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, e.method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}

	if e.config.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range e.config.Headers {
		rendered, err := template.RenderString(value, execCtx.Variables)
		if err != nil {
			return nil, fmt.Errorf("failed to render header '%s': %w", key, err)
		}

		req.Header.Set(key, rendered)
	}

	return req, nil
}

func (e *Executor) buildRequestBody(execCtx *models.ExecutionContext) (io.Reader, error) {
	if e.config.Body == "" {
		return strings.NewReader(""), nil
	}

	body, err := template.RenderWithVariables(e.config.Body, execCtx.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to render webhook body: %w", err)
	}

	if str, ok := body.(string); ok {
		return strings.NewReader(str), nil
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook body: %w", err)
	}

	return strings.NewReader(string(bodyBytes)), nil
}

// Factory creates webhook executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.ActionType {
	return models.ActionTypeWebhook
}

func (f *Factory) Create(action *models.Action) (protocol.Executor, error) {
	return NewExecutor(action)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Target URL. Supports templating against execution variables.",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method, defaults to POST.",
				"enum":        []string{"", "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":                 "object",
				"description":          "Request headers. Values support templating.",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body, sent as JSON. Supports templating.",
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}
