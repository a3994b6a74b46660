// Package script provides the script action executor, dispatching to a
// registered script engine by language.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
)

// ErrUnsupportedLanguage is returned when no engine serves the configured
// script language.
var ErrUnsupportedLanguage = errors.New("unsupported script language")

// DefaultLanguage is assumed when the action config leaves language empty.
const DefaultLanguage = "go"

// Executor evaluates the configured source against the execution's shared
// variables map. Mutations made by the script are visible to later actions.
type Executor struct {
	action *models.Action
	config *models.ScriptConfig
	engine protocol.ScriptEngine
}

func NewExecutor(action *models.Action, engines map[string]protocol.ScriptEngine) (*Executor, error) {
	if action.Script == nil {
		return nil, fmt.Errorf("%w for script action %q", models.ErrMissingConfig, action.ID)
	}

	language := action.Script.Language
	if language == "" {
		language = DefaultLanguage
	}

	engine, ok := engines[language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	return &Executor{action: action, config: action.Script, engine: engine}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error {
	logger = logger.With("action_type", "script", "language", e.engine.Language())
	logger.DebugContext(ctx, "Evaluating script")

	logFn := func(message string) {
		execCtx.Execution.AppendLog(models.LogLevelInfo, message, e.action.ID, nil)
	}

	if err := e.engine.Run(ctx, e.config.Source, execCtx.Variables, logFn); err != nil {
		return err
	}

	execCtx.Execution.AppendLog(models.LogLevelInfo, "Script completed", e.action.ID, nil)

	return nil
}

// Factory creates script executors over a set of registered engines.
type Factory struct {
	engines map[string]protocol.ScriptEngine
}

func NewFactory(engines ...protocol.ScriptEngine) *Factory {
	byLanguage := make(map[string]protocol.ScriptEngine, len(engines))
	for _, engine := range engines {
		byLanguage[engine.Language()] = engine
	}

	return &Factory{engines: byLanguage}
}

func (f *Factory) Type() models.ActionType {
	return models.ActionTypeScript
}

func (f *Factory) Create(action *models.Action) (protocol.Executor, error) {
	return NewExecutor(action, f.engines)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"language": map[string]any{
				"type":        "string",
				"description": "Script language, defaults to \"go\".",
			},
			"source": map[string]any{
				"type":        "string",
				"minLength":   1,
				"format":      "code",
				"description": "Script source. The execution variables are exposed as flow.Vars; flow.Log appends to the execution log.",
			},
		},
		"required":             []string{"source"},
		"additionalProperties": false,
	}
}
