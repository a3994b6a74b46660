// Package registry wires action types to their executor factories.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.ActionType]protocol.ExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.ActionType]protocol.ExecutorFactory),
	}
}

func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.factories[factory.Type()] = factory
}

// Types returns the registered action types.
func (r *Registry) Types() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	return types
}

// CreateExecutor builds an executor for the action's type.
func (r *Registry) CreateExecutor(action *models.Action) (protocol.Executor, error) {
	factory, ok := r.factories[action.Type]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", action.Type)
	}

	return factory.Create(action)
}

// ValidateAction checks the action's typed configuration against the
// factory's JSON schema.
func (r *Registry) ValidateAction(action *models.Action) error {
	factory, ok := r.factories[action.Type]
	if !ok {
		return fmt.Errorf("action type '%s' not registered", action.Type)
	}

	config, err := action.Config()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config for action %s: %w", action.ID, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(factory.Schema()),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for action %s: %w", action.ID, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid config for %s action %s: %s", action.Type, action.ID, strings.Join(details, "; "))
	}

	return nil
}
