package web

import "github.com/yanyucloud/flowd/pkg/models"

// CreateWorkflowRequest is the POST /workflows payload.
type CreateWorkflowRequest struct {
	Name        string            `json:"name"        validate:"required,min=3"`
	Description string            `json:"description"`
	Enabled     bool              `json:"enabled"`
	Triggers    []*models.Trigger `json:"triggers"`
	Actions     []*models.Action  `json:"actions"`
	Variables   []models.Variable `json:"variables"`
}

// ExecuteWorkflowRequest is the POST /workflows/:id/execute payload.
type ExecuteWorkflowRequest struct {
	TriggeredBy string         `json:"triggered_by"`
	Variables   map[string]any `json:"variables"`
}
