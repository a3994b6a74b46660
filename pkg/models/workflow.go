// Package models defines the core domain models for workflow automation.
package models

import (
	"sort"
	"time"
)

// Variable is a named default value declared on a workflow. Declared values
// seed the mutable variables map of every execution.
type Variable struct {
	Name  string `json:"name"  validate:"required"`
	Value any    `json:"value"`
}

// Workflow represents a named automation unit: an ordered set of actions
// driven by schedule triggers.
//
// ExecutionCount == SuccessCount + FailureCount holds after every
// engine-mediated update.
type Workflow struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"        validate:"required,min=3"`
	Description    string     `json:"description"`
	Enabled        bool       `json:"enabled"`
	Triggers       []*Trigger `json:"triggers"`
	Actions        []*Action  `json:"actions"`
	Variables      []Variable `json:"variables"`
	ExecutionCount int        `json:"execution_count"`
	SuccessCount   int        `json:"success_count"`
	FailureCount   int        `json:"failure_count"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastExecuted   *time.Time `json:"last_executed,omitempty"`
}

// VariableDefaults returns the declared variables as a fresh map.
func (w *Workflow) VariableDefaults() map[string]any {
	defaults := make(map[string]any, len(w.Variables))
	for _, v := range w.Variables {
		defaults[v.Name] = v.Value
	}

	return defaults
}

// ActionByID looks up an action in the workflow's action list.
func (w *Workflow) ActionByID(id string) (*Action, bool) {
	for _, action := range w.Actions {
		if action.ID == id {
			return action, true
		}
	}

	return nil, false
}

// SortedActions returns the actions ordered by ascending Order. The
// workflow's own slice is left untouched.
func (w *Workflow) SortedActions() []*Action {
	actions := make([]*Action, len(w.Actions))
	copy(actions, w.Actions)

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Order < actions[j].Order
	})

	return actions
}
