package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ActionType tags the variant of an action's configuration.
type ActionType string

const (
	ActionTypeNotification ActionType = "notification"
	ActionTypeEmail        ActionType = "email"
	ActionTypeWebhook      ActionType = "webhook"
	ActionTypeScript       ActionType = "script"
	ActionTypeDelay        ActionType = "delay"
	ActionTypeCondition    ActionType = "condition"
)

var (
	ErrUnknownActionType = errors.New("unknown action type")
	ErrMissingConfig     = errors.New("missing action configuration")
	ErrUnknownDelayUnit  = errors.New("unknown delay unit")
)

// NotificationConfig dispatches a system notification through the host
// notifier. Title and message support templating against execution variables.
type NotificationConfig struct {
	Title   string `json:"title"   validate:"required"`
	Message string `json:"message" validate:"required"`
}

// EmailConfig describes an outbound mail. Delivery is a stub: the executor
// records intent only, an external mail service owns real delivery.
type EmailConfig struct {
	To      []string `json:"to"      validate:"required,min=1,dive,email"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// WebhookConfig issues an HTTP request to an external URL. URL, headers and
// body support templating against execution variables.
type WebhookConfig struct {
	URL     string            `json:"url"               validate:"required,url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ScriptConfig evaluates source code against the shared execution variables.
// Language selects a registered script engine; it defaults to "go".
type ScriptConfig struct {
	Language string `json:"language,omitempty"`
	Source   string `json:"source"             validate:"required"`
}

// DelayUnit scales a delay duration.
type DelayUnit string

const (
	DelayUnitSeconds DelayUnit = "seconds"
	DelayUnitMinutes DelayUnit = "minutes"
	DelayUnitHours   DelayUnit = "hours"
	DelayUnitDays    DelayUnit = "days"
)

// DelayConfig suspends the execution runner before the next action.
type DelayConfig struct {
	Duration int       `json:"duration" validate:"required,gt=0"`
	Unit     DelayUnit `json:"unit"     validate:"required,oneof=seconds minutes hours days"`
}

// Wait returns the delay as a duration. Unrecognized units are rejected
// here and at validation time, never at tick time.
func (c DelayConfig) Wait() (time.Duration, error) {
	base := time.Duration(c.Duration)

	switch c.Unit {
	case DelayUnitSeconds:
		return base * time.Second, nil
	case DelayUnitMinutes:
		return base * time.Minute, nil
	case DelayUnitHours:
		return base * time.Hour, nil
	case DelayUnitDays:
		return base * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDelayUnit, c.Unit)
	}
}

// ConditionConfig evaluates a boolean expression against the current
// variables, then dispatches the matching branch of referenced action IDs.
type ConditionConfig struct {
	Expression string   `json:"expression"         validate:"required"`
	OnTrue     []string `json:"on_true,omitempty"`
	OnFalse    []string `json:"on_false,omitempty"`
}

// Action is one executable step in a workflow. Exactly one config field is
// set, matching Type; actions execute in ascending Order.
type Action struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"    validate:"required"`
	Enabled bool       `json:"enabled"`
	Type    ActionType `json:"type"    validate:"required"`
	Order   int        `json:"order"`

	Notification *NotificationConfig `json:"notification,omitempty"`
	Email        *EmailConfig        `json:"email,omitempty"`
	Webhook      *WebhookConfig      `json:"webhook,omitempty"`
	Script       *ScriptConfig       `json:"script,omitempty"`
	Delay        *DelayConfig        `json:"delay,omitempty"`
	Condition    *ConditionConfig    `json:"condition,omitempty"`
}

// Config returns the variant matching the action's type.
func (a *Action) Config() (any, error) {
	var cfg any

	switch a.Type {
	case ActionTypeNotification:
		if a.Notification != nil {
			cfg = a.Notification
		}
	case ActionTypeEmail:
		if a.Email != nil {
			cfg = a.Email
		}
	case ActionTypeWebhook:
		if a.Webhook != nil {
			cfg = a.Webhook
		}
	case ActionTypeScript:
		if a.Script != nil {
			cfg = a.Script
		}
	case ActionTypeDelay:
		if a.Delay != nil {
			cfg = a.Delay
		}
	case ActionTypeCondition:
		if a.Condition != nil {
			cfg = a.Condition
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, a.Type)
	}

	if cfg == nil {
		return nil, fmt.Errorf("%w for %s action %q", ErrMissingConfig, a.Type, a.ID)
	}

	return cfg, nil
}

// UnmarshalJSON decodes an action and rejects unknown types and missing
// type-specific configuration at the boundary.
func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action

	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*a = Action(decoded)

	_, err := a.Config()

	return err
}
