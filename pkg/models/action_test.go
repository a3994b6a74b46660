package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_UnmarshalJSON_ValidVariants(t *testing.T) {
	testCases := []struct {
		name       string
		payload    string
		actionType ActionType
	}{
		{
			name:       "notification",
			payload:    `{"id":"act-1","name":"Notify","type":"notification","notification":{"title":"Hi","message":"There"}}`,
			actionType: ActionTypeNotification,
		},
		{
			name:       "email",
			payload:    `{"id":"act-2","name":"Mail","type":"email","email":{"to":["ops@example.com"],"subject":"Report"}}`,
			actionType: ActionTypeEmail,
		},
		{
			name:       "webhook",
			payload:    `{"id":"act-3","name":"Hook","type":"webhook","webhook":{"url":"https://example.com/hook"}}`,
			actionType: ActionTypeWebhook,
		},
		{
			name:       "script",
			payload:    `{"id":"act-4","name":"Script","type":"script","script":{"source":"flow.Log(\"hi\")"}}`,
			actionType: ActionTypeScript,
		},
		{
			name:       "delay",
			payload:    `{"id":"act-5","name":"Wait","type":"delay","delay":{"duration":5,"unit":"seconds"}}`,
			actionType: ActionTypeDelay,
		},
		{
			name:       "condition",
			payload:    `{"id":"act-6","name":"Check","type":"condition","condition":{"expression":"true"}}`,
			actionType: ActionTypeCondition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var action Action

			err := json.Unmarshal([]byte(tc.payload), &action)
			require.NoError(t, err)

			assert.Equal(t, tc.actionType, action.Type)

			config, err := action.Config()
			require.NoError(t, err)
			assert.NotNil(t, config)
		})
	}
}

func TestAction_UnmarshalJSON_UnknownType(t *testing.T) {
	var action Action

	err := json.Unmarshal([]byte(`{"id":"act-1","name":"Odd","type":"carrier-pigeon"}`), &action)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownActionType)
}

func TestAction_UnmarshalJSON_MissingConfig(t *testing.T) {
	var action Action

	err := json.Unmarshal([]byte(`{"id":"act-1","name":"Hook","type":"webhook"}`), &action)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestAction_Config_MismatchedVariant(t *testing.T) {
	action := Action{
		ID:   "act-1",
		Name: "Wait",
		Type: ActionTypeDelay,
		// Webhook config set, delay config missing.
		Webhook: &WebhookConfig{URL: "https://example.com"},
	}

	_, err := action.Config()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestDelayConfig_Wait(t *testing.T) {
	testCases := []struct {
		name     string
		config   DelayConfig
		expected time.Duration
	}{
		{
			name:     "seconds",
			config:   DelayConfig{Duration: 30, Unit: DelayUnitSeconds},
			expected: 30 * time.Second,
		},
		{
			name:     "minutes",
			config:   DelayConfig{Duration: 5, Unit: DelayUnitMinutes},
			expected: 5 * time.Minute,
		},
		{
			name:     "hours",
			config:   DelayConfig{Duration: 2, Unit: DelayUnitHours},
			expected: 2 * time.Hour,
		},
		{
			name:     "days",
			config:   DelayConfig{Duration: 1, Unit: DelayUnitDays},
			expected: 24 * time.Hour,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wait, err := tc.config.Wait()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, wait)
		})
	}
}

func TestDelayConfig_Wait_UnknownUnit(t *testing.T) {
	config := DelayConfig{Duration: 10, Unit: "fortnights"}

	_, err := config.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDelayUnit)
}
