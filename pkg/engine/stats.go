package engine

import "github.com/yanyucloud/flowd/pkg/models"

// Stats aggregates dashboard-level numbers across workflows and executions.
type Stats struct {
	TotalWorkflows    int                         `json:"total_workflows"`
	ActiveWorkflows   int                         `json:"active_workflows"`
	TotalExecutions   int                         `json:"total_executions"`
	SuccessRate       float64                     `json:"success_rate"`
	AverageDurationMS float64                     `json:"average_duration_ms"`
	RecentExecutions  []*models.WorkflowExecution `json:"recent_executions"`
}

// GetStats computes totals, success rate (percent of completed executions),
// average duration over executions with a recorded duration, and the 10 most
// recent executions, newest first. Empty history yields zeroed rates.
func (e *Engine) GetStats() Stats {
	e.mu.RLock()

	stats := Stats{
		TotalWorkflows:   len(e.workflows),
		TotalExecutions:  len(e.history),
		RecentExecutions: make([]*models.WorkflowExecution, 0, 10),
	}

	for _, workflow := range e.workflows {
		if workflow.Enabled {
			stats.ActiveWorkflows++
		}
	}

	// Aggregate over snapshots; running records keep mutating underneath.
	history := make([]*models.WorkflowExecution, len(e.history))
	for i, execution := range e.history {
		history[i] = execution.Snapshot()
	}

	e.mu.RUnlock()

	completed := 0
	finished := 0

	var totalDuration int64

	for _, execution := range history {
		if execution.Status == models.ExecutionStatusCompleted {
			completed++
		}

		if execution.FinishedAt != nil {
			finished++
			totalDuration += execution.DurationMS
		}
	}

	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(completed) / float64(stats.TotalExecutions) * 100
	}

	if finished > 0 {
		stats.AverageDurationMS = float64(totalDuration) / float64(finished)
	}

	for i := len(history) - 1; i >= 0 && len(stats.RecentExecutions) < 10; i-- {
		stats.RecentExecutions = append(stats.RecentExecutions, history[i])
	}

	return stats
}
