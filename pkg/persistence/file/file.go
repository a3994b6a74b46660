// Package file provides file-based snapshot persistence for workflows and
// execution history.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/persistence"
)

const (
	workflowsFile  = "workflows.json"
	executionsFile = "executions.json"
)

// Persistence stores snapshots as JSON blobs under a root directory. A
// corrupted or missing blob loads as an empty set with a warning, matching
// the contract that callers tolerate an empty set after a persistence fault.
type Persistence struct {
	root   string
	logger *slog.Logger
}

func NewPersistence(root string, logger *slog.Logger) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:   cleanRoot,
		logger: logger.With("module", "file_persistence"),
	}
}

func (fp *Persistence) SaveWorkflows(_ context.Context, workflows []*models.Workflow) error {
	return fp.saveBlob(workflowsFile, workflows)
}

func (fp *Persistence) LoadWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	var workflows []*models.Workflow
	if !fp.loadBlob(ctx, workflowsFile, &workflows) || workflows == nil {
		return make([]*models.Workflow, 0), nil
	}

	return workflows, nil
}

func (fp *Persistence) SaveExecutions(_ context.Context, executions []*models.WorkflowExecution) error {
	if len(executions) > persistence.ExecutionHistoryLimit {
		executions = executions[len(executions)-persistence.ExecutionHistoryLimit:]
	}

	return fp.saveBlob(executionsFile, executions)
}

func (fp *Persistence) LoadExecutions(ctx context.Context) ([]*models.WorkflowExecution, error) {
	var executions []*models.WorkflowExecution
	if !fp.loadBlob(ctx, executionsFile, &executions) || executions == nil {
		return make([]*models.WorkflowExecution, 0), nil
	}

	return executions, nil
}

func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) saveBlob(name string, value any) error {
	if err := os.MkdirAll(fp.root, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(fp.root, name)

	return os.WriteFile(path, data, 0600)
}

// loadBlob fills target from the named blob. It reports false on read or
// decode failure so the caller can fall back to an empty set.
func (fp *Persistence) loadBlob(ctx context.Context, name string, target any) bool {
	path := filepath.Clean(filepath.Join(fp.root, name))

	body, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fp.logger.WarnContext(ctx, "Failed to read snapshot, treating as empty", "blob", name, "error", err)
		}

		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		fp.logger.WarnContext(ctx, "Snapshot is corrupted, treating as empty", "blob", name, "error", err)

		return false
	}

	return true
}
