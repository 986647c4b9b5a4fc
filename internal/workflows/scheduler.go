package workflows

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Scheduler implements ports.BatchScheduler by starting a
// BatchParseWorkflow per job.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler creates a new Scheduler.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// WorkflowID returns the workflow id used for a batch.
func WorkflowID(batchID string) string { return "geoquery-batch-" + batchID }

// Schedule starts the workflow for job. A job that was already started,
// for example after a broker redelivery, is not started twice.
func (s *Scheduler) Schedule(ctx context.Context, job *domain.BatchJob) error {
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    WorkflowID(job.ID),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, BatchParseWorkflow, *job)

	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("start batch workflow %s: %w", job.ID, err)
	}
	return nil
}
