package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Activity names.
const (
	ActivityParseQuery       = "ParseQuery"
	ActivityStoreBatchResult = "StoreBatchResult"
)

// BatchParseWorkflow parses the queries of a batch one at a time, in order.
// The first failing query ends the batch; the results parsed so far are kept.
// The final result is stored whether the batch completed or failed.
func BatchParseWorkflow(ctx workflow.Context, job domain.BatchJob) (*domain.BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch parse workflow", "batchID", job.ID, "queries", len(job.Queries))

	// Parse activities run once.
	parseCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	storeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})

	result := &domain.BatchResult{
		ID:          job.ID,
		Status:      domain.BatchCompleted,
		Total:       len(job.Queries),
		SubmittedAt: job.SubmittedAt,
	}

	for i, query := range job.Queries {
		var q domain.GeoQuery
		if err := workflow.ExecuteActivity(parseCtx, ActivityParseQuery, query).Get(ctx, &q); err != nil {
			index := i
			result.Status = domain.BatchFailed
			result.FailedIndex = &index
			result.Error = activityMessage(err)
			logger.Warn("batch query failed", "batchID", job.ID, "index", i, "error", result.Error)
			break
		}
		result.Results = append(result.Results, &q)
	}

	completedAt := workflow.Now(ctx).UTC()
	result.CompletedAt = &completedAt

	if err := workflow.ExecuteActivity(storeCtx, ActivityStoreBatchResult, result).Get(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Batch parse workflow finished", "batchID", job.ID, "status", result.Status)
	return result, nil
}

// activityMessage unwraps the application error raised by an activity.
func activityMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}
