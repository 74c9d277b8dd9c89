// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"ewaybill-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every eWay Bill worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	// FetchVariables limits the process variables sent with each job.
	FetchVariables []string
}

// JobWorker is an open Zeebe job subscription for one task type.
type JobWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// OpenWorker subscribes handler to opts.TaskType.
func OpenWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, log logger.Logger) *JobWorker {
	builder := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(fmt.Sprintf("%s-worker", opts.TaskType))
	if len(opts.FetchVariables) > 0 {
		builder = builder.FetchVariables(opts.FetchVariables...)
	}
	jobWorker := builder.Open()

	log.Info("Worker registered with Camunda", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})

	return &JobWorker{worker: jobWorker, logger: log, taskType: opts.TaskType}
}

// Close stops polling and waits for in-flight jobs.
func (w *JobWorker) Close() {
	if w == nil || w.worker == nil {
		return
	}
	w.logger.Info("Shutting down worker gracefully", map[string]interface{}{
		"taskType": w.taskType,
	})
	w.worker.Close()
	w.worker.AwaitClose()
	w.worker = nil
}

// CommandTimeout bounds a complete command sent to the broker.
const CommandTimeout = 10 * time.Second

// WorkContext bounds the work done for one job. Its deadline falls before the
// job activation timeout so the result reaches the broker before the job can
// be handed to another worker.
func WorkContext(jobTimeout time.Duration) (context.Context, context.CancelFunc) {
	margin := jobTimeout / 10
	if margin > CommandTimeout {
		margin = CommandTimeout
	}
	return context.WithTimeout(context.Background(), jobTimeout-margin)
}

// CompleteJob completes job with variables. It reports whether the broker
// accepted the command. The command is sent even if ctx has already expired.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}, log logger.Logger) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CommandTimeout)
	defer cancel()

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		log.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return false
	}

	if _, err := request.Send(ctx); err != nil {
		log.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return false
	}
	return true
}
