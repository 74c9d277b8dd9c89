// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// commandTimeout bounds a fail or throw command sent to the broker.
const commandTimeout = 10 * time.Second

// ErrorHandler decides whether a failed job is retried or escalated as a BPMN error.
type ErrorHandler struct {
	logger Logger
	// maxRetries caps the retries granted per error code; negative means no cap.
	maxRetries int
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger, maxRetries: -1}
}

// WithMaxRetries caps retries at the worker's configured max_retries. With 0
// every error is thrown as a BPMN error.
func (h *ErrorHandler) WithMaxRetries(n int) *ErrorHandler {
	h.maxRetries = n
	return h
}

// Outcome is what HandleJobError did with the job.
type Outcome string

const (
	OutcomeFailed Outcome = "failed"
	OutcomeThrown Outcome = "thrown"
)

// HandleJobError retries technical errors while the job has retries left and
// throws a BPMN error for everything else. Commands are sent even when ctx has
// already expired.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Outcome {
	stdErr := AsStandardError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commandTimeout)
	defer cancel()

	if retries := h.allowedRetries(bpmnErr); retries > 0 && job.Retries > 1 {
		h.failJob(sendCtx, client, job, bpmnErr, retries)
		return OutcomeFailed
	}
	h.throwBPMNError(sendCtx, client, job, bpmnErr)
	return OutcomeThrown
}

func (h *ErrorHandler) allowedRetries(bpmnErr *BPMNError) int {
	if h.maxRetries >= 0 && bpmnErr.Retries > h.maxRetries {
		return h.maxRetries
	}
	return bpmnErr.Retries
}

// remainingRetries never grows the job's own retry budget.
func remainingRetries(job entities.Job, max int) int32 {
	next := job.Retries - 1
	if next > int32(max) {
		next = int32(max)
	}
	if next < 0 {
		next = 0
	}
	return next
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(remainingRetries(job, retries)).
		ErrorMessage(bpmnErr.Message)

	if payload, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(payload)); err == nil {
			_, sendErr := withVars.Send(ctx)
			h.logSendError(job, sendErr)
			return
		}
	}
	_, sendErr := cmd.Send(ctx)
	h.logSendError(job, sendErr)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if payload, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(payload)); err == nil {
			_, sendErr := withVars.Send(ctx)
			h.logSendError(job, sendErr)
			return
		}
	}
	_, sendErr := cmd.Send(ctx)
	h.logSendError(job, sendErr)
}

func (h *ErrorHandler) logSendError(job entities.Job, err error) {
	if err == nil {
		return
	}
	h.logger.Error("Failed to report job error to broker", map[string]interface{}{
		"jobKey": job.Key,
		"error":  err.Error(),
	})
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          bpmnErr.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
