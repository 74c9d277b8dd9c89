package bulkextend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ewaybill-workers/internal/common/camunda"
	"ewaybill-workers/internal/common/config"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/common/metrics"
	"ewaybill-workers/internal/common/observability"
	"ewaybill-workers/internal/common/validation"
	"ewaybill-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "ewaybill.validity.bulk-extend"

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	service      *Service
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	jobWorker    *camunda.JobWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Extender      Extender
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.WorkerBulkExtend, err)
	}
	if opts.Extender == nil {
		return nil, fmt.Errorf("%s requires a compliance API client", config.WorkerBulkExtend)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.WithFields(map[string]interface{}{"worker": TaskType})

	handler := &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		errorHandler: errors.NewErrorHandler(loggerInstance).WithMaxRetries(workerConfig.MaxRetries),
		obs:          opts.Observability,
	}

	handler.service = NewService(ServiceDependencies{
		Extender:      opts.Extender,
		Logger:        loggerInstance,
		Observability: opts.Observability,
	}, handler.config)

	return handler, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := camunda.WorkContext(h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing bulk extension request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	if !h.config.Enabled {
		h.logger.Info("Worker disabled by configuration", nil)
		h.completeJob(ctx, client, job, map[string]interface{}{
			"batchSuccess": false,
			"batchMessage": "bulk extension disabled",
		})
		return
	}

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		h.recordJob(ctx, startTime, "failed")
		return
	}

	result, err := h.service.RunBatch(ctx, input.Documents, input.Request, h.logProgress(job))
	if err != nil {
		h.fail(ctx, client, job, err)
		h.recordJob(ctx, startTime, "failed")
		return
	}

	h.completeJob(ctx, client, job, resultVariables(result))
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.recordJob(ctx, startTime, "completed")
}

func (h *Handler) recordJob(ctx context.Context, start time.Time, status string) {
	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, time.Since(start), status)
}

func (h *Handler) logProgress(job entities.Job) ProgressFunc {
	return func(processed, total int) {
		h.logger.Debug("Bulk extension progress", map[string]interface{}{
			"jobKey":    job.GetKey(),
			"processed": processed,
			"total":     total,
		})
	}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewValidationError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	return &input, nil
}

func resultVariables(result models.BatchResult) map[string]interface{} {
	return map[string]interface{}{
		"batchResult":    result,
		"batchId":        result.BatchID,
		"batchSuccess":   result.Success,
		"succeededCount": result.Succeeded,
		"failedCount":    result.Failed,
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}) {
	if camunda.CompleteJob(ctx, client, job, variables, h.logger) {
		h.logger.Info("Completed bulk extension job", map[string]interface{}{
			"jobKey":  job.GetKey(),
			"batchId": variables["batchId"],
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client not configured", TaskType)
	}

	h.jobWorker = camunda.OpenWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:       TaskType,
		MaxJobsActive:  h.config.MaxJobsActive,
		Timeout:        h.config.Timeout,
		FetchVariables: []string{"documents", "request"},
	}, h, h.logger)
	return nil
}

func (h *Handler) Close() {
	h.jobWorker.Close()
	h.jobWorker = nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

// Service exposes the batch processor to the HTTP API.
func (h *Handler) Service() *Service {
	return h.service
}

// Execute runs a batch directly without a job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.BatchResult, error) {
	return h.service.Execute(ctx, input)
}
