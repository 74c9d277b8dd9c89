package fetchewaybill

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
	"ewaybill-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "ewaybill.document.fetch"

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	service      *Service
	errorHandler *errors.ErrorHandler
	jobWorker    *camunda.JobWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Fetcher      Fetcher
	// Cache is optional; nil disables caching.
	Cache  Cache
	Logger logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.WorkerFetchEwayBill, err)
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("%s requires a compliance API client", config.WorkerFetchEwayBill)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:  workerConfig,
		logger:  log,
		camunda: opts.Camunda,
		service: NewService(ServiceDependencies{
			Fetcher: opts.Fetcher,
			Cache:   opts.Cache,
			Logger:  log,
		}, workerConfig),
		errorHandler: errors.NewErrorHandler(log).WithMaxRetries(workerConfig.MaxRetries),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := camunda.WorkContext(h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.logger.Debug("eWay Bill fetched", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"ewbNo":     input.EwbNo.String(),
		"fromCache": output.FromCache,
	})

	variables := map[string]interface{}{
		"ewayBill":  output.EwayBill,
		"badge":     output.Badge,
		"fromCache": output.FromCache,
	}
	if camunda.CompleteJob(ctx, client, job, variables, h.logger) {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewValidationError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	return &input, nil
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
		FetchVariables: []string{"ewbNo"},
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
