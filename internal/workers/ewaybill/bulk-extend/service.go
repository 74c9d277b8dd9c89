package bulkextend

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/common/metrics"
	"ewaybill-workers/internal/common/observability"
	"ewaybill-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	msgRejected  = "extension rejected by compliance API"
	msgCancelled = "batch cancelled before processing"
)

// Extender is the single compliance API call the batch needs.
type Extender interface {
	ExtendValidity(ctx context.Context, req *ewaybill.ExtendValidityRequest) (bool, error)
}

type ServiceDependencies struct {
	Extender      Extender
	Logger        logger.Logger
	Observability *observability.Observability
	// Clock and NewBatchID are replaced in tests.
	Clock      func() time.Time
	NewBatchID func() string
}

type Service struct {
	config   *Config
	extender Extender
	logger   logger.Logger
	obs      *observability.Observability
	now      func() time.Time
	newID    func() string
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{
		config:   config,
		extender: deps.Extender,
		logger:   deps.Logger,
		obs:      deps.Observability,
		now:      deps.Clock,
		newID:    deps.NewBatchID,
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// Execute runs the job payload as one batch.
func (s *Service) Execute(ctx context.Context, input *Input) (*models.BatchResult, error) {
	result, err := s.RunBatch(ctx, input.Documents, input.Request, nil)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RunBatch extends every document in order, one call at a time, and returns
// exactly one outcome per document. Only an invalid request or an empty
// selection is returned as an error; per-document failures land in the
// outcomes.
func (s *Service) RunBatch(ctx context.Context, docs []models.EwayBillDocument, req models.ExtensionRequest, progress ProgressFunc) (models.BatchResult, error) {
	if err := validateBatch(docs, req); err != nil {
		metrics.EwayBillExtensions.WithLabelValues("invalid").Inc()
		return models.BatchResult{}, err
	}

	batchID := s.newID()
	startedAt := s.now()

	ctx, span := s.obs.StartSpan(ctx, "ewaybill.bulk_extend",
		attribute.String("batch.id", batchID),
		attribute.Int("batch.documents", len(docs)),
	)
	defer span.End()

	s.logger.Info("Starting bulk extension", map[string]interface{}{
		"batchId":    batchID,
		"documents":  len(docs),
		"reasonCode": int(req.ReasonCode),
	})
	metrics.EwayBillBatchSize.Observe(float64(len(docs)))

	outcomes := make([]models.ExtensionOutcome, 0, len(docs))
	for i, doc := range docs {
		if ctx.Err() != nil {
			outcomes = append(outcomes, cancelledOutcomes(docs[i:])...)
			s.logger.Warn("Bulk extension cancelled", map[string]interface{}{
				"batchId":   batchID,
				"processed": i,
				"remaining": len(docs) - i,
			})
			if progress != nil {
				progress(len(docs), len(docs))
			}
			break
		}

		outcomes = append(outcomes, s.extendOne(ctx, doc, req, startedAt))
		if progress != nil {
			progress(i+1, len(docs))
		}
	}

	result := models.NewBatchResult(batchID, outcomes, startedAt, s.now())

	s.obs.RecordBatch(ctx, result.Succeeded, result.Failed)
	span.SetAttributes(
		attribute.Int("batch.succeeded", result.Succeeded),
		attribute.Int("batch.failed", result.Failed),
	)
	if !result.Success {
		span.SetStatus(codes.Error, "no document extended")
	}

	s.logger.Info("Bulk extension finished", map[string]interface{}{
		"batchId":   batchID,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})

	return result, nil
}

func (s *Service) extendOne(ctx context.Context, doc models.EwayBillDocument, req models.ExtensionRequest, at time.Time) models.ExtensionOutcome {
	ewbNo := doc.EwayBillNo.String()

	apiReq, err := ewaybill.NewExtendValidityRequest(doc, req, s.config.Defaults, at)
	if err != nil {
		metrics.EwayBillExtensions.WithLabelValues("invalid").Inc()
		return failed(ewbNo, err.Error())
	}

	callCtx := ctx
	if s.config.PerCallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.config.PerCallTimeout)
		defer cancel()
	}

	ok, err := s.extender.ExtendValidity(callCtx, apiReq)
	switch {
	case err == nil && ok:
		metrics.EwayBillExtensions.WithLabelValues("succeeded").Inc()
		return models.ExtensionOutcome{EwbNo: ewbNo, Success: true}
	case err == nil:
		metrics.EwayBillExtensions.WithLabelValues("rejected").Inc()
		return failed(ewbNo, msgRejected)
	case stderrors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		metrics.EwayBillExtensions.WithLabelValues("error").Inc()
		return failed(ewbNo, "compliance API call timed out after "+s.config.PerCallTimeout.String())
	default:
		metrics.EwayBillExtensions.WithLabelValues("error").Inc()
		s.logger.Debug("Extension call failed", map[string]interface{}{
			"ewbNo": ewbNo,
			"error": err.Error(),
		})
		return failed(ewbNo, describe(err))
	}
}

func validateBatch(docs []models.EwayBillDocument, req models.ExtensionRequest) error {
	if len(docs) == 0 {
		return errors.NewValidationError("at least one eWay Bill must be selected")
	}
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	return nil
}

func cancelledOutcomes(docs []models.EwayBillDocument) []models.ExtensionOutcome {
	out := make([]models.ExtensionOutcome, len(docs))
	for i, d := range docs {
		out[i] = failed(d.EwayBillNo.String(), msgCancelled)
	}
	metrics.EwayBillExtensions.WithLabelValues("cancelled").Add(float64(len(docs)))
	return out
}

func failed(ewbNo, msg string) models.ExtensionOutcome {
	return models.ExtensionOutcome{EwbNo: ewbNo, Success: false, Error: msg}
}

// describe turns a client error into the text shown next to the document.
func describe(err error) string {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		if stdErr.Details != "" {
			return stdErr.Message + ": " + stdErr.Details
		}
		return stdErr.Message
	}
	return err.Error()
}
