package extendvalidity

import (
	"context"
	"strings"
	"time"

	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/common/metrics"
	"ewaybill-workers/internal/models"
)

// Extender is the compliance API call used by this worker.
type Extender interface {
	ExtendValidity(ctx context.Context, req *ewaybill.ExtendValidityRequest) (bool, error)
}

type ServiceDependencies struct {
	Extender Extender
	Logger   logger.Logger
	Clock    func() time.Time
}

type Service struct {
	config   *Config
	extender Extender
	logger   logger.Logger
	now      func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{config: config, extender: deps.Extender, logger: deps.Logger, now: deps.Clock}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Execute extends one document. A rejection by the API is returned as an
// EWB_EXTENSION_FAILED error; transport problems keep their retryable codes.
func (s *Service) Execute(ctx context.Context, input *Input) (*models.ExtensionOutcome, error) {
	if err := input.Request.Validate(); err != nil {
		return nil, errors.NewValidationError(strings.ReplaceAll(err.Error(), "\n", "; "))
	}

	apiReq, err := ewaybill.NewExtendValidityRequest(input.document(), input.Request, s.config.Defaults, s.now())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	ok, err := s.extender.ExtendValidity(ctx, apiReq)
	if err != nil {
		metrics.EwayBillExtensions.WithLabelValues("error").Inc()
		return nil, err
	}
	if !ok {
		metrics.EwayBillExtensions.WithLabelValues("rejected").Inc()
		return nil, errors.NewExtensionFailedError(input.EwbNo.String(), "extension rejected by compliance API")
	}

	metrics.EwayBillExtensions.WithLabelValues("succeeded").Inc()
	s.logger.Info("eWay Bill extended", map[string]interface{}{
		"ewbNo":      input.EwbNo.String(),
		"reasonCode": int(input.Request.ReasonCode),
	})
	return &models.ExtensionOutcome{EwbNo: input.EwbNo.String(), Success: true}, nil
}
