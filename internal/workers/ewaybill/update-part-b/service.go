package updatepartb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
)

type VehicleUpdater interface {
	UpdateVehicle(ctx context.Context, req *ewaybill.UpdateVehicleRequest) (bool, error)
}

type ServiceDependencies struct {
	Updater VehicleUpdater
	Logger  logger.Logger
	Clock   func() time.Time
}

type Service struct {
	config  *Config
	updater VehicleUpdater
	logger  logger.Logger
	now     func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{config: config, updater: deps.Updater, logger: deps.Logger, now: deps.Clock}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := s.buildRequest(input)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	ok, err := s.updater.UpdateVehicle(ctx, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewPartBUpdateFailedError(input.EwbNo.String(), "vehicle update rejected by compliance API")
	}

	s.logger.Info("Part B updated", map[string]interface{}{
		"ewbNo":     input.EwbNo.String(),
		"vehicleNo": req.VehicleNo,
	})
	return &Output{EwbNo: input.EwbNo.String(), VehicleNo: req.VehicleNo, Updated: true}, nil
}

func (s *Service) buildRequest(input *Input) (*ewaybill.UpdateVehicleRequest, error) {
	ewbNo, err := input.EwbNo.Int64()
	if err != nil {
		return nil, fmt.Errorf("eWay Bill number %q is not numeric", input.EwbNo.String())
	}
	vehicle := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(input.VehicleNo), " ", ""))
	if vehicle == "" {
		return nil, fmt.Errorf("vehicleNo is required")
	}
	if strings.TrimSpace(input.FromPlace) == "" {
		return nil, fmt.Errorf("fromPlace is required")
	}
	if strings.TrimSpace(input.ReasonCode) == "" {
		return nil, fmt.Errorf("reasonCode is required")
	}

	req := &ewaybill.UpdateVehicleRequest{
		EwbNo:        ewbNo,
		VehicleNo:    vehicle,
		FromPlace:    input.FromPlace,
		FromState:    input.FromState,
		ReasonCode:   input.ReasonCode,
		ReasonRem:    input.ReasonRem,
		TransDocNo:   input.TransDocNo,
		TransDocDate: input.TransDocDate,
		TransMode:    input.TransMode,
	}
	if req.FromState == 0 {
		req.FromState = s.config.Defaults.FromState
	}
	if req.TransDocNo == "" {
		req.TransDocNo = s.config.Defaults.TransDocNo
	}
	if req.TransDocDate == "" {
		req.TransDocDate = ewaybill.FormatDocDate(s.now())
	}
	if req.TransMode == "" {
		req.TransMode = s.config.Defaults.TransMode
	}
	return req, nil
}
