package updatepartb

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ewaybill-workers/internal/common/camunda/camundatest"
	"ewaybill-workers/internal/common/config"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) UpdateVehicle(ctx context.Context, req *ewaybill.UpdateVehicleRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           key,
		Type:          TaskType,
		BpmnProcessId: "ewaybill-part-b",
		ElementId:     "Activity_UpdatePartB",
		CustomHeaders: "{}",
		Worker:        "test-worker",
		Retries:       3,
		Variables:     string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T, u VehicleUpdater) *Handler {
	h, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Updater: u, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	h.service.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return h
}

func validInput() *Input {
	return &Input{EwbNo: "351000000001", VehicleNo: "ka 01 ab 1234", FromPlace: "Hosur", ReasonCode: "2"}
}

func TestExecute_AppliesDefaults(t *testing.T) {
	u := new(MockUpdater)
	u.On("UpdateVehicle", mock.Anything, &ewaybill.UpdateVehicleRequest{
		EwbNo:        351000000001,
		VehicleNo:    "KA01AB1234",
		FromPlace:    "Hosur",
		FromState:    29,
		ReasonCode:   "2",
		TransDocNo:   "12",
		TransDocDate: "14/03/2026",
		TransMode:    "1",
	}).Return(true, nil)

	out, err := newTestHandler(t, u).Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.Equal(t, &Output{EwbNo: "351000000001", VehicleNo: "KA01AB1234", Updated: true}, out)
	u.AssertExpectations(t)
}

func TestExecute_KeepsExplicitFields(t *testing.T) {
	u := new(MockUpdater)
	u.On("UpdateVehicle", mock.Anything, mock.MatchedBy(func(r *ewaybill.UpdateVehicleRequest) bool {
		return r.FromState == 33 && r.TransDocDate == "01/01/2026" && r.TransMode == "2"
	})).Return(true, nil)

	in := validInput()
	in.FromState = 33
	in.TransDocDate = "01/01/2026"
	in.TransMode = "2"

	_, err := newTestHandler(t, u).Execute(context.Background(), in)
	require.NoError(t, err)
	u.AssertExpectations(t)
}

func TestExecute_Rejected(t *testing.T) {
	u := new(MockUpdater)
	u.On("UpdateVehicle", mock.Anything, mock.Anything).Return(false, nil)

	_, err := newTestHandler(t, u).Execute(context.Background(), validInput())

	assert.True(t, errors.HasCode(err, errors.ErrCodePartBFailed))
	assert.Equal(t, "351000000001", errors.AsStandardError(err).Metadata["ewbNo"])
}

func TestExecute_TransportError(t *testing.T) {
	u := new(MockUpdater)
	u.On("UpdateVehicle", mock.Anything, mock.Anything).Return(false, errors.NewAPIError("vehewb", fmt.Errorf("EOF")))

	_, err := newTestHandler(t, u).Execute(context.Background(), validInput())

	assert.True(t, errors.HasCode(err, errors.ErrCodeAPIError))
	assert.True(t, errors.AsStandardError(err).Retryable)
}

func TestExecute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   string
	}{
		{"non-numeric number", func(i *Input) { i.EwbNo = "EWB-1" }, "not numeric"},
		{"blank vehicle", func(i *Input) { i.VehicleNo = "  " }, "vehicleNo"},
		{"blank place", func(i *Input) { i.FromPlace = "" }, "fromPlace"},
		{"blank reason", func(i *Input) { i.ReasonCode = "" }, "reasonCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := new(MockUpdater)
			in := validInput()
			tt.mutate(in)

			_, err := newTestHandler(t, u).Execute(context.Background(), in)

			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
			assert.Contains(t, err.Error(), tt.want)
			u.AssertNotCalled(t, "UpdateVehicle", mock.Anything, mock.Anything)
		})
	}
}

func TestParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockUpdater))

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"ewbNo": 351000000001, "vehicleNo": "KA01AB1234", "fromPlace": "Hosur", "reasonCode": "1",
	}))
	require.NoError(t, err)
	assert.Equal(t, "351000000001", input.EwbNo.String())

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{
		"ewbNo": "1", "vehicleNo": "KA01AB1234", "fromPlace": "Hosur", "reasonCode": "1", "transDocDate": "2026-01-01",
	}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestNewHandler_RequiresUpdater(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.Error(t, err)
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{
		Workers: map[string]config.WorkerConfig{
			config.WorkerUpdatePartB: {Enabled: false, MaxJobsActive: 9, Timeout: 5000},
		},
		EwayBill: config.EwayBillConfig{Defaults: config.ExtensionDefaults{FromState: 27, TransMode: "3"}},
	}

	cfg := createConfigFromAppConfig(app, nil)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 9, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 27, cfg.Defaults.FromState)
}

func TestRegister_DisabledIsNoOp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, Updater: new(MockUpdater), Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	assert.NoError(t, h.Register())
	assert.False(t, h.IsEnabled())
	assert.Equal(t, "ewaybill.partb.update", h.GetTaskType())
}

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"ewbNo": 351000000001, "vehicleNo": "ka 01 ab 1234", "fromPlace": "Hosur", "reasonCode": "2",
	}
}

func TestHandle_CompletesJob(t *testing.T) {
	u := new(MockUpdater)
	u.On("UpdateVehicle", mock.Anything, mock.Anything).Return(true, nil)
	client := camundatest.NewJobClient()

	newTestHandler(t, u).Handle(client, createMockJob(30, validVariables()))

	vars, err := client.CompletedVariables(0)
	require.NoError(t, err)
	assert.Equal(t, true, vars["partBUpdated"])
	assert.Equal(t, "KA01AB1234", vars["vehicleNo"])
}

func TestHandle_RejectedUpdateThrows(t *testing.T) {
	u := new(MockUpdater)
	u.On("UpdateVehicle", mock.Anything, mock.Anything).Return(false, nil)
	client := camundatest.NewJobClient()

	newTestHandler(t, u).Handle(client, createMockJob(31, validVariables()))

	assert.Empty(t, client.Completed())
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "PART_B_UPDATE_FAILED", client.Thrown()[0].ErrorCode)
}

func TestHandle_InvalidInputThrowsWithoutCall(t *testing.T) {
	u := new(MockUpdater)
	client := camundatest.NewJobClient()

	newTestHandler(t, u).Handle(client, createMockJob(32, map[string]interface{}{"ewbNo": "1"}))

	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "VALIDATION_FAILED", client.Thrown()[0].ErrorCode)
	u.AssertNotCalled(t, "UpdateVehicle", mock.Anything, mock.Anything)
}
