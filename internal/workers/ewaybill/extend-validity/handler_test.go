package extendvalidity

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ewaybill-workers/internal/common/camunda/camundatest"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExtender struct {
	mock.Mock
}

func (m *MockExtender) ExtendValidity(ctx context.Context, req *ewaybill.ExtendValidityRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "ewaybill-extension",
		ElementId:          "Activity_ExtendValidity",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func intPtr(i int) *int { return &i }

func validInput() *Input {
	return &Input{
		EwbNo:     "351000000001",
		VehicleNo: "KA01AB1234",
		Request: models.ExtensionRequest{
			FromPlace:         "Mysuru",
			FromPincode:       "570001",
			ReasonCode:        models.ReasonNaturalCalamity,
			RemainingDistance: intPtr(45),
		},
	}
}

func newTestHandler(t *testing.T, ext Extender) *Handler {
	h, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Extender: ext, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	h.service.now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }
	return h
}

func TestExecute_Success(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.MatchedBy(func(r *ewaybill.ExtendValidityRequest) bool {
		return r.EwbNo == 351000000001 && r.VehicleNo == "KA01AB1234" && r.ExtnRsnCode == 1 && r.TransDocDate == "02/01/2026"
	})).Return(true, nil)

	outcome, err := newTestHandler(t, ext).Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "351000000001", outcome.EwbNo)
	ext.AssertExpectations(t)
}

func TestExecute_Rejected(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.Anything).Return(false, nil)

	_, err := newTestHandler(t, ext).Execute(context.Background(), validInput())

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtensionFailed))
	assert.False(t, errors.AsStandardError(err).Retryable)
}

func TestExecute_APIErrorKeepsCode(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.Anything).
		Return(false, errors.NewAPITimeoutError("extendvalidity", fmt.Errorf("deadline")))

	_, err := newTestHandler(t, ext).Execute(context.Background(), validInput())

	assert.True(t, errors.HasCode(err, errors.ErrCodeAPITimeout))
}

func TestExecute_InvalidRequestMakesNoCall(t *testing.T) {
	ext := new(MockExtender)
	in := validInput()
	in.Request.FromPincode = "12"

	_, err := newTestHandler(t, ext).Execute(context.Background(), in)

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	ext.AssertNotCalled(t, "ExtendValidity", mock.Anything, mock.Anything)
}

func TestExecute_NonNumericNumber(t *testing.T) {
	ext := new(MockExtender)
	in := validInput()
	in.EwbNo = "ABC"

	_, err := newTestHandler(t, ext).Execute(context.Background(), in)

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.Contains(t, err.Error(), "not numeric")
}

func TestParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockExtender))

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"ewbNo": 351000000001,
		"request": map[string]interface{}{
			"fromPlace": "Mysuru", "fromPincode": "570001", "reasonCode": 4, "remainingDistance": 10,
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, models.NumericString("351000000001"), input.EwbNo)
	assert.Equal(t, models.ReasonOther, input.Request.ReasonCode)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"ewbNo": "1"}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestOutputVariables(t *testing.T) {
	vars := outputVariables(&models.ExtensionOutcome{EwbNo: "1", Success: true})
	assert.Equal(t, true, vars["extended"])
}

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"ewbNo":     "351000000001",
		"vehicleNo": "KA01AB1234",
		"request": map[string]interface{}{
			"fromPlace": "Mysuru", "fromPincode": "570001", "reasonCode": 1, "remainingDistance": 45,
		},
	}
}

func TestHandle_CompletesJob(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.Anything).Return(true, nil)
	client := camundatest.NewJobClient()

	newTestHandler(t, ext).Handle(client, createMockJob(20, validVariables()))

	vars, err := client.CompletedVariables(0)
	require.NoError(t, err)
	assert.Equal(t, true, vars["extended"])
	assert.Equal(t, "351000000001", vars["extensionOutcome"].(map[string]interface{})["ewbNo"])
	assert.Empty(t, client.Thrown())
}

func TestHandle_RetryableErrorFailsJob(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.Anything).
		Return(false, errors.NewAPIError("extendvalidity", fmt.Errorf("status 503")))
	client := camundatest.NewJobClient()

	newTestHandler(t, ext).Handle(client, createMockJob(21, validVariables()))

	assert.Empty(t, client.Completed())
	require.Len(t, client.Failed(), 1)
	assert.EqualValues(t, 2, client.Failed()[0].Retries)
}

func TestHandle_ZeroMaxRetriesThrows(t *testing.T) {
	ext := new(MockExtender)
	ext.On("ExtendValidity", mock.Anything, mock.Anything).
		Return(false, errors.NewAPIError("extendvalidity", fmt.Errorf("status 503")))
	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, Extender: ext, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	client := camundatest.NewJobClient()

	h.Handle(client, createMockJob(22, validVariables()))

	assert.Empty(t, client.Failed())
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "EWB_API_ERROR", client.Thrown()[0].ErrorCode)
}

func TestHandle_InvalidInputThrowsWithoutCall(t *testing.T) {
	ext := new(MockExtender)
	client := camundatest.NewJobClient()

	newTestHandler(t, ext).Handle(client, createMockJob(23, map[string]interface{}{"ewbNo": "1"}))

	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "VALIDATION_FAILED", client.Thrown()[0].ErrorCode)
	ext.AssertNotCalled(t, "ExtendValidity", mock.Anything, mock.Anything)
}
