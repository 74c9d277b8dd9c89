package errors

import (
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"validation is a business error", NewValidationError("reasonCode is required"), "VALIDATION_FAILED", 0},
		{"parsing maps to validation", NewInputParsingError(fmt.Errorf("bad json")), "VALIDATION_FAILED", 0},
		{"api error retries", NewAPIError("extendvalidity", fmt.Errorf("502")), "EWB_API_ERROR", 3},
		{"api timeout retries twice", NewAPITimeoutError("getewaybill", fmt.Errorf("deadline")), "EWB_API_TIMEOUT", 2},
		{"duplicate batch is final", NewDuplicateBatchError("b-1"), "DUPLICATE_BATCH", 0},
		{"index not found is final", NewIndexNotFoundError("ewaybills"), "INDEX_NOT_FOUND", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewExtensionFailedError("331000000001", "rejected"))

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "EWB_EXTENSION_FAILED", vars["errorCode"])
	assert.Equal(t, "331000000001", vars["ewbNo"])
	assert.Equal(t, false, vars["retryable"])
}

func TestAsStandardError(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", NewNotFoundError("1"))
	assert.Equal(t, ErrCodeNotFound, AsStandardError(wrapped).Code)
	assert.True(t, HasCode(wrapped, ErrCodeNotFound))

	plain := AsStandardError(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, HasCode(fmt.Errorf("boom"), ErrCodeNotFound))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "COMPLIANCE_API", GetErrorCategory(ErrCodeAPITimeout))
	assert.Equal(t, "COMPLIANCE_API", GetErrorCategory(ErrCodePartBFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDuplicateBatch))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexNotFound))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheError))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInputParsing))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCacheError))
	assert.False(t, IsRetryableErrorCode(ErrCodeExtensionFailed))
}

func TestRemainingRetries(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Retries: retries}}
	}

	assert.EqualValues(t, 3, remainingRetries(job(5), 3))
	assert.EqualValues(t, 1, remainingRetries(job(2), 3))
	assert.EqualValues(t, 0, remainingRetries(job(0), 3))
}

func TestStandardError_Error(t *testing.T) {
	err := NewCacheError(fmt.Errorf("conn refused"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_ERROR")
	assert.Contains(t, err.Error(), "conn refused")
}
