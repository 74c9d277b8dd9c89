package errors

import (
	"context"
	"fmt"
	"testing"

	"ewaybill-workers/internal/common/camunda/camundatest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardLogger struct{}

func (discardLogger) Error(string, map[string]interface{}) {}

func TestHandleJobError_RetryableErrorFailsJob(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(1, "ewaybill.validity.extend", 5, nil)

	outcome := NewErrorHandler(discardLogger{}).
		HandleJobError(context.Background(), client, job, NewAPIError("extendvalidity", fmt.Errorf("502")))

	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, client.Failed(), 1)
	assert.EqualValues(t, 3, client.Failed()[0].Retries)
	assert.Empty(t, client.Thrown())
}

func TestHandleJobError_MaxRetriesCapsRetries(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(2, "ewaybill.validity.extend", 5, nil)

	outcome := NewErrorHandler(discardLogger{}).WithMaxRetries(1).
		HandleJobError(context.Background(), client, job, NewAPIError("extendvalidity", fmt.Errorf("502")))

	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, client.Failed(), 1)
	assert.EqualValues(t, 1, client.Failed()[0].Retries)
}

func TestHandleJobError_ZeroMaxRetriesThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(3, "ewaybill.validity.bulk-extend", 3, nil)

	outcome := NewErrorHandler(discardLogger{}).WithMaxRetries(0).
		HandleJobError(context.Background(), client, job, NewAPIError("extendvalidity", fmt.Errorf("502")))

	assert.Equal(t, OutcomeThrown, outcome)
	assert.Empty(t, client.Failed())
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "EWB_API_ERROR", client.Thrown()[0].ErrorCode)
}

func TestHandleJobError_BusinessErrorThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(4, "ewaybill.validity.extend", 3, nil)

	outcome := NewErrorHandler(discardLogger{}).
		HandleJobError(context.Background(), client, job, NewValidationError("reasonCode is required"))

	assert.Equal(t, OutcomeThrown, outcome)
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "VALIDATION_FAILED", client.Thrown()[0].ErrorCode)
}

func TestHandleJobError_SendsAfterWorkContextExpired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := camundatest.NewJobClient()
	job := camundatest.NewJob(5, "ewaybill.validity.extend", 3, nil)

	NewErrorHandler(discardLogger{}).HandleJobError(ctx, client, job, NewNotFoundError("351000000001"))

	assert.Len(t, client.Thrown(), 1)
	assert.Empty(t, client.SendErrors())
}
