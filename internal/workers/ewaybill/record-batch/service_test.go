package recordbatch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ewaybill-workers/internal/common/database"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	started   = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	completed = started.Add(3 * time.Second)
	recorded  = time.Date(2026, 3, 14, 10, 0, 5, 0, time.UTC)
)

func sampleBatch() models.BatchResult {
	return models.NewBatchResult("batch-001", []models.ExtensionOutcome{
		{EwbNo: "111", Success: true},
		{EwbNo: "222", Success: false, Error: "extension rejected by compliance API"},
	}, started, completed)
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(ServiceDependencies{
		DB:     database.NewPostgresFromDB(db),
		Logger: logger.NewTestLogger(t),
		Clock:  func() time.Time { return recorded },
	}, DefaultConfig())
	return svc, mock
}

func TestExecute_WritesBatchAndOutcomesInOneTransaction(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO extension_batches`).
		WithArgs("batch-001", int64(42), true, 2, 1, 1, sqlmock.AnyArg(), started, completed, recorded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO extension_outcomes`).
		WithArgs("batch-001", 0, "111", true, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO extension_outcomes`).
		WithArgs("batch-001", 1, "222", false, "extension rejected by compliance API").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.Execute(context.Background(), &Input{
		BatchResult:        sampleBatch(),
		Request:            &models.ExtensionRequest{FromPlace: "Mysuru", FromPincode: "570001", ReasonCode: models.ReasonAccident},
		ProcessInstanceKey: 42,
	})

	require.NoError(t, err)
	assert.Equal(t, &Output{BatchID: "batch-001", Outcomes: 2, RecordedAt: recorded}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RollsBackOnOutcomeFailure(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO extension_batches`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO extension_outcomes`).WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Execute(context.Background(), &Input{BatchResult: sampleBatch()})

	assert.True(t, errors.HasCode(err, errors.ErrCodeDatabaseInsertFailed))
	assert.True(t, errors.AsStandardError(err).Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DuplicateBatch(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO extension_batches`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := svc.Execute(context.Background(), &Input{BatchResult: sampleBatch()})

	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateBatch))
	assert.False(t, errors.AsStandardError(err).Retryable)
}

func TestExecute_RequiresBatchID(t *testing.T) {
	svc, mock := newTestService(t)

	_, err := svc.Execute(context.Background(), &Input{})

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseInput_TakesProcessInstanceFromJob(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		DB:           database.NewPostgresFromDB(db),
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	vars, _ := json.Marshal(map[string]interface{}{"batchResult": sampleBatch(), "documents": []string{"ignored"}})
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                7,
		Type:               TaskType,
		ProcessInstanceKey: 99,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(vars),
	}}

	input, err := h.parseInput(job)
	require.NoError(t, err)
	assert.Equal(t, int64(99), input.ProcessInstanceKey)
	assert.Equal(t, "batch-001", input.BatchResult.BatchID)
	assert.Len(t, input.BatchResult.Outcomes, 2)
	assert.True(t, input.BatchResult.StartedAt.Equal(started))
}
