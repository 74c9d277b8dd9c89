package recordbatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ewaybill-workers/internal/common/database"
	"ewaybill-workers/internal/common/errors"
	"ewaybill-workers/internal/common/logger"
)

const (
	insertBatchSQL = `
		INSERT INTO extension_batches (
			batch_id, process_instance_key, success, total, succeeded, failed,
			request, started_at, completed_at, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertOutcomeSQL = `
		INSERT INTO extension_outcomes (batch_id, position, ewb_no, success, error)
		VALUES ($1, $2, $3, $4, $5)`
)

// Transactor is satisfied by *database.PostgresClient.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type ServiceDependencies struct {
	DB     Transactor
	Logger logger.Logger
	Clock  func() time.Time
}

type Service struct {
	config *Config
	db     Transactor
	logger logger.Logger
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{config: config, db: deps.DB, logger: deps.Logger, now: deps.Clock}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Execute writes the batch row and one row per outcome in a single
// transaction. Outcome positions keep the order of the batch.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	batch := input.BatchResult
	if batch.BatchID == "" {
		return nil, errors.NewValidationError("batchResult.batchId is required")
	}

	var requestJSON interface{}
	if input.Request != nil {
		raw, err := json.Marshal(input.Request)
		if err != nil {
			return nil, errors.NewInputParsingError(err)
		}
		requestJSON = raw
	}

	var processInstanceKey interface{}
	if input.ProcessInstanceKey != 0 {
		processInstanceKey = input.ProcessInstanceKey
	}

	recordedAt := s.now().UTC()
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertBatchSQL,
			batch.BatchID,
			processInstanceKey,
			batch.Success,
			batch.Total,
			batch.Succeeded,
			batch.Failed,
			requestJSON,
			batch.StartedAt,
			batch.CompletedAt,
			recordedAt,
		); err != nil {
			return err
		}

		for i, o := range batch.Outcomes {
			var errText interface{}
			if o.Error != "" {
				errText = o.Error
			}
			if _, err := tx.ExecContext(ctx, insertOutcomeSQL, batch.BatchID, i, o.EwbNo, o.Success, errText); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.NewDuplicateBatchError(batch.BatchID)
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("Extension batch recorded", map[string]interface{}{
		"batchId":   batch.BatchID,
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
	})

	return &Output{BatchID: batch.BatchID, Outcomes: len(batch.Outcomes), RecordedAt: recordedAt}, nil
}
