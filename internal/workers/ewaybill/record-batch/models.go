package recordbatch

import (
	"time"

	"ewaybill-workers/internal/models"
)

type Input struct {
	BatchResult models.BatchResult       `json:"batchResult"`
	Request     *models.ExtensionRequest `json:"request,omitempty"`
	// ProcessInstanceKey is taken from the job, not from variables.
	ProcessInstanceKey int64 `json:"-"`
}

type Output struct {
	BatchID    string    `json:"batchId"`
	Outcomes   int       `json:"outcomes"`
	RecordedAt time.Time `json:"recordedAt"`
}
