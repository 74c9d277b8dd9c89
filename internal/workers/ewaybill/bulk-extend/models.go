package bulkextend

import "ewaybill-workers/internal/models"

// Input is the job payload: the selected documents and one shared request.
type Input struct {
	Documents []models.EwayBillDocument `json:"documents"`
	Request   models.ExtensionRequest   `json:"request"`
}

// ProgressFunc is called after each attempted document.
type ProgressFunc func(processed, total int)
