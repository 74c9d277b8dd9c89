package searchexpiring

import "ewaybill-workers/internal/models"

type Input struct {
	Window  string `json:"window,omitempty"`
	Vehicle string `json:"vehicle,omitempty"`
	Size    int    `json:"size,omitempty"`
}

// ExpiringDocument is a search hit annotated with its urgency badge.
type ExpiringDocument struct {
	models.EwayBillDocument
	Badge models.ExpiryBadge `json:"badge"`
}

type Output struct {
	Documents []ExpiringDocument  `json:"documents"`
	Window    models.ExpiryWindow `json:"window"`
	TotalHits int64               `json:"totalHits"`
	Took      int64               `json:"took"`
}
