package fetchewaybill

import "ewaybill-workers/internal/models"

type Input struct {
	EwbNo models.NumericString `json:"ewbNo"`
}

type Output struct {
	EwayBill  *models.EwayBillDocument `json:"ewayBill"`
	Badge     models.ExpiryBadge       `json:"badge"`
	FromCache bool                     `json:"fromCache"`
}
