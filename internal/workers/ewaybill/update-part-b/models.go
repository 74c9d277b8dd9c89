package updatepartb

import "ewaybill-workers/internal/models"

// Input is a Part B (vehicle) update for one document. Optional fields fall
// back to the configured defaults.
type Input struct {
	EwbNo        models.NumericString `json:"ewbNo"`
	VehicleNo    string               `json:"vehicleNo"`
	FromPlace    string               `json:"fromPlace"`
	FromState    int                  `json:"fromState,omitempty"`
	ReasonCode   string               `json:"reasonCode"`
	ReasonRem    string               `json:"reasonRem,omitempty"`
	TransDocNo   string               `json:"transDocNo,omitempty"`
	TransDocDate string               `json:"transDocDate,omitempty"`
	TransMode    string               `json:"transMode,omitempty"`
}

type Output struct {
	EwbNo     string `json:"ewbNo"`
	VehicleNo string `json:"vehicleNo"`
	Updated   bool   `json:"updated"`
}
