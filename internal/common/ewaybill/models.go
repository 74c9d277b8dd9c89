package ewaybill

import (
	"fmt"
	"strconv"
	"time"

	"ewaybill-workers/internal/common/config"
	"ewaybill-workers/internal/models"
)

// ExtendValidityRequest is the body of POST /ewayapi/extendvalidity.
type ExtendValidityRequest struct {
	EwbNo             int64  `json:"ewbNo"`
	VehicleNo         string `json:"vehicleNo"`
	FromPlace         string `json:"fromPlace"`
	FromState         int    `json:"fromState"`
	RemainingDistance int    `json:"remainingDistance"`
	TransDocNo        string `json:"transDocNo"`
	TransDocDate      string `json:"transDocDate"`
	TransMode         string `json:"transMode"`
	ExtnRsnCode       int    `json:"extnRsnCode"`
	ExtnRemarks       string `json:"extnRemarks"`
	FromPincode       int    `json:"fromPincode"`
	ConsignmentStatus string `json:"consignmentStatus"`
	TransitType       string `json:"transitType"`
	AddressLine1      string `json:"addressLine1"`
	AddressLine2      string `json:"addressLine2"`
	AddressLine3      string `json:"addressLine3"`
}

// UpdateVehicleRequest is the body of POST /ewayapi/vehewb (Part B).
type UpdateVehicleRequest struct {
	EwbNo        int64  `json:"ewbNo"`
	VehicleNo    string `json:"vehicleNo"`
	FromPlace    string `json:"fromPlace"`
	FromState    int    `json:"fromState"`
	ReasonCode   string `json:"reasonCode"`
	ReasonRem    string `json:"reasonRem"`
	TransDocNo   string `json:"transDocNo"`
	TransDocDate string `json:"transDocDate"`
	TransMode    string `json:"transMode"`
}

// AuthResponse is what /authenticate returns.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

type getEwayBillResponse struct {
	EwbNo             models.NumericString `json:"ewbNo"`
	VehicleNo         string               `json:"vehicleNo"`
	ValidUpto         string               `json:"validUpto"`
	HoursToExpiry     float64              `json:"hoursToExpiry"`
	FromPlace         string               `json:"fromPlace"`
	FromState         int                  `json:"fromState"`
	RemainingDistance int                  `json:"remainingDistance"`
}

// statusResponse covers the mutation endpoints; only an explicit
// "success": false counts as a rejection.
type statusResponse struct {
	Success *bool `json:"success"`
}

func (s statusResponse) accepted() bool {
	return s.Success == nil || *s.Success
}

// docDateLayout is dd/mm/yyyy.
const docDateLayout = "02/01/2006"

// FormatDocDate renders t the way the compliance API expects transDocDate.
func FormatDocDate(t time.Time) string {
	return t.Format(docDateLayout)
}

// NewExtendValidityRequest merges the batch-wide request with one document's
// own id and vehicle, filling the constant fields from defaults.
func NewExtendValidityRequest(doc models.EwayBillDocument, req models.ExtensionRequest, defaults config.ExtensionDefaults, now time.Time) (*ExtendValidityRequest, error) {
	ewbNo, err := doc.EwayBillNo.Int64()
	if err != nil {
		return nil, fmt.Errorf("eWay Bill number %q is not numeric", doc.EwayBillNo.String())
	}
	pincode, err := strconv.Atoi(req.FromPincode.String())
	if err != nil {
		return nil, fmt.Errorf("fromPincode %q is not numeric", req.FromPincode.String())
	}
	distance := 0
	if req.RemainingDistance != nil {
		distance = *req.RemainingDistance
	}

	return &ExtendValidityRequest{
		EwbNo:             ewbNo,
		VehicleNo:         doc.Vehicle,
		FromPlace:         req.FromPlace,
		FromState:         defaults.FromState,
		RemainingDistance: distance,
		TransDocNo:        defaults.TransDocNo,
		TransDocDate:      FormatDocDate(now),
		TransMode:         defaults.TransMode,
		ExtnRsnCode:       int(req.ReasonCode),
		ExtnRemarks:       req.Remarks,
		FromPincode:       pincode,
		ConsignmentStatus: defaults.ConsignmentStatus,
		TransitType:       defaults.TransitType,
		AddressLine1:      defaults.AddressLine1,
		AddressLine2:      defaults.AddressLine2,
		AddressLine3:      defaults.AddressLine3,
	}, nil
}
