package extendvalidity

import "ewaybill-workers/internal/models"

type Input struct {
	EwbNo     models.NumericString    `json:"ewbNo"`
	VehicleNo string                  `json:"vehicleNo,omitempty"`
	Request   models.ExtensionRequest `json:"request"`
}

func (i *Input) document() models.EwayBillDocument {
	return models.EwayBillDocument{EwayBillNo: i.EwbNo, Vehicle: i.VehicleNo}
}
