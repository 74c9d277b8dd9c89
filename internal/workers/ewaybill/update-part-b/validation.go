package updatepartb

import "ewaybill-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"ewbNo", "vehicleNo", "fromPlace", "reasonCode"},
		Properties: map[string]validation.Property{
			"ewbNo":        {AnyOf: []validation.Property{{Type: "string"}, {Type: "integer"}}},
			"vehicleNo":    {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(20)},
			"fromPlace":    {Type: "string", MinLength: validation.IntPtr(1)},
			"fromState":    {Type: "integer", Minimum: validation.FloatPtr(1)},
			"reasonCode":   {Type: "string", MinLength: validation.IntPtr(1)},
			"reasonRem":    {Type: "string"},
			"transDocNo":   {Type: "string"},
			"transDocDate": {Type: "string", Pattern: validation.StringPtr(`^\d{2}/\d{2}/\d{4}$`)},
			"transMode":    {Type: "string"},
		},
		AdditionalProperties: true,
	}
}
