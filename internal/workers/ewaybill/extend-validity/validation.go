package extendvalidity

import "ewaybill-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	idLike := []validation.Property{{Type: "string"}, {Type: "integer"}}
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"ewbNo", "request"},
		Properties: map[string]validation.Property{
			"ewbNo":     {AnyOf: idLike, Description: "eWay Bill number"},
			"vehicleNo": {Type: "string", MaxLength: validation.IntPtr(20)},
			"request": {
				Type:     "object",
				Required: []string{"fromPlace", "fromPincode", "reasonCode", "remainingDistance"},
				Properties: map[string]validation.Property{
					"fromPlace":         {Type: "string", MinLength: validation.IntPtr(1)},
					"fromPincode":       {AnyOf: idLike},
					"reasonCode":        {AnyOf: idLike},
					"remainingDistance": {Type: "integer", Minimum: validation.FloatPtr(0)},
					"remarks":           {Type: "string"},
				},
			},
		},
		AdditionalProperties: true,
	}
}
