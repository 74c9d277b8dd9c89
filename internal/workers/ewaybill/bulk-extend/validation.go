package bulkextend

import "ewaybill-workers/internal/common/validation"

func numericOrString() []validation.Property {
	return []validation.Property{{Type: "string"}, {Type: "integer"}}
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"documents", "request"},
		Properties: map[string]validation.Property{
			"documents": {
				Type:        "array",
				Description: "Selected eWay Bills",
				MinItems:    validation.IntPtr(1),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"ewayBillNo"},
					Properties: map[string]validation.Property{
						"ewayBillNo":    {AnyOf: numericOrString()},
						"vehicle":       {Type: "string"},
						"validity":      {Type: "string"},
						"hoursToExpiry": {Type: "number", Minimum: validation.FloatPtr(0)},
					},
				},
			},
			"request": {
				Type:        "object",
				Description: "Extension details shared by every document",
				Required:    []string{"fromPlace", "fromPincode", "reasonCode", "remainingDistance"},
				Properties: map[string]validation.Property{
					"fromPlace":         {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(100)},
					"fromPincode":       {AnyOf: numericOrString()},
					"reasonCode":        {AnyOf: numericOrString()},
					"remainingDistance": {Type: "integer", Minimum: validation.FloatPtr(0)},
					"remarks":           {Type: "string", MaxLength: validation.IntPtr(250)},
				},
			},
		},
		// process scope carries other variables
		AdditionalProperties: true,
	}
}
