package notifybatch

import "ewaybill-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"batchResult"},
		Properties: map[string]validation.Property{
			"batchResult": {
				Type:     "object",
				Required: []string{"batchId", "succeeded", "failed"},
				Properties: map[string]validation.Property{
					"batchId":   {Type: "string"},
					"succeeded": {Type: "integer", Minimum: validation.FloatPtr(0)},
					"failed":    {Type: "integer", Minimum: validation.FloatPtr(0)},
				},
			},
			"recipients": {Type: "array", Items: &validation.Property{Type: "string"}},
		},
		AdditionalProperties: true,
	}
}
