package recordbatch

import "ewaybill-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"batchResult"},
		Properties: map[string]validation.Property{
			"batchResult": {
				Type:     "object",
				Required: []string{"batchId", "outcomes"},
				Properties: map[string]validation.Property{
					"batchId": {Type: "string", MinLength: validation.IntPtr(1)},
					"outcomes": {
						Type: "array",
						Items: &validation.Property{
							Type:     "object",
							Required: []string{"ewbNo", "success"},
						},
					},
				},
			},
			"request": {Type: "object"},
		},
		AdditionalProperties: true,
	}
}
