package fetchewaybill

import "ewaybill-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"ewbNo"},
		Properties: map[string]validation.Property{
			"ewbNo": {
				AnyOf:       []validation.Property{{Type: "string", Pattern: validation.StringPtr(`^[0-9]+$`)}, {Type: "integer"}},
				Description: "eWay Bill number",
			},
		},
		AdditionalProperties: true,
	}
}
