package searchexpiring

import (
	"ewaybill-workers/internal/common/validation"
	"ewaybill-workers/internal/models"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"window": {
				Type: "string",
				Enum: []string{
					string(models.ExpiryAll),
					string(models.ExpirySoon),
					string(models.ExpiryToday),
					string(models.Expiry48Hours),
				},
			},
			"vehicle": {Type: "string", MaxLength: validation.IntPtr(20)},
			"size":    {Type: "integer", Minimum: validation.FloatPtr(1)},
		},
		AdditionalProperties: true,
	}
}
