package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is the draft-07 subset used for job variables and request bodies.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type Property struct {
	Type                 string              `json:"type,omitempty"`
	Description          string              `json:"description,omitempty"`
	Minimum              *float64            `json:"minimum,omitempty"`
	Maximum              *float64            `json:"maximum,omitempty"`
	Enum                 []string            `json:"enum,omitempty"`
	Pattern              *string             `json:"pattern,omitempty"`
	MinLength            *int                `json:"minLength,omitempty"`
	MaxLength            *int                `json:"maxLength,omitempty"`
	MinItems             *int                `json:"minItems,omitempty"`
	Items                *Property           `json:"items,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
	// AnyOf lets a field accept e.g. 3 or "3".
	AnyOf []Property `json:"anyOf,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

// compile caches schemas by their JSON form; workers validate the same
// schema on every job.
func compile(schema JSONSchema) (*gojsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)

	compiledMu.Lock()
	defer compiledMu.Unlock()
	if s, ok := compiled[key]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiled[key] = s
	return s, nil
}

// ValidateInput validates decoded job variables against schema.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	return validate(schema, gojsonschema.NewGoLoader(input))
}

// ValidateJSON validates a raw request body against schema.
func ValidateJSON(body []byte, schema JSONSchema) *ValidationResult {
	if !json.Valid(body) {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "body is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
	}
	return validate(schema, gojsonschema.NewBytesLoader(body))
}

func validate(schema JSONSchema, doc gojsonschema.JSONLoader) *ValidationResult {
	s, err := compile(schema)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(schema)", Message: err.Error(), Code: "SCHEMA_ERROR"}}}
	}

	res, err := s.Validate(doc)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}}}
	}

	errs := make([]ValidationError, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(re),
			Message: re.Description(),
			Code:    codeOf(re.Type()),
		})
	}
	return &ValidationResult{Valid: res.Valid(), Errors: errs}
}

// fieldOf returns a dotted path without the "(root)" prefix. Required and
// additional-property errors are reported against the parent object, so the
// offending property is appended.
func fieldOf(re gojsonschema.ResultError) string {
	path := strings.TrimPrefix(re.Context().String(), rootField)
	path = strings.TrimPrefix(path, ".")

	if re.Type() == "required" || re.Type() == "additional_property_not_allowed" {
		if prop, ok := re.Details()["property"].(string); ok && prop != "" {
			if path == "" {
				return prop
			}
			return path + "." + prop
		}
	}
	if path == "" {
		return rootField
	}
	return path
}

const rootField = "(root)"

var errorCodes = map[string]string{
	"required":                        "REQUIRED_FIELD_MISSING",
	"invalid_type":                    "INVALID_TYPE",
	"additional_property_not_allowed": "EXTRA_FIELD",
	"enum":                            "INVALID_ENUM_VALUE",
	"pattern":                         "PATTERN_MISMATCH",
	"string_gte":                      "MIN_LENGTH_VIOLATION",
	"string_lte":                      "MAX_LENGTH_VIOLATION",
	"number_gte":                      "MINIMUM_VIOLATION",
	"number_lte":                      "MAXIMUM_VIOLATION",
	"array_min_items":                 "MIN_ITEMS_VIOLATION",
	"number_any_of":                   "NO_MATCHING_ALTERNATIVE",
}

func codeOf(t string) string {
	if code, ok := errorCodes[t]; ok {
		return code
	}
	return strings.ToUpper(t)
}

var taskTypePattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+(-[a-z]+)*$`)

// ValidateActivityNaming checks a Zeebe task type follows domain.subdomain.action.
func ValidateActivityNaming(taskType string) error {
	if !taskTypePattern.MatchString(taskType) {
		return fmt.Errorf("task type %q must follow format: domain.subdomain.action (e.g., ewaybill.validity.extend)", taskType)
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Helpers for schema literals.
func IntPtr(i int) *int           { return &i }
func FloatPtr(f float64) *float64 { return &f }
func StringPtr(s string) *string  { return &s }
