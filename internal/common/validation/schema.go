// Package validation checks decoded JSON request bodies against small schemas.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// JSONSchema describes the top-level object of a request body.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Pattern     *string  `json:"pattern,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
	// NotBlank rejects strings that are empty once surrounding whitespace is removed.
	NotBlank bool `json:"notBlank,omitempty"`
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

func intPtr(i int) *int { return &i }

// AskRequestSchema validates the body of a question request.
var AskRequestSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"query": {
			Type:        "string",
			Description: "natural-language question about the dataset",
			NotBlank:    true,
			MaxLength:   intPtr(2000),
		},
	},
	Required:             []string{"query"},
	AdditionalProperties: true,
}

// RevenuePerformanceRequestSchema validates the body of a revenue performance request.
// The month format itself is checked by the classifier, which reports it in the payload.
var RevenuePerformanceRequestSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"month": {
			Type:        "string",
			Description: "month to report, e.g. 2021-05 or May 2021",
			NotBlank:    true,
			MaxLength:   intPtr(64),
		},
	},
	Required:             []string{"month"},
	AdditionalProperties: true,
}

// ValidateInput validates input against schema. Fields are checked in a stable order.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := []ValidationError{}

	for _, requiredField := range schema.Required {
		if value, exists := input[requiredField]; !exists || value == nil {
			errors = append(errors, ValidationError{
				Field:   requiredField,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for _, fieldName := range sortedKeys(input) {
		value := input[fieldName]
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errors = append(errors, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		if value == nil {
			continue
		}
		errors = append(errors, validateField(fieldName, value, prop)...)
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	if err := validateType(value, prop.Type); err != nil {
		return []ValidationError{{
			Field:   fieldName,
			Message: err.Error(),
			Code:    "INVALID_TYPE",
		}}
	}

	strVal, ok := value.(string)
	if !ok {
		return nil
	}

	var errors []ValidationError
	if prop.NotBlank && strings.TrimSpace(strVal) == "" {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: "value must not be blank",
			Code:    "BLANK_VALUE",
		})
	}
	if prop.MinLength != nil && len(strVal) < *prop.MinLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at least %d characters", *prop.MinLength),
			Code:    "MIN_LENGTH_VIOLATION",
		})
	}
	if prop.MaxLength != nil && len(strVal) > *prop.MaxLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength),
			Code:    "MAX_LENGTH_VIOLATION",
		})
	}
	if prop.Pattern != nil {
		matched, err := regexp.MatchString(*prop.Pattern, strVal)
		if err != nil || !matched {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must match pattern %s", *prop.Pattern),
				Code:    "PATTERN_MISMATCH",
			})
		}
	}
	if len(prop.Enum) > 0 && !contains(prop.Enum, strVal) {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be one of %v", prop.Enum),
			Code:    "INVALID_ENUM_VALUE",
		})
	}
	return errors
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %s", jsonType(value))
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected number, got %s", jsonType(value))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %s", jsonType(value))
		}
	}
	return nil
}

// jsonType names the JSON type encoding/json decodes value from.
func jsonType(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
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

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
