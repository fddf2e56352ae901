package validation

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeInvalidType          = "INVALID_TYPE"
	CodeInvalidValue         = "INVALID_VALUE"
)

// Schema is a compiled JSON schema together with its required top-level keys.
type Schema struct {
	compiled *gojsonschema.Schema
	required []string
}

// NewSchema compiles a JSON schema expressed as a Go map.
func NewSchema(raw map[string]interface{}) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled, required: requiredOf(raw)}, nil
}

// MustSchema is NewSchema for package-level schemas known to be valid.
func MustSchema(raw map[string]interface{}) *Schema {
	s, err := NewSchema(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// RequiredKeys builds an object schema that only checks for the presence of keys.
func RequiredKeys(keys ...string) *Schema {
	raw := map[string]interface{}{"type": "object"}
	if len(keys) > 0 {
		required := make([]interface{}, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		raw["required"] = required
	}
	return MustSchema(raw)
}

// Required returns the schema's required top-level keys in declaration order.
func (s *Schema) Required() []string {
	out := make([]string, len(s.required))
	copy(out, s.required)
	return out
}

// Validate checks a decoded JSON document (maps, slices, scalars).
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    CodeInvalidValue,
		}}}
	}
	return convert(result)
}

// ValidateJSON checks a raw JSON document.
func (s *Schema) ValidateJSON(data []byte) *ValidationResult {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    CodeInvalidValue,
		}}}
	}
	return convert(result)
}

// MissingFields lists the required keys reported missing, ordered as the schema declares them.
func (s *Schema) MissingFields(vr *ValidationResult) []string {
	missing := make(map[string]bool)
	for _, e := range vr.Errors {
		if e.Code == CodeRequiredFieldMissing {
			missing[e.Field] = true
		}
	}
	var out []string
	for _, k := range s.required {
		if missing[k] {
			out = append(out, k)
			delete(missing, k)
		}
	}
	// nested required keys are not in s.required
	rest := make([]string, 0, len(missing))
	for k := range missing {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func convert(result *gojsonschema.Result) *ValidationResult {
	vr := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		code := CodeInvalidValue
		switch desc.Type() {
		case "required":
			code = CodeRequiredFieldMissing
			if prop, ok := desc.Details()["property"].(string); ok {
				if field == "(root)" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		case "invalid_type":
			code = CodeInvalidType
		}
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    code,
		})
	}
	return vr
}

func requiredOf(raw map[string]interface{}) []string {
	var out []string
	switch req := raw["required"].(type) {
	case []string:
		out = append(out, req...)
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
