package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Required keys
// ==========================

func TestRequiredKeys(t *testing.T) {
	schema := RequiredKeys("summary", "keyPoints", "sentiment")

	tests := []struct {
		name    string
		doc     map[string]interface{}
		valid   bool
		missing []string
	}{
		{
			name:  "all present",
			doc:   map[string]interface{}{"summary": "s", "keyPoints": []interface{}{}, "sentiment": "neutral"},
			valid: true,
		},
		{
			name:    "one missing",
			doc:     map[string]interface{}{"summary": "s", "keyPoints": []interface{}{}},
			missing: []string{"sentiment"},
		},
		{
			name:    "declaration order kept",
			doc:     map[string]interface{}{"keyPoints": []interface{}{}},
			missing: []string{"summary", "sentiment"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.doc)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.missing, schema.MissingFields(result))
		})
	}
}

func TestRequiredKeys_NonObject(t *testing.T) {
	result := RequiredKeys("actions").Validate([]interface{}{"a"})
	assert.False(t, result.Valid)
	assert.Equal(t, CodeInvalidType, result.Errors[0].Code)
}

// ==========================
// Typed schemas
// ==========================

func TestNewSchema_TypedProperties(t *testing.T) {
	schema, err := NewSchema(map[string]interface{}{
		"type":     "object",
		"required": []string{"estimatedMinutes"},
		"properties": map[string]interface{}{
			"estimatedMinutes": map[string]interface{}{"type": "number"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"estimatedMinutes"}, schema.Required())

	result := schema.ValidateJSON([]byte(`{"estimatedMinutes":"soon"}`))
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("estimatedMinutes"))
	assert.Empty(t, schema.MissingFields(result))
	assert.NotEmpty(t, result.GetErrorMessages())

	assert.True(t, schema.ValidateJSON([]byte(`{"estimatedMinutes":45}`)).Valid)
}

func TestValidateJSON_Malformed(t *testing.T) {
	result := RequiredKeys("actions").ValidateJSON([]byte(`{not json`))
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("(root)"))
}
