package configutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Max    int      `koanf:"max"`
	Values []string `koanf:"values"`
	Strict bool     `koanf:"strict"`
}

func TestResolve(t *testing.T) {
	t.Parallel()

	defaults := testConfig{Max: 10, Values: []string{"a"}}

	tests := []struct {
		name string
		opts map[string]any
		want testConfig
	}{
		{"nil options", nil, defaults},
		{"override one field", map[string]any{"max": 20}, testConfig{Max: 20, Values: []string{"a"}}},
		{"weakly typed", map[string]any{"max": "30", "strict": "true"}, testConfig{Max: 30, Values: []string{"a"}, Strict: true}},
		{"list", map[string]any{"values": []any{"x", "y"}}, testConfig{Max: 10, Values: []string{"x", "y"}}},
		{"undecodable", map[string]any{"max": "many"}, defaults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Resolve(tt.opts, defaults))
		})
	}
}

func TestValidateWithSchema(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max": map[string]any{"type": "integer"},
		},
		"additionalProperties": false,
	}

	require.NoError(t, ValidateWithSchema(nil, schema))
	require.NoError(t, ValidateWithSchema(map[string]any{"max": 3}, schema))
	require.Error(t, ValidateWithSchema(map[string]any{"max": "3"}, schema))
	require.Error(t, ValidateWithSchema(map[string]any{"other": 1}, schema))
}
