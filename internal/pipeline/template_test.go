package pipeline

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestTemplate_Render(t *testing.T) {
	rec := Record{
		"uid":     json.Number("25377"),
		"float":   float64(1000),
		"name":    "jdoe",
		"flag":    true,
		"process": map[string]any{"uid": "1001"},
		"nothing": nil,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"literal", "25377", "25377"},
		{"number field", "%{uid}", "25377"},
		{"float field", "%{float}", "1000"},
		{"nested field", "%{[process][uid]}", "1001"},
		{"mixed text", "uid-%{name}-%{flag}", "uid-jdoe-true"},
		{"missing field kept verbatim", "%{[process][gid]}", "%{[process][gid]}"},
		{"null field kept verbatim", "%{nothing}", "%{nothing}"},
		{"object field", "%{process}", `{"uid":"1001"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTemplate(tt.template).Render(rec))
		})
	}
}

func TestTemplate_IsLiteral(t *testing.T) {
	assert.True(t, NewTemplate("25377").IsLiteral())
	assert.True(t, NewTemplate("%{").IsLiteral())
	assert.False(t, NewTemplate("%{uid}").IsLiteral())
	assert.Equal(t, "%{uid}", NewTemplate("%{uid}").String())
}
