package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var fieldRefPattern = regexp.MustCompile(`%\{([^}]+)\}`)

// Template is a string with %{field} references to record fields.
type Template struct {
	raw string
}

// NewTemplate parses raw.
func NewTemplate(raw string) Template {
	return Template{raw: raw}
}

// String returns the unrendered template.
func (t Template) String() string {
	return t.raw
}

// IsLiteral reports whether the template has no field references.
func (t Template) IsLiteral() bool {
	return !fieldRefPattern.MatchString(t.raw)
}

// Render substitutes field references with values from r. A reference to a
// missing field is left as written.
func (t Template) Render(r Record) string {
	if t.IsLiteral() {
		return t.raw
	}

	return fieldRefPattern.ReplaceAllStringFunc(t.raw, func(match string) string {
		ref := strings.TrimSpace(match[2 : len(match)-1])
		value, ok := r.Get(ref)
		if !ok || value == nil {
			return match
		}
		return formatValue(value)
	})
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case map[string]any, Record, []any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	default:
		return fmt.Sprint(value)
	}
}
