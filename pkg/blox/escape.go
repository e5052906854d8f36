package blox

import (
	"fmt"
	"strconv"
	"strings"
)

// Safe is a string of trusted markup. Text and attribute values of type Safe
// are written without escaping.
type Safe string

// SafeValue marks any value as trusted; its string form is written as is.
type SafeValue struct {
	Value any
}

// MarkSafe wraps v so that its output skips escaping.
func MarkSafe(v any) SafeValue {
	return SafeValue{Value: v}
}

func (s SafeValue) String() string {
	return stringify(s.Value)
}

// isSafe reports whether v carries the safe marker.
func isSafe(v any) bool {
	switch v.(type) {
	case Safe, SafeValue:
		return true
	}
	return false
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes text for safe inclusion in HTML content and quoted
// attribute values.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// stringify converts an attribute or text value to its string form.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case Safe:
		return string(v)
	case SafeValue:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// isEmpty reports whether an attribute value is omitted from output.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case Safe:
		return v == ""
	case SafeValue:
		return isEmpty(v.Value)
	case bool:
		return !v
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	}
	return stringify(value) == ""
}

// outputValue returns the rendered form of value, escaped unless safe.
func outputValue(value any) string {
	if isSafe(value) {
		return stringify(value)
	}
	return EscapeHTML(stringify(value))
}

// renderPair renders name="value", or reports false for an empty value.
func renderPair(name string, value any) (string, bool) {
	if isEmpty(value) {
		return "", false
	}
	return name + `="` + outputValue(value) + `"`, true
}
