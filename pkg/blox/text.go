package blox

import (
	"io"

	"github.com/timothycrosley/blox/pkg/signal"
)

// SignalValueChanged is emitted by Text when its value changes.
const SignalValueChanged = "value_changed"

// Text is a leaf node holding a string. Its value is escaped on output
// unless it was set from a Safe value.
type Text struct {
	value   string
	safe    bool
	signals signal.Emitter
}

// NewText creates a Text node. Passing a Safe or SafeValue marks the value
// trusted; any other value is stringified and escaped on output.
func NewText(value any) *Text {
	t := &Text{}
	t.signals.Declare(SignalValueChanged)
	t.assign(value)
	return t
}

func (t *Text) assign(value any) {
	t.value = stringify(value)
	t.safe = isSafe(value)
}

// Value returns the current text.
func (t *Text) Value() string {
	return t.value
}

// IsSafe reports whether the current value is written without escaping.
func (t *Text) IsSafe() bool {
	return t.safe
}

// SetValue replaces the text and emits value_changed if it differs.
func (t *Text) SetValue(value any) {
	s := stringify(value)
	if s != t.value {
		t.signals.Emit(SignalValueChanged, s)
	}
	t.assign(value)
}

// Set updates the value and returns the node for chaining.
func (t *Text) Set(value any) *Text {
	t.SetValue(value)
	return t
}

// Connect subscribes to one of the node's signals.
func (t *Text) Connect(name string, h signal.Handler) (*signal.Subscription, error) {
	return t.signals.Connect(name, h)
}

// Emit sends payload to the handlers of name.
func (t *Text) Emit(name string, payload any) {
	t.signals.Emit(name, payload)
}

// Output implements Node.
func (t *Text) Output(w io.Writer, _ Options) error {
	v := t.value
	if !t.safe {
		v = EscapeHTML(v)
	}
	_, err := io.WriteString(w, v)
	return err
}

// SafeText is text that is trusted by construction and never escaped.
type SafeText struct {
	Text
}

// NewSafeText creates a SafeText node.
func NewSafeText(value any) *SafeText {
	t := &SafeText{}
	t.signals.Declare(SignalValueChanged)
	t.assign(value)
	return t
}

// Output implements Node.
func (t *SafeText) Output(w io.Writer, _ Options) error {
	_, err := io.WriteString(w, t.value)
	return err
}
