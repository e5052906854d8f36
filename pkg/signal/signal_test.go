package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_ConnectAndEmit(t *testing.T) {
	e := New("value_changed")

	var got []any
	_, err := e.Connect("value_changed", func(v any) { got = append(got, v) })
	require.NoError(t, err)

	e.Emit("value_changed", "a")
	e.Emit("value_changed", "b")
	e.Emit("other", "ignored")

	assert.Equal(t, []any{"a", "b"}, got)
}

func TestEmitter_UnknownSignal(t *testing.T) {
	e := New("value_changed")

	_, err := e.Connect("clicked", func(any) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSignal))
}

func TestEmitter_ZeroValueAcceptsAnySignal(t *testing.T) {
	var e Emitter
	assert.True(t, e.Declares("anything"))

	calls := 0
	_, err := e.Connect("anything", func(any) { calls++ })
	require.NoError(t, err)
	e.Emit("anything", nil)
	assert.Equal(t, 1, calls)
}

func TestEmitter_NilEmitIsNoop(t *testing.T) {
	var e *Emitter
	assert.NotPanics(t, func() { e.Emit("x", 1) })
	assert.Equal(t, 0, e.Connected("x"))
}

func TestSubscription_Disconnect(t *testing.T) {
	e := New("changed")

	var order []string
	first, err := e.Connect("changed", func(any) { order = append(order, "first") })
	require.NoError(t, err)
	_, err = e.Connect("changed", func(any) { order = append(order, "second") })
	require.NoError(t, err)
	assert.Equal(t, 2, e.Connected("changed"))

	assert.True(t, first.Disconnect())
	assert.False(t, first.Disconnect(), "second disconnect reports false")

	e.Emit("changed", nil)
	assert.Equal(t, []string{"second"}, order)
	assert.Equal(t, "changed", first.Signal())
}

func TestEmitter_DisconnectDuringEmit(t *testing.T) {
	e := New("changed")

	calls := 0
	var sub *Subscription
	sub, _ = e.Connect("changed", func(any) {
		calls++
		sub.Disconnect()
	})

	e.Emit("changed", nil)
	e.Emit("changed", nil)
	assert.Equal(t, 1, calls)
}

func TestEmitter_DeclareDeduplicates(t *testing.T) {
	e := New("a", "b")
	e.Declare("b", "c", "")
	assert.Equal(t, []string{"a", "b", "c"}, e.Signals())
}
