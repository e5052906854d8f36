// Package signal provides per-node change notification.
//
// An Emitter holds an observer list per signal name. Nodes embed an Emitter
// and declare the signal names they may emit; observers Connect a handler to
// one of those names and receive every payload passed to Emit.
//
//	text := blox.NewText("hi")
//	sub, _ := text.Connect("value_changed", func(v any) { log.Println(v) })
//	text.SetValue("bye") // handler receives "bye"
//	sub.Disconnect()
//
// Emitters follow the ownership rules of the tree they belong to: a node and
// its emitter are mutated by one logical owner at a time.
package signal

import (
	"slices"

	"github.com/timothycrosley/blox/internal/errors"
)

// ErrUnknownSignal is returned when connecting to a signal the emitter does
// not declare.
var ErrUnknownSignal = errors.Sentinel("E014")

// Handler receives the payload of an emitted signal.
type Handler func(payload any)

type slot struct {
	id      uint64
	handler Handler
}

// Emitter dispatches signals to connected handlers. The zero value accepts
// any signal name; Declare restricts it to a fixed set.
type Emitter struct {
	declared []string
	slots    map[string][]slot
	nextID   uint64
}

// New creates an Emitter restricted to the given signal names.
func New(signals ...string) *Emitter {
	e := &Emitter{}
	e.Declare(signals...)
	return e
}

// Declare adds signal names to the set this emitter may emit.
func (e *Emitter) Declare(signals ...string) {
	for _, s := range signals {
		if s != "" && !slices.Contains(e.declared, s) {
			e.declared = append(e.declared, s)
		}
	}
}

// Signals returns the declared signal names in declaration order.
func (e *Emitter) Signals() []string {
	return slices.Clone(e.declared)
}

// Declares reports whether the emitter may emit signal.
func (e *Emitter) Declares(signal string) bool {
	return len(e.declared) == 0 || slices.Contains(e.declared, signal)
}

// Connect subscribes handler to signal.
func (e *Emitter) Connect(signal string, handler Handler) (*Subscription, error) {
	if !e.Declares(signal) {
		return nil, errors.New("E014").WithDetailf("%q (declared: %v)", signal, e.declared)
	}
	if e.slots == nil {
		e.slots = make(map[string][]slot)
	}
	e.nextID++
	e.slots[signal] = append(e.slots[signal], slot{id: e.nextID, handler: handler})
	return &Subscription{emitter: e, signal: signal, id: e.nextID}, nil
}

// Emit calls every handler connected to signal with payload, in connection
// order. Handlers connected or disconnected during Emit take effect on the
// next emission.
func (e *Emitter) Emit(signal string, payload any) {
	if e == nil || len(e.slots[signal]) == 0 {
		return
	}
	slots := slices.Clone(e.slots[signal])
	for _, s := range slots {
		s.handler(payload)
	}
}

// Connected returns the number of handlers attached to signal.
func (e *Emitter) Connected(signal string) int {
	if e == nil {
		return 0
	}
	return len(e.slots[signal])
}

func (e *Emitter) disconnect(signal string, id uint64) bool {
	slots := e.slots[signal]
	for i, s := range slots {
		if s.id == id {
			e.slots[signal] = slices.Delete(slots, i, i+1)
			return true
		}
	}
	return false
}

// Subscription is the handle returned by Connect.
type Subscription struct {
	emitter *Emitter
	signal  string
	id      uint64
}

// Signal returns the name the subscription listens to.
func (s *Subscription) Signal() string {
	return s.signal
}

// Disconnect detaches the handler. It reports whether the handler was still
// connected.
func (s *Subscription) Disconnect() bool {
	if s == nil || s.emitter == nil {
		return false
	}
	return s.emitter.disconnect(s.signal, s.id)
}
