package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_DispatchInRegistrationOrder(t *testing.T) {
	em := NewEmitter()

	var order []string
	em.On("chat-message", func(json.RawMessage) { order = append(order, "first") })
	em.On("chat-message", func(json.RawMessage) { order = append(order, "second") })
	em.On("chat-message", func(json.RawMessage) { order = append(order, "third") })

	handled := em.Dispatch("chat-message", nil)

	assert.Equal(t, 3, handled)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEmitter_DispatchUnknownKind(t *testing.T) {
	em := NewEmitter()

	assert.Equal(t, 0, em.Dispatch("no-such-kind", nil))
}

func TestEmitter_HandlerReceivesPayload(t *testing.T) {
	em := NewEmitter()

	var got json.RawMessage
	em.On("vote-updated", func(data json.RawMessage) { got = data })

	payload := json.RawMessage(`{"votes":2,"required":3}`)
	em.Dispatch("vote-updated", payload)

	assert.JSONEq(t, string(payload), string(got))
}

func TestEmitter_OffRemovesAllHandlersForKind(t *testing.T) {
	em := NewEmitter()

	calls := 0
	em.On("game-reset", func(json.RawMessage) { calls++ })
	em.On("game-reset", func(json.RawMessage) { calls++ })

	em.Off("game-reset")

	assert.Equal(t, 0, em.Dispatch("game-reset", nil))
	assert.Equal(t, 0, calls)
}

func TestEmitter_OffUnknownKindIsSafe(t *testing.T) {
	em := NewEmitter()

	assert.NotPanics(t, func() { em.Off("never-registered") })
}

func TestEmitter_RemovalClosureRemovesOneHandler(t *testing.T) {
	em := NewEmitter()

	var order []string
	offFirst := em.On("chat-message", func(json.RawMessage) { order = append(order, "first") })
	em.On("chat-message", func(json.RawMessage) { order = append(order, "second") })

	offFirst()

	assert.Equal(t, 1, em.Dispatch("chat-message", nil))
	assert.Equal(t, []string{"second"}, order)

	// Removing twice is a no-op.
	assert.NotPanics(t, offFirst)
	assert.Equal(t, 1, em.Dispatch("chat-message", nil))
}

func TestEmitter_PanickingHandlerDoesNotAbortDispatch(t *testing.T) {
	em := NewEmitter()

	reached := false
	em.On("error", func(json.RawMessage) { panic("boom") })
	em.On("error", func(json.RawMessage) { reached = true })

	assert.NotPanics(t, func() { em.Dispatch("error", nil) })
	assert.True(t, reached, "handler after the panicking one must still run")
}

func TestEmitter_RemovalDuringDispatchDoesNotCorruptIteration(t *testing.T) {
	em := NewEmitter()

	var order []string
	var offSelf func()
	offSelf = em.On("disconnect", func(json.RawMessage) {
		order = append(order, "self")
		offSelf()
	})
	em.On("disconnect", func(json.RawMessage) { order = append(order, "other") })

	// Current dispatch runs against the snapshotted list.
	em.Dispatch("disconnect", nil)
	assert.Equal(t, []string{"self", "other"}, order)

	// The removal takes effect on the next dispatch.
	order = nil
	em.Dispatch("disconnect", nil)
	assert.Equal(t, []string{"other"}, order)
}

func TestEmitter_RegistrationDuringDispatchAppliesNextDispatch(t *testing.T) {
	em := NewEmitter()

	calls := 0
	em.On("connect", func(json.RawMessage) {
		em.On("connect", func(json.RawMessage) { calls++ })
	})

	assert.Equal(t, 1, em.Dispatch("connect", nil))
	assert.Equal(t, 0, calls, "handler added mid-dispatch must not run in the same dispatch")

	em.Dispatch("connect", nil)
	assert.Equal(t, 1, calls)
}
