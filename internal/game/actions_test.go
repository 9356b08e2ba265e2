package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confession-client/internal/client"
)

type sentFrame struct {
	kind    string
	payload any
}

// recordingSender captures outbound frames instead of writing to a socket.
type recordingSender struct {
	frames []sentFrame
	err    error
}

func (r *recordingSender) Send(_ context.Context, kind string, payload any) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, sentFrame{kind: kind, payload: payload})
	return nil
}

func (r *recordingSender) last(t *testing.T) sentFrame {
	t.Helper()
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

func newActionsFixture(t *testing.T) (*Actions, *recordingSender, *Machine, *client.Emitter) {
	t.Helper()
	sender := &recordingSender{}
	em := client.NewEmitter()
	m := NewMachine()
	m.Register(em)
	return NewActions(sender, m), sender, m, em
}

func TestActions_JoinRoomSendsRequest(t *testing.T) {
	actions, sender, m, _ := newActionsFixture(t)

	err := actions.JoinRoom(context.Background(), "  room-1  ", "pid-1", " Ann ")
	require.NoError(t, err)

	frame := sender.last(t)
	assert.Equal(t, client.KindJoinRoom, frame.kind)
	assert.Equal(t, client.JoinRoomRequest{
		RoomID:     "room-1",
		PlayerID:   "pid-1",
		PlayerName: "Ann",
	}, frame.payload, "inputs are trimmed before sending")

	snap := m.Snapshot()
	assert.Equal(t, "room-1", snap.RoomID)
	assert.Equal(t, "pid-1", snap.PlayerID)
}

func TestActions_JoinRoomRejectsBlankInput(t *testing.T) {
	actions, sender, _, _ := newActionsFixture(t)

	assert.ErrorIs(t, actions.JoinRoom(context.Background(), "   ", "pid", "Ann"), ErrEmptyInput)
	assert.ErrorIs(t, actions.JoinRoom(context.Background(), "room", "pid", ""), ErrEmptyInput)
	assert.Empty(t, sender.frames, "rejected intents never reach the wire")
}

func TestActions_StartGameRequiresWaitingHost(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)

	// Not in a room yet.
	assert.ErrorIs(t, actions.StartGame(context.Background()), ErrWrongPhase)

	// In a room but not the host (roster order decides).
	joinWaiting(t, m, em, "B", roster("A", "B"))
	assert.ErrorIs(t, actions.StartGame(context.Background()), ErrNotHost)
	assert.Empty(t, sender.frames)

	// Host can start.
	dispatch(t, em, client.KindPlayerListUpdated, client.PlayerListUpdated{Players: roster("B", "A")})
	require.NoError(t, actions.StartGame(context.Background()))
	frame := sender.last(t)
	assert.Equal(t, client.KindStartGame, frame.kind)
	assert.Equal(t, client.StartGameRequest{RoomID: "room-1"}, frame.payload)
}

func TestActions_LeaveRoomResetsMachine(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	joinWaiting(t, m, em, "A", roster("A", "B"))

	require.NoError(t, actions.LeaveRoom(context.Background()))

	frame := sender.last(t)
	assert.Equal(t, client.KindLeaveRoom, frame.kind)
	assert.Equal(t, client.LeaveRoomRequest{RoomID: "room-1"}, frame.payload)
	assert.Equal(t, PhaseJoin, m.Snapshot().Phase)
}

func TestActions_LeaveRoomRequiresRoom(t *testing.T) {
	actions, sender, _, _ := newActionsFixture(t)

	assert.ErrorIs(t, actions.LeaveRoom(context.Background()), ErrNotInRoom)
	assert.Empty(t, sender.frames)
}

func TestActions_SendConfession(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "A", "B", roster("A", "B", "C"))

	require.NoError(t, actions.SendConfession(context.Background(), " my secret "))

	frame := sender.last(t)
	assert.Equal(t, client.KindSendConfession, frame.kind)
	assert.Equal(t, client.SendConfessionRequest{RoomID: "room-1", Message: "my secret"}, frame.payload)
}

func TestActions_SendConfessionPreconditions(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)

	assert.ErrorIs(t, actions.SendConfession(context.Background(), ""), ErrEmptyInput)
	assert.ErrorIs(t, actions.SendConfession(context.Background(), "hello"), ErrWrongPhase)

	// The target cannot confess to themselves.
	startPlaying(t, m, em, "B", "B", roster("A", "B"))
	assert.ErrorIs(t, actions.SendConfession(context.Background(), "hello"), ErrIsTarget)
	assert.Empty(t, sender.frames)
}

func TestActions_SendChatPreconditions(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "B", "B", roster("A", "B"))

	assert.ErrorIs(t, actions.SendChat(context.Background(), "   "), ErrEmptyInput)
	assert.ErrorIs(t, actions.SendChat(context.Background(), "psst"), ErrIsTarget)
	assert.Empty(t, sender.frames)
}

func TestActions_SendExplanationOnlyByTarget(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "B", "B", roster("A", "B", "C"))
	dispatch(t, em, client.KindConfessionReceived, client.ConfessionReceived{ID: "c1", Message: "who did it"})

	require.NoError(t, actions.SendExplanation(context.Background(), "c1", "not me"))
	frame := sender.last(t)
	assert.Equal(t, client.KindSendExplanation, frame.kind)
	assert.Equal(t, client.SendExplanationRequest{
		RoomID:       "room-1",
		ConfessionID: "c1",
		Explanation:  "not me",
	}, frame.payload)

	// Unknown confession ids are rejected locally.
	assert.ErrorIs(t, actions.SendExplanation(context.Background(), "ghost", "hm"), ErrUnknownConfession)
}

func TestActions_SendExplanationRejectedForBystander(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "A", "B", roster("A", "B"))

	assert.ErrorIs(t, actions.SendExplanation(context.Background(), "c1", "text"), ErrNotTarget)
	assert.Empty(t, sender.frames)
}

func TestActions_CastVoteGuardsDoubleSubmit(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "A", "B", roster("A", "B", "C"))

	require.NoError(t, actions.CastVote(context.Background(), true))
	require.Len(t, sender.frames, 1)
	assert.Equal(t, client.VoteRequest{RoomID: "room-1", Agree: true}, sender.last(t).payload)

	// Second attempt before the next round start: rejected locally,
	// nothing sent.
	assert.ErrorIs(t, actions.CastVote(context.Background(), false), ErrAlreadyVoted)
	assert.Len(t, sender.frames, 1)

	// A new round resets the guard.
	dispatch(t, em, client.KindNewTargetSelected, client.NewTargetSelected{Target: "C"})
	require.NoError(t, actions.CastVote(context.Background(), true))
	assert.Len(t, sender.frames, 2)
}

func TestActions_CastVotePreconditions(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)

	assert.ErrorIs(t, actions.CastVote(context.Background(), true), ErrWrongPhase)

	startPlaying(t, m, em, "B", "B", roster("A", "B"))
	assert.ErrorIs(t, actions.CastVote(context.Background(), true), ErrIsTarget)
	assert.Empty(t, sender.frames)
}

func TestActions_SelectNextTarget(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "B", "B", roster("A", "B", "C"))

	// Consensus not reached yet.
	assert.ErrorIs(t, actions.SelectNextTarget(context.Background(), "C"), ErrVoteIncomplete)

	dispatch(t, em, client.KindVoteComplete, client.VoteComplete{AllAgree: true})

	assert.ErrorIs(t, actions.SelectNextTarget(context.Background(), "B"), ErrIsTarget)
	assert.ErrorIs(t, actions.SelectNextTarget(context.Background(), "nobody"), ErrUnknownPlayer)

	require.NoError(t, actions.SelectNextTarget(context.Background(), "C"))
	frame := sender.last(t)
	assert.Equal(t, client.KindSelectNextTarget, frame.kind)
	assert.Equal(t, client.SelectNextTargetRequest{RoomID: "room-1", TargetID: "C"}, frame.payload)
}

func TestActions_SelectNextTargetOnlyByTarget(t *testing.T) {
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "A", "B", roster("A", "B"))

	assert.ErrorIs(t, actions.SelectNextTarget(context.Background(), "A"), ErrNotTarget)
	assert.Empty(t, sender.frames)
}

func TestActions_SendFailurePropagatesButStaysLocal(t *testing.T) {
	// A dropped connection surfaces as the sender's error; the optimistic
	// vote guard stays set, matching drop (not queue) semantics.
	actions, sender, m, em := newActionsFixture(t)
	startPlaying(t, m, em, "A", "B", roster("A", "B"))
	sender.err = client.ErrNotConnected

	assert.ErrorIs(t, actions.CastVote(context.Background(), true), client.ErrNotConnected)
	assert.True(t, m.Snapshot().HasVoted)
}
