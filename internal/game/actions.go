package game

import (
	"context"
	"errors"
	"strings"

	"confession-client/internal/client"
)

// Sender is the slice of the connection the facade needs. Sends are
// fire-and-forget; acks, if any, come back as inbound events.
type Sender interface {
	Send(ctx context.Context, kind string, payload any) error
}

// Precondition violations. These are rejected locally, with no network
// round-trip.
var (
	ErrEmptyInput        = errors.New("EMPTY_INPUT: text must not be blank")
	ErrNotInRoom         = errors.New("NOT_IN_ROOM: join a room first")
	ErrWrongPhase        = errors.New("WRONG_PHASE: action not available right now")
	ErrNotHost           = errors.New("NOT_HOST: only the host can start the game")
	ErrIsTarget          = errors.New("IS_TARGET: the target cannot do this")
	ErrNotTarget         = errors.New("NOT_TARGET: only the target can do this")
	ErrAlreadyVoted      = errors.New("ALREADY_VOTED: vote already cast this round")
	ErrVoteIncomplete    = errors.New("VOTE_INCOMPLETE: consensus not reached yet")
	ErrUnknownConfession = errors.New("UNKNOWN_CONFESSION: no such confession id")
	ErrUnknownPlayer     = errors.New("UNKNOWN_PLAYER: no such player in the room")
)

// Actions translates local user intents into outbound envelopes addressed
// to the current room, validating the locally cheap preconditions first.
type Actions struct {
	sender  Sender
	machine *Machine
}

func NewActions(sender Sender, machine *Machine) *Actions {
	return &Actions{sender: sender, machine: machine}
}

// JoinRoom requests membership in roomID. Also the resynchronization path:
// re-joining after a reconnect is allowed from any phase.
func (a *Actions) JoinRoom(ctx context.Context, roomID, playerID, playerName string) error {
	roomID = strings.TrimSpace(roomID)
	playerName = strings.TrimSpace(playerName)
	if roomID == "" || playerName == "" || playerID == "" {
		return ErrEmptyInput
	}

	a.machine.BeginJoin(roomID, playerID, playerName)
	return a.sender.Send(ctx, client.KindJoinRoom, client.JoinRoomRequest{
		RoomID:     roomID,
		PlayerID:   playerID,
		PlayerName: playerName,
	})
}

func (a *Actions) StartGame(ctx context.Context) error {
	snap := a.machine.Snapshot()
	if snap.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if !snap.IsHost() {
		return ErrNotHost
	}
	return a.sender.Send(ctx, client.KindStartGame, client.StartGameRequest{RoomID: snap.RoomID})
}

// LeaveRoom notifies the server and returns the machine to the join phase
// immediately; the server needs no confirmation for a leave.
func (a *Actions) LeaveRoom(ctx context.Context) error {
	snap := a.machine.Snapshot()
	if snap.Phase == PhaseJoin {
		return ErrNotInRoom
	}
	err := a.sender.Send(ctx, client.KindLeaveRoom, client.LeaveRoomRequest{RoomID: snap.RoomID})
	a.machine.Leave()
	return err
}

func (a *Actions) SendConfession(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyInput
	}
	snap := a.machine.Snapshot()
	if snap.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if snap.IsTarget() {
		return ErrIsTarget
	}
	return a.sender.Send(ctx, client.KindSendConfession, client.SendConfessionRequest{
		RoomID:  snap.RoomID,
		Message: message,
	})
}

func (a *Actions) SendExplanation(ctx context.Context, confessionID, explanation string) error {
	explanation = strings.TrimSpace(explanation)
	if confessionID == "" || explanation == "" {
		return ErrEmptyInput
	}
	snap := a.machine.Snapshot()
	if snap.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if !snap.IsTarget() {
		return ErrNotTarget
	}
	known := false
	for _, c := range snap.Confessions {
		if c.ID == confessionID {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownConfession
	}
	return a.sender.Send(ctx, client.KindSendExplanation, client.SendExplanationRequest{
		RoomID:       snap.RoomID,
		ConfessionID: confessionID,
		Explanation:  explanation,
	})
}

func (a *Actions) SendChat(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyInput
	}
	snap := a.machine.Snapshot()
	if snap.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if snap.IsTarget() {
		return ErrIsTarget
	}
	return a.sender.Send(ctx, client.KindSendChat, client.SendChatRequest{
		RoomID:  snap.RoomID,
		Message: message,
	})
}

// CastVote submits agreement or disagreement with the target's explanations.
// The guard is set optimistically before the send, so a double submit loses
// the race locally rather than on the wire; it resets when the target
// changes.
func (a *Actions) CastVote(ctx context.Context, agree bool) error {
	snap := a.machine.Snapshot()
	if snap.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if snap.IsTarget() {
		return ErrIsTarget
	}
	if !a.machine.MarkVoted() {
		return ErrAlreadyVoted
	}
	return a.sender.Send(ctx, client.KindVote, client.VoteRequest{
		RoomID: snap.RoomID,
		Agree:  agree,
	})
}

func (a *Actions) SelectNextTarget(ctx context.Context, targetID string) error {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return ErrEmptyInput
	}
	snap := a.machine.Snapshot()
	if snap.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if !snap.IsTarget() {
		return ErrNotTarget
	}
	if !snap.CanSelectNext {
		return ErrVoteIncomplete
	}
	if targetID == snap.PlayerID {
		return ErrIsTarget
	}
	known := false
	for _, p := range snap.Players {
		if p.ID == targetID {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownPlayer
	}
	return a.sender.Send(ctx, client.KindSelectNextTarget, client.SelectNextTargetRequest{
		RoomID:   snap.RoomID,
		TargetID: targetID,
	})
}
