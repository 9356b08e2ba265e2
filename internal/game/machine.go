package game

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"confession-client/internal/client"
)

const defaultErrorTTL = 3 * time.Second

// Machine holds the canonical local snapshot and applies inbound server
// events to it. Events arrive on the connection's read-loop goroutine while
// local actions come from the driver, so the snapshot is mutex-guarded.
type Machine struct {
	mu       sync.RWMutex
	snap     Snapshot
	errTimer *time.Timer
	errorTTL time.Duration
	onChange func()
}

func NewMachine() *Machine {
	return &Machine{
		snap:     Snapshot{Phase: PhaseJoin},
		errorTTL: defaultErrorTTL,
	}
}

// SetOnChange installs a callback invoked after every applied mutation.
// Must be set before Register.
func (m *Machine) SetOnChange(fn func()) {
	m.onChange = fn
}

// SetErrorTTL overrides how long a server error stays visible.
func (m *Machine) SetErrorTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorTTL = ttl
}

// Snapshot returns a copy of the current state for read-only projection.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.clone()
}

// Register binds the machine to every inbound event kind on the emitter and
// returns a function that unbinds them all.
func (m *Machine) Register(em *client.Emitter) (off func()) {
	offs := []func(){
		on(em, client.KindJoinRoomSuccess, m.applyJoinSuccess),
		on(em, client.KindPlayerListUpdated, m.applyPlayerList),
		on(em, client.KindGameStarted, m.applyGameStarted),
		on(em, client.KindChatMessage, m.applyChat),
		on(em, client.KindConfessionReceived, m.applyConfession),
		on(em, client.KindConfessionSent, m.applyConfessionSent),
		on(em, client.KindExplanationReceived, m.applyExplanation),
		on(em, client.KindVoteUpdated, m.applyVoteUpdated),
		on(em, client.KindVoteComplete, m.applyVoteComplete),
		on(em, client.KindNewTargetSelected, m.applyNewTarget),
		on(em, client.KindGameReset, m.applyGameReset),
		on(em, client.KindError, m.applyError),
	}
	return func() {
		for _, fn := range offs {
			fn()
		}
	}
}

// on decodes the payload for kind and hands it to apply; undecodable
// payloads are logged and dropped so they can never break the dispatch path.
func on[T any](em *client.Emitter, kind string, apply func(T)) func() {
	return em.On(kind, func(data json.RawMessage) {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Printf("dropped %q payload: %v", kind, err)
			return
		}
		apply(payload)
	})
}

// BeginJoin records the identifiers a join attempt was made with, so
// outbound actions can address the room before the server confirms.
func (m *Machine) BeginJoin(roomID, playerID, playerName string) {
	m.mu.Lock()
	m.snap.RoomID = roomID
	m.snap.PlayerID = playerID
	m.snap.PlayerName = playerName
	m.mu.Unlock()
	m.notify()
}

// Leave resets to the join phase, clearing all room-scoped state. The
// player identity survives for the next join.
func (m *Machine) Leave() {
	m.mu.Lock()
	m.snap = Snapshot{
		Phase:      PhaseJoin,
		PlayerID:   m.snap.PlayerID,
		PlayerName: m.snap.PlayerName,
	}
	m.mu.Unlock()
	m.notify()
}

// MarkVoted sets the optimistic vote guard. It reports false when the guard
// was already set, letting the facade reject a double submit before any
// network send. The guard resets whenever the target changes.
func (m *Machine) MarkVoted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.HasVoted {
		return false
	}
	m.snap.HasVoted = true
	return true
}

func (m *Machine) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}

// applyJoinSuccess installs the server's room snapshot. A second
// join-room-success while already joined is a legitimate resynchronization
// (reconnect mid-game) and replaces local round state wholesale.
func (m *Machine) applyJoinSuccess(p client.JoinRoomSuccess) {
	m.mu.Lock()
	room := p.Room
	if room.RoomID != "" {
		m.snap.RoomID = room.RoomID
	}
	if p.Player.ID != "" {
		m.snap.PlayerID = p.Player.ID
		m.snap.PlayerName = p.Player.Name
	}
	m.snap.Players = room.Players
	m.snap.Confessions = room.Confessions
	if m.snap.Confessions == nil {
		m.snap.Confessions = room.ConfessionMessages
	}
	m.snap.Chat = nil
	m.snap.CanSelectNext = false
	m.snap.HasVoted = false

	if strings.EqualFold(room.GameState, "playing") {
		m.snap.Phase = PhasePlaying
		m.snap.CurrentTarget = room.CurrentTarget
		if room.Votes != nil {
			m.snap.Votes = *room.Votes
		} else {
			m.snap.Votes = client.VoteStatus{}
		}
	} else {
		m.snap.Phase = PhaseWaiting
		m.snap.CurrentTarget = ""
		m.snap.Votes = client.VoteStatus{}
	}
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyPlayerList(p client.PlayerListUpdated) {
	m.mu.Lock()
	if m.snap.Phase == PhaseJoin {
		m.mu.Unlock()
		return
	}
	// Server ordering is authoritative (first entry is the host).
	m.snap.Players = p.Players
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyGameStarted(p client.GameStarted) {
	m.mu.Lock()
	if m.snap.Phase != PhaseWaiting {
		m.mu.Unlock()
		log.Printf("ignoring game-started in phase %s", m.snap.Phase)
		return
	}
	m.snap.Phase = PhasePlaying
	m.startRoundLocked(p.Target)
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyChat(p client.ChatMessage) {
	m.mu.Lock()
	if m.snap.Phase != PhasePlaying || m.snap.IsTarget() {
		m.mu.Unlock()
		return
	}
	m.snap.Chat = append(m.snap.Chat, p)
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyConfession(p client.ConfessionReceived) {
	m.mu.Lock()
	if m.snap.Phase != PhasePlaying || !m.snap.IsTarget() {
		m.mu.Unlock()
		return
	}
	// A re-delivered id must not create a second record.
	for _, c := range m.snap.Confessions {
		if c.ID == p.ID {
			m.mu.Unlock()
			return
		}
	}
	m.snap.Confessions = append(m.snap.Confessions, client.Confession{
		ID:        p.ID,
		Message:   p.Message,
		Timestamp: p.Timestamp,
	})
	m.mu.Unlock()
	m.notify()
}

// applyConfessionSent is the sender-side delivery ack. Informational only.
func (m *Machine) applyConfessionSent(p client.ConfessionSent) {
	log.Printf("confession %s delivered", p.ConfessionID)
}

func (m *Machine) applyExplanation(p client.ExplanationReceived) {
	m.mu.Lock()
	if m.snap.Phase != PhasePlaying {
		m.mu.Unlock()
		return
	}
	for i := range m.snap.Confessions {
		if m.snap.Confessions[i].ID == p.ConfessionID {
			m.snap.Confessions[i].Explanation = p.Explanation
			m.mu.Unlock()
			m.notify()
			return
		}
	}
	// Unknown id: drop, never fail.
	m.mu.Unlock()
}

func (m *Machine) applyVoteUpdated(p client.VoteUpdated) {
	m.mu.Lock()
	if m.snap.Phase != PhasePlaying {
		m.mu.Unlock()
		return
	}
	m.snap.Votes = client.VoteStatus{Count: p.Votes, Required: p.Required}
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyVoteComplete(p client.VoteComplete) {
	m.mu.Lock()
	if m.snap.Phase != PhasePlaying {
		m.mu.Unlock()
		return
	}
	// The flag is only meaningful for the target, so only the target's
	// view sets it.
	if p.AllAgree && m.snap.IsTarget() {
		m.snap.CanSelectNext = true
	}
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyNewTarget(p client.NewTargetSelected) {
	m.mu.Lock()
	if m.snap.Phase != PhasePlaying {
		m.mu.Unlock()
		return
	}
	m.startRoundLocked(p.Target)
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) applyGameReset(p client.GameReset) {
	m.mu.Lock()
	if m.snap.Phase == PhaseJoin {
		m.mu.Unlock()
		return
	}
	m.snap.Phase = PhaseWaiting
	m.snap.CurrentTarget = ""
	m.snap.Confessions = nil
	m.snap.Chat = nil
	m.snap.Votes = client.VoteStatus{}
	m.snap.CanSelectNext = false
	m.snap.HasVoted = false
	m.snap.Notice = p.Message
	m.mu.Unlock()
	m.notify()
}

// applyError surfaces a transient server error and arms (or re-arms) the
// auto-clear timer. Phase is untouched.
func (m *Machine) applyError(p client.ErrorMessage) {
	m.mu.Lock()
	m.snap.ErrorMessage = p.Message
	if m.errTimer != nil {
		m.errTimer.Stop()
	}
	m.errTimer = time.AfterFunc(m.errorTTL, m.clearError)
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) clearError() {
	m.mu.Lock()
	m.snap.ErrorMessage = ""
	m.mu.Unlock()
	m.notify()
}

// startRoundLocked installs a new target and clears every piece of
// round-scoped state. Round state never survives a target change. The
// required vote count is recomputed locally from the current roster.
func (m *Machine) startRoundLocked(target string) {
	m.snap.CurrentTarget = target
	m.snap.Confessions = nil
	m.snap.Chat = nil
	m.snap.Votes = client.VoteStatus{Count: 0, Required: len(m.snap.Players) - 1}
	m.snap.CanSelectNext = false
	m.snap.HasVoted = false
	m.snap.Notice = ""
}
