package game

import "confession-client/internal/client"

// Phase is the client-side game phase. The client loops between these for
// the whole session; there is no terminal phase.
type Phase string

const (
	PhaseJoin    Phase = "join"    // no active room
	PhaseWaiting Phase = "waiting" // room joined, game not started
	PhasePlaying Phase = "playing" // active round
)

// Snapshot is the local view of the shared room state. It is owned by the
// Machine and mutated only in response to inbound events (the optimistic
// vote guard being the one exception); everything downstream gets copies.
type Snapshot struct {
	RoomID     string
	PlayerID   string
	PlayerName string

	Phase         Phase
	Players       []client.Player
	CurrentTarget string
	Confessions   []client.Confession
	Chat          []client.ChatMessage
	Votes         client.VoteStatus
	CanSelectNext bool
	HasVoted      bool

	// ErrorMessage is a transient server-reported error, auto-cleared.
	// Notice carries the reason of the last game reset.
	ErrorMessage string
	Notice       string
}

// IsHost reports whether the local player is the host. Host status is
// derived from roster position: the server keeps the host first.
func (s Snapshot) IsHost() bool {
	return len(s.Players) > 0 && s.Players[0].ID == s.PlayerID
}

// IsTarget reports whether the local player is the current round's target.
func (s Snapshot) IsTarget() bool {
	return s.CurrentTarget != "" && s.CurrentTarget == s.PlayerID
}

// NameOf resolves a player id against the roster, falling back to the id
// itself for players no longer present.
func (s Snapshot) NameOf(playerID string) string {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return playerID
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Players = append([]client.Player(nil), s.Players...)
	out.Confessions = append([]client.Confession(nil), s.Confessions...)
	out.Chat = append([]client.ChatMessage(nil), s.Chat...)
	return out
}
