package client

// ============================================================================
// SHARED
// ============================================================================

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Confession struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Explanation string `json:"explanation,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

type VoteStatus struct {
	Count    int `json:"count"`
	Required int `json:"required"`
}

// ============================================================================
// OUTBOUND (client -> server)
// ============================================================================

type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type StartGameRequest struct {
	RoomID string `json:"roomId"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

type SendConfessionRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type SendExplanationRequest struct {
	RoomID       string `json:"roomId"`
	ConfessionID string `json:"confessionId"`
	Explanation  string `json:"explanation"`
}

type SendChatRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type VoteRequest struct {
	RoomID string `json:"roomId"`
	Agree  bool   `json:"agree"`
}

type SelectNextTargetRequest struct {
	RoomID   string `json:"roomId"`
	TargetID string `json:"targetId"`
}

// ============================================================================
// INBOUND (server -> client)
// ============================================================================

// RoomState is the server's full room snapshot, sent on join and resync.
// Older server builds named the confession list "confessionMessages"; both
// spellings are accepted and merged by the state machine.
type RoomState struct {
	RoomID             string       `json:"roomId"`
	Players            []Player     `json:"players"`
	GameState          string       `json:"gameState"`
	CurrentTarget      string       `json:"currentTarget,omitempty"`
	Confessions        []Confession `json:"confessions,omitempty"`
	ConfessionMessages []Confession `json:"confessionMessages,omitempty"`
	Votes              *VoteStatus  `json:"votes,omitempty"`
}

type JoinRoomSuccess struct {
	Player Player    `json:"player"`
	Room   RoomState `json:"room"`
}

type PlayerListUpdated struct {
	Players []Player `json:"players"`
}

type GameStarted struct {
	Target     string `json:"target"`
	TargetName string `json:"targetName,omitempty"`
}

type ChatMessage struct {
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

type ConfessionReceived struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type ConfessionSent struct {
	ConfessionID string `json:"confessionId"`
}

type ExplanationReceived struct {
	ConfessionID string `json:"confessionId"`
	Explanation  string `json:"explanation"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

type VoteUpdated struct {
	Votes    int `json:"votes"`
	Required int `json:"required"`
}

type VoteComplete struct {
	AllAgree bool `json:"allAgree"`
}

type NewTargetSelected struct {
	Target     string `json:"target"`
	TargetName string `json:"targetName,omitempty"`
}

type GameReset struct {
	Message string `json:"message"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// Wire event kinds.
const (
	KindJoinRoom         = "join-room"
	KindStartGame        = "start-game"
	KindLeaveRoom        = "leave-room"
	KindSendConfession   = "send-confession"
	KindSendExplanation  = "send-explanation"
	KindSendChat         = "send-chat-message"
	KindVote             = "vote"
	KindSelectNextTarget = "select-next-target"

	KindJoinRoomSuccess     = "join-room-success"
	KindPlayerListUpdated   = "player-list-updated"
	KindGameStarted         = "game-started"
	KindChatMessage         = "chat-message"
	KindConfessionReceived  = "confession-received"
	KindConfessionSent      = "confession-sent"
	KindExplanationReceived = "explanation-received"
	KindVoteUpdated         = "vote-updated"
	KindVoteComplete        = "vote-complete"
	KindNewTargetSelected   = "new-target-selected"
	KindGameReset           = "game-reset"
	KindError               = "error"
)
