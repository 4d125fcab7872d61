package protocol

// Error codes carried by ErrorData.
const (
	CodeBidTooLow          = "bid_too_low"
	CodeCardNotInHand      = "card_not_in_hand"
	CodePlayerNotActive    = "player_not_active"
	CodeNoActiveAuction    = "no_active_auction"
	CodeNoPendingDiscard   = "no_pending_discard"
	CodeRoomNotFound       = "room_not_found"
	CodeRoomFull           = "room_full"
	CodeNotInRoom          = "not_in_room"
	CodeUnknownParticipant = "unknown_participant"
	CodeBadRequest         = "bad_request"
)

// PlayerInfo identifies one seat in the turn order.
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// GameStartedData is broadcast exactly once by the host when the table
// starts. The seed lets any process derive the identical shuffled deck
// without trusting a local random source; replica views themselves never
// hold undrawn cards.
type GameStartedData struct {
	Seed             int64        `json:"seed"`
	TurnTimerSeconds int          `json:"turnTimerSeconds"`
	Players          []PlayerInfo `json:"players"`
}

// BidPlacedData is a bid intent, addressed by the acting player's turn
// index. The host drops it silently when the index is stale.
type BidPlacedData struct {
	PlayerID  string   `json:"playerId"`
	TurnIndex int      `json:"turnIndex"`
	CardIDs   []string `json:"cardIds"`
}

// PassAuctionData is a pass intent, addressed like a bid.
type PassAuctionData struct {
	PlayerID  string `json:"playerId"`
	TurnIndex int    `json:"turnIndex"`
}

// TurnTimeoutData is an implicit pass broadcast on behalf of a player whose
// turn timer expired. The host treats it exactly like PassAuctionData.
type TurnTimeoutData struct {
	PlayerID  string `json:"playerId"`
	TurnIndex int    `json:"turnIndex"`
}

// LuxuryDiscardedData resolves a faux pas obligation.
type LuxuryDiscardedData struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

// LosingBid records money forfeited in a disgrace auction.
type LosingBid struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
}

// AuctionCompleteData announces a settled auction. WinnerID is empty in the
// no-winner edge case.
type AuctionCompleteData struct {
	WinnerID   string      `json:"winnerId,omitempty"`
	Card       CardInfo    `json:"card"`
	WinningBid int         `json:"winningBid"`
	Disgrace   bool        `json:"disgrace"`
	LosingBids []LosingBid `json:"losingBids,omitempty"`
}

// ErrorData reports a rejected action or a room failure. Action rejections
// are addressed by PlayerID; every other participant ignores them.
type ErrorData struct {
	PlayerID string `json:"playerId,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// RoomCreateData asks the relay for a fresh room. The requester becomes the
// room's host for its whole lifetime.
type RoomCreateData struct {
	Name             string `json:"name"`
	TurnTimerSeconds int    `json:"turnTimerSeconds"`
}

// RoomJoinData claims a free seat.
type RoomJoinData struct {
	Name string `json:"name"`
}

// RoomRejoinData reclaims a seat after a disconnect.
type RoomRejoinData struct {
	ParticipantID string `json:"participantId"`
}

// ParticipantInfo describes one seat's connection state.
type ParticipantInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Connected bool   `json:"connected"`
}

// RoomWelcomeData answers a create, join or rejoin with the requester's
// identity and the current roster.
type RoomWelcomeData struct {
	RoomID           string            `json:"roomId"`
	ParticipantID    string            `json:"participantId"`
	Seat             int               `json:"seat"`
	HostID           string            `json:"hostId"`
	TurnTimerSeconds int               `json:"turnTimerSeconds"`
	Participants     []ParticipantInfo `json:"participants"`
}

// RoomUpdateData is broadcast on every membership change and answers
// room_info requests.
type RoomUpdateData struct {
	RoomID           string            `json:"roomId"`
	HostID           string            `json:"hostId"`
	TurnTimerSeconds int               `json:"turnTimerSeconds"`
	Participants     []ParticipantInfo `json:"participants"`
}
