package types

import (
	"errors"
	"fmt"
)

// Phase is the lobby status reported by the server.
type Phase string

const (
	PhaseLobby    Phase = "Lobby"
	PhaseBidding  Phase = "Bidding"
	PhasePlaying  Phase = "Playing"
	PhaseFinished Phase = "Finished"
)

// SystemSpeaker is the speaker index the server uses for game announcements.
const SystemSpeaker = 9

var ErrGameMismatch = errors.New("game record does not match status")
var ErrSeatOutOfRange = errors.New("viewer seat out of range")

type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type LastPlay struct {
	Kind  string `json:"kind"`
	Cards []int  `json:"cards"`
}

// GameState is only present once the lobby has left the Lobby phase.
type GameState struct {
	Turn       int       `json:"turn"`
	Bid        int       `json:"bid"`
	Multiplier int       `json:"mult"`
	Passes     int       `json:"passes"`
	CardsLeft  []int     `json:"cards_left"`
	LastSeat   int       `json:"last_idx"`
	LastPlay   *LastPlay `json:"last_play,omitempty"`
	Landlord   *int      `json:"landlord,omitempty"`
	Bonus      []int     `json:"bonus,omitempty"`
	Winner     *int      `json:"winner,omitempty"`
}

// LobbyState is the full server view of a lobby, personalised for the viewer.
// Every push replaces it wholesale.
//
//	status:  "Lobby" | "Bidding" | "Playing" | "Finished"
//	players: [{name, score}], index is the seat
//	idx:     viewer seat or null when spectating
//	hand:    viewer cards, absent when spectating
//	game:    present iff status != "Lobby"
type LobbyState struct {
	Status  Phase      `json:"status"`
	Players []Player   `json:"players"`
	Seat    *int       `json:"idx"`
	Hand    []int      `json:"hand,omitempty"`
	Game    *GameState `json:"game,omitempty"`
}

// Seated reports the viewer seat, if any.
func (s LobbyState) Seated() (int, bool) {
	if s.Seat == nil {
		return 0, false
	}
	return *s.Seat, true
}

// Validate checks the structural invariants of a snapshot.
func (s LobbyState) Validate() error {
	if (s.Game == nil) != (s.Status == PhaseLobby) {
		return fmt.Errorf("%w: status %q, game present %t", ErrGameMismatch, s.Status, s.Game != nil)
	}
	if seat, ok := s.Seated(); ok && (seat < 0 || seat >= len(s.Players)) {
		return fmt.Errorf("%w: seat %d, %d players", ErrSeatOutOfRange, seat, len(s.Players))
	}
	return nil
}

// Clone returns a deep copy so views handed to watchers never alias loop state.
func (s LobbyState) Clone() LobbyState {
	out := s
	out.Players = append([]Player(nil), s.Players...)
	if s.Seat != nil {
		seat := *s.Seat
		out.Seat = &seat
	}
	if s.Hand != nil {
		out.Hand = append([]int{}, s.Hand...)
	}
	if s.Game != nil {
		g := *s.Game
		g.CardsLeft = append([]int(nil), s.Game.CardsLeft...)
		g.Bonus = append([]int(nil), s.Game.Bonus...)
		if s.Game.LastPlay != nil {
			lp := LastPlay{Kind: s.Game.LastPlay.Kind, Cards: append([]int{}, s.Game.LastPlay.Cards...)}
			g.LastPlay = &lp
		}
		if s.Game.Landlord != nil {
			v := *s.Game.Landlord
			g.Landlord = &v
		}
		if s.Game.Winner != nil {
			v := *s.Game.Winner
			g.Winner = &v
		}
		out.Game = &g
	}
	return out
}

// ChatMessage is one line of lobby chat. Time is server-assigned and strictly increasing.
type ChatMessage struct {
	Text    string `json:"text"`
	Speaker int    `json:"idx"`
	Time    int64  `json:"time"`
}

// Viewport describes the scroll position of the chat pane.
type Viewport struct {
	ScrollHeight int
	ScrollTop    int
	ClientHeight int
}

// DistanceFromBottom is how far the pane is scrolled up from the newest message.
func (v Viewport) DistanceFromBottom() int {
	return v.ScrollHeight - v.ScrollTop - v.ClientHeight
}

// IntPtr is a small helper for optional seat fields.
func IntPtr(v int) *int { return &v }
