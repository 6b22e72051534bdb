package engine

import (
	"fmt"
	"strconv"

	internaltypes "github.com/DoyleJ11/landlord-client/internal/types"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

// LowCardThreshold marks a seat as close to going out.
const LowCardThreshold = 8

func PhaseLabel(s types.LobbyState) string {
	switch s.Status {
	case types.PhaseLobby:
		return "Lobby"
	case types.PhaseBidding:
		return "Bidding"
	case types.PhasePlaying:
		return "Playing"
	case types.PhaseFinished:
		return "Finished"
	default:
		return string(s.Status)
	}
}

// TurnNotice is "Your turn" or "<name>'s turn" while bidding or playing.
func TurnNotice(s types.LobbyState) string {
	if s.Game == nil || (s.Status != types.PhaseBidding && s.Status != types.PhasePlaying) {
		return ""
	}
	if IsViewerTurn(s) {
		return "Your turn"
	}
	return PlayerName(s, s.Game.Turn) + "'s turn"
}

// TableCaption returns the centre text of the table and its emphasised line.
func TableCaption(s types.LobbyState) (text, emph string) {
	switch s.Status {
	case types.PhaseLobby:
		if len(s.Players) < MinPlayers {
			return "Waiting for players...", ""
		}
		return "Ready to start.", ""

	case types.PhaseBidding:
		bid := "none"
		if s.Game != nil && s.Game.Bid > 0 {
			bid = strconv.Itoa(s.Game.Bid)
		}
		return "Bidding phase.", "Current bid: " + bid
	}

	if s.Game == nil {
		return "", ""
	}
	played := s.Game.LastPlay != nil && len(s.Game.LastPlay.Cards) > 0
	if played {
		text = PlayerName(s, s.Game.LastSeat) + " played"
	} else {
		text = "New round"
	}

	if s.Status == types.PhaseFinished {
		if s.Game.Winner != nil && s.Game.Landlord != nil && *s.Game.Winner == *s.Game.Landlord {
			return text, "Landlord wins!"
		}
		return text, "Peasants win!"
	}
	if played {
		emph = s.Game.LastPlay.Kind
	}
	return text, emph
}

// LastPlayDescription folds the table caption into one line.
func LastPlayDescription(s types.LobbyState) string {
	text, emph := TableCaption(s)
	if emph == "" {
		return text
	}
	if text == "" {
		return emph
	}
	return text + " " + emph
}

func PlayerName(s types.LobbyState, seat int) string {
	if seat < 0 || seat >= len(s.Players) {
		return fmt.Sprintf("Seat %d", seat)
	}
	return s.Players[seat].Name
}

// SpeakerName resolves a chat speaker index, including the system sentinel.
func SpeakerName(s types.LobbyState, speaker int) string {
	if speaker == types.SystemSpeaker {
		return "Game"
	}
	return PlayerName(s, speaker)
}

// CardsLeftLabel renders "N card(s)" and whether the count is low.
func CardsLeftLabel(n int) (string, bool) {
	label := strconv.Itoa(n) + " card"
	if n != 1 {
		label += "s"
	}
	return label, n < LowCardThreshold
}

// Controls derives which action controls are enabled. It mirrors Check exactly so the
// UI never offers something the dispatcher would reject.
func Controls(s types.LobbyState, selected int) internaltypes.Controls {
	var c internaltypes.Controls

	if _, ok := s.Seated(); !ok {
		c.CanJoin = s.Status == types.PhaseLobby && len(s.Players) < MinPlayers
		return c
	}

	c.CanChat = true
	switch s.Status {
	case types.PhaseLobby:
		if len(s.Players) >= MinPlayers {
			c.CanStart = true
			c.StartLabel = "Start Game"
		}

	case types.PhaseBidding:
		current := 0
		if s.Game != nil {
			current = s.Game.Bid
		}
		turn := IsViewerTurn(s)
		for v := 1; v <= MaxBid; v++ {
			c.Bids = append(c.Bids, internaltypes.BidOption{
				Value:   v,
				Label:   strconv.Itoa(v),
				Enabled: turn && checkBid(current, v) == nil,
			})
		}
		c.Bids = append(c.Bids, internaltypes.BidOption{Value: 0, Label: "Pass", Enabled: turn})

	case types.PhasePlaying:
		turn := IsViewerTurn(s)
		c.CanPlay = turn && selected > 0
		c.CanPass = turn
		c.CanClear = selected > 0

	case types.PhaseFinished:
		c.CanStart = true
		c.StartLabel = "Play Again"
	}
	return c
}
