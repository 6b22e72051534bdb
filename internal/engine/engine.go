package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DoyleJ11/landlord-client/pkg/types"
)

var ErrNotSeated = errors.New("not seated in this lobby")
var ErrWrongTurn = errors.New("not your turn")
var ErrWrongPhase = errors.New("action not available in this phase")
var ErrBidTooLow = errors.New("bid must exceed the current bid")
var ErrBidOutOfRange = errors.New("bid out of range")
var ErrEmptyPlay = errors.New("no cards selected")
var ErrNotEnoughPlayers = errors.New("not enough players to start")
var ErrEmptyChat = errors.New("empty chat message")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	// SeatCount is the number of seats at a table.
	SeatCount = 3
	// MinPlayers is the seat count required before a game can start.
	MinPlayers = 3
	// MaxBid is the highest bid; reaching it ends the raising.
	MaxBid = 3
)

type CommandType string

const (
	CmdChat  CommandType = "Chat"
	CmdStart CommandType = "Start"
	CmdBid   CommandType = "Bid"
	CmdPlay  CommandType = "Play"
)

/*
	Phase      -> commands the client will put on the wire
	Lobby      -> Start (3 players seated), Chat
	Bidding    -> Bid(0..3) on your turn, Chat
	Playing    -> Play(cards) / Play([]) on your turn, Chat
	Finished   -> Start ("play again"), Chat

	Joining is a REST call, not a socket command, so it is not checked here.
*/

type Command struct {
	Type  CommandType
	Text  string
	Bid   int
	Cards []int
}

// Check reports whether cmd may be sent for the given state. It is advisory: the
// server re-checks everything and answers violations with an Error push.
func Check(s types.LobbyState, cmd Command) error {
	if _, ok := s.Seated(); !ok {
		return ErrNotSeated
	}

	switch cmd.Type {
	case CmdChat:
		if strings.TrimSpace(cmd.Text) == "" {
			return ErrEmptyChat
		}
		return nil

	case CmdStart:
		switch s.Status {
		case types.PhaseLobby:
			if len(s.Players) < MinPlayers {
				return fmt.Errorf("%w: %d of %d", ErrNotEnoughPlayers, len(s.Players), MinPlayers)
			}
			return nil
		case types.PhaseFinished:
			return nil
		default:
			return ErrWrongPhase
		}

	case CmdBid:
		if s.Status != types.PhaseBidding || s.Game == nil {
			return ErrWrongPhase
		}
		if !IsViewerTurn(s) {
			return ErrWrongTurn
		}
		return checkBid(s.Game.Bid, cmd.Bid)

	case CmdPlay:
		if s.Status != types.PhasePlaying || s.Game == nil {
			return ErrWrongPhase
		}
		if !IsViewerTurn(s) {
			return ErrWrongTurn
		}
		// An empty play is a pass; non-empty plays go through the server's legality check.
		return nil

	default:
		return ErrUnsupportedCommand
	}
}

// CheckPlaySelection is Check for a Play built from the selection: unlike a pass,
// the Play control needs at least one card.
func CheckPlaySelection(s types.LobbyState, cards []int) error {
	if err := Check(s, Command{Type: CmdPlay, Cards: cards}); err != nil {
		return err
	}
	if len(cards) == 0 {
		return ErrEmptyPlay
	}
	return nil
}

func checkBid(current, bid int) error {
	if bid < 0 || bid > MaxBid {
		return fmt.Errorf("%w: %d", ErrBidOutOfRange, bid)
	}
	if bid == 0 {
		return nil // pass
	}
	if bid <= current {
		return fmt.Errorf("%w: %d <= %d", ErrBidTooLow, bid, current)
	}
	return nil
}

// IsViewerTurn is true when the viewer is seated and the game turn points at them.
func IsViewerTurn(s types.LobbyState) bool {
	seat, ok := s.Seated()
	if !ok || s.Game == nil {
		return false
	}
	return s.Game.Turn == seat
}
