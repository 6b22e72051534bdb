package engine

import "github.com/DoyleJ11/landlord-client/pkg/types"

// NextSeat is the seat that acts after seat.
func NextSeat(seat int) int {
	return wrapSeat(seat + 1)
}

// RelativeSeat maps a table position (0 = bottom, then clockwise) to a seat so the
// viewer always sits at position 0. Spectators see seat 0 at the bottom. The result is
// always in [0, SeatCount), even for an out-of-range pushed seat.
func RelativeSeat(s types.LobbyState, pos int) int {
	seat, _ := s.Seated()
	return wrapSeat(pos + seat)
}

func wrapSeat(n int) int {
	return (n%SeatCount + SeatCount) % SeatCount
}

// HasPassed reports whether seat passed since the last play, counting back from the
// current turn.
func HasPassed(g *types.GameState, seat int) bool {
	if g == nil || seat == g.Turn {
		return false
	}
	return (g.Turn+SeatCount-seat)%SeatCount <= g.Passes
}
