package engine

import (
	"errors"
	"testing"

	"github.com/DoyleJ11/landlord-client/pkg/types"
)

func threePlayers() []types.Player {
	return []types.Player{{Name: "ana"}, {Name: "bo"}, {Name: "cy"}}
}

func biddingState(seat, turn, bid int) types.LobbyState {
	return types.LobbyState{
		Status:  types.PhaseBidding,
		Players: threePlayers(),
		Seat:    types.IntPtr(seat),
		Hand:    []int{1, 2, 3},
		Game:    &types.GameState{Turn: turn, Bid: bid, CardsLeft: []int{17, 17, 17}},
	}
}

func playingState(seat, turn int) types.LobbyState {
	s := biddingState(seat, turn, 2)
	s.Status = types.PhasePlaying
	s.Game.Landlord = types.IntPtr(0)
	s.Game.LastPlay = &types.LastPlay{Kind: "Pass", Cards: []int{}}
	return s
}

func TestCheck_Gating(t *testing.T) {
	spectator := biddingState(0, 0, 0)
	spectator.Seat = nil

	lobbyTwo := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers()[:2], Seat: types.IntPtr(0)}
	lobbyThree := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers(), Seat: types.IntPtr(1)}
	finished := playingState(1, 0)
	finished.Status = types.PhaseFinished

	cases := []struct {
		name    string
		state   types.LobbyState
		cmd     Command
		wantErr error
	}{
		{name: "spectator cannot bid", state: spectator, cmd: Command{Type: CmdBid, Bid: 1}, wantErr: ErrNotSeated},
		{name: "spectator cannot chat", state: spectator, cmd: Command{Type: CmdChat, Text: "hi"}, wantErr: ErrNotSeated},
		{name: "bid on own turn", state: biddingState(1, 1, 0), cmd: Command{Type: CmdBid, Bid: 1}},
		{name: "bid off turn", state: biddingState(1, 2, 0), cmd: Command{Type: CmdBid, Bid: 1}, wantErr: ErrWrongTurn},
		{name: "bid must exceed current", state: biddingState(1, 1, 1), cmd: Command{Type: CmdBid, Bid: 1}, wantErr: ErrBidTooLow},
		{name: "bid above max", state: biddingState(1, 1, 0), cmd: Command{Type: CmdBid, Bid: 4}, wantErr: ErrBidOutOfRange},
		{name: "negative bid", state: biddingState(1, 1, 0), cmd: Command{Type: CmdBid, Bid: -1}, wantErr: ErrBidOutOfRange},
		{name: "no raise past max", state: biddingState(1, 1, 3), cmd: Command{Type: CmdBid, Bid: 3}, wantErr: ErrBidTooLow},
		{name: "pass bid always allowed on turn", state: biddingState(1, 1, 3), cmd: Command{Type: CmdBid, Bid: 0}},
		{name: "bid while playing", state: playingState(0, 0), cmd: Command{Type: CmdBid, Bid: 1}, wantErr: ErrWrongPhase},
		{name: "play on turn", state: playingState(0, 0), cmd: Command{Type: CmdPlay, Cards: []int{2}}},
		{name: "pass on turn", state: playingState(0, 0), cmd: Command{Type: CmdPlay}},
		{name: "play off turn", state: playingState(0, 1), cmd: Command{Type: CmdPlay, Cards: []int{2}}, wantErr: ErrWrongTurn},
		{name: "play while bidding", state: biddingState(0, 0, 0), cmd: Command{Type: CmdPlay, Cards: []int{2}}, wantErr: ErrWrongPhase},
		{name: "start with two players", state: lobbyTwo, cmd: Command{Type: CmdStart}, wantErr: ErrNotEnoughPlayers},
		{name: "start with three players", state: lobbyThree, cmd: Command{Type: CmdStart}},
		{name: "play again", state: finished, cmd: Command{Type: CmdStart}},
		{name: "start mid game", state: playingState(0, 0), cmd: Command{Type: CmdStart}, wantErr: ErrWrongPhase},
		{name: "blank chat", state: lobbyThree, cmd: Command{Type: CmdChat, Text: "   "}, wantErr: ErrEmptyChat},
		{name: "chat off turn is fine", state: playingState(0, 2), cmd: Command{Type: CmdChat, Text: "gl"}},
		{name: "unknown command", state: lobbyThree, cmd: Command{Type: "Emote"}, wantErr: ErrUnsupportedCommand},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.state, tc.cmd)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCheckPlaySelection_RequiresCards(t *testing.T) {
	if err := CheckPlaySelection(playingState(0, 0), nil); !errors.Is(err, ErrEmptyPlay) {
		t.Fatalf("want ErrEmptyPlay, got %v", err)
	}
	if err := CheckPlaySelection(playingState(0, 1), []int{1}); !errors.Is(err, ErrWrongTurn) {
		t.Fatalf("want ErrWrongTurn, got %v", err)
	}
	if err := CheckPlaySelection(playingState(0, 0), []int{1}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestIsViewerTurn(t *testing.T) {
	lobby := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers(), Seat: types.IntPtr(0)}
	spectator := biddingState(0, 0, 0)
	spectator.Seat = nil

	cases := []struct {
		name  string
		state types.LobbyState
		want  bool
	}{
		{name: "own turn", state: biddingState(1, 1, 0), want: true},
		{name: "other turn", state: biddingState(1, 0, 0), want: false},
		{name: "no game", state: lobby, want: false},
		{name: "spectating", state: spectator, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsViewerTurn(tc.state); got != tc.want {
				t.Fatalf("IsViewerTurn: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestControls_MatchCheck(t *testing.T) {
	s := biddingState(1, 1, 1)
	c := Controls(s, 0)

	if len(c.Bids) != 4 {
		t.Fatalf("want 4 bid options, got %d", len(c.Bids))
	}
	for _, opt := range c.Bids {
		err := Check(s, Command{Type: CmdBid, Bid: opt.Value})
		if opt.Enabled != (err == nil) {
			t.Fatalf("bid %d: enabled=%v but Check err=%v", opt.Value, opt.Enabled, err)
		}
	}

	off := Controls(biddingState(1, 2, 0), 0)
	for _, opt := range off.Bids {
		if opt.Enabled {
			t.Fatalf("bid %d enabled off turn", opt.Value)
		}
	}
}

func TestControls_Phases(t *testing.T) {
	spectatorLobby := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers()[:2]}
	if c := Controls(spectatorLobby, 0); !c.CanJoin || c.CanChat {
		t.Fatalf("spectator in open lobby: %+v", c)
	}

	full := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers()}
	if c := Controls(full, 0); c.CanJoin {
		t.Fatalf("join offered for a full lobby")
	}

	seated := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers(), Seat: types.IntPtr(2)}
	if c := Controls(seated, 0); !c.CanStart || c.StartLabel != "Start Game" {
		t.Fatalf("lobby of three: %+v", c)
	}

	playing := Controls(playingState(0, 0), 2)
	if !playing.CanPlay || !playing.CanPass || !playing.CanClear {
		t.Fatalf("playing on turn: %+v", playing)
	}
	if c := Controls(playingState(0, 0), 0); c.CanPlay || c.CanClear || !c.CanPass {
		t.Fatalf("playing with empty selection: %+v", c)
	}
	if c := Controls(playingState(0, 1), 2); c.CanPlay || c.CanPass || !c.CanClear {
		t.Fatalf("playing off turn: %+v", c)
	}

	finished := playingState(0, 0)
	finished.Status = types.PhaseFinished
	if c := Controls(finished, 0); !c.CanStart || c.StartLabel != "Play Again" {
		t.Fatalf("finished: %+v", c)
	}
}

func TestTableCaption(t *testing.T) {
	cases := []struct {
		name     string
		state    func() types.LobbyState
		wantText string
		wantEmph string
	}{
		{
			name:     "waiting",
			state:    func() types.LobbyState { return types.LobbyState{Status: types.PhaseLobby, Players: threePlayers()[:1]} },
			wantText: "Waiting for players...",
		},
		{
			name:     "ready",
			state:    func() types.LobbyState { return types.LobbyState{Status: types.PhaseLobby, Players: threePlayers()} },
			wantText: "Ready to start.",
		},
		{
			name:     "no bid yet",
			state:    func() types.LobbyState { return biddingState(0, 0, 0) },
			wantText: "Bidding phase.",
			wantEmph: "Current bid: none",
		},
		{
			name:     "bid placed",
			state:    func() types.LobbyState { return biddingState(0, 0, 2) },
			wantText: "Bidding phase.",
			wantEmph: "Current bid: 2",
		},
		{
			name:     "new round",
			state:    func() types.LobbyState { return playingState(0, 0) },
			wantText: "New round",
		},
		{
			name: "someone played",
			state: func() types.LobbyState {
				s := playingState(0, 2)
				s.Game.LastSeat = 1
				s.Game.LastPlay = &types.LastPlay{Kind: "Straight", Cards: []int{4, 8, 12, 16, 20}}
				return s
			},
			wantText: "bo played",
			wantEmph: "Straight",
		},
		{
			name: "landlord wins",
			state: func() types.LobbyState {
				s := playingState(0, 0)
				s.Status = types.PhaseFinished
				s.Game.Winner = types.IntPtr(0)
				return s
			},
			wantText: "New round",
			wantEmph: "Landlord wins!",
		},
		{
			name: "peasants win",
			state: func() types.LobbyState {
				s := playingState(0, 0)
				s.Status = types.PhaseFinished
				s.Game.Winner = types.IntPtr(2)
				s.Game.LastSeat = 2
				s.Game.LastPlay = &types.LastPlay{Kind: "Single", Cards: []int{50}}
				return s
			},
			wantText: "cy played",
			wantEmph: "Peasants win!",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, emph := TableCaption(tc.state())
			if text != tc.wantText || emph != tc.wantEmph {
				t.Fatalf("got (%q, %q), want (%q, %q)", text, emph, tc.wantText, tc.wantEmph)
			}
		})
	}
}

func TestTurnNotice(t *testing.T) {
	if got := TurnNotice(biddingState(1, 1, 0)); got != "Your turn" {
		t.Fatalf("got %q", got)
	}
	if got := TurnNotice(playingState(1, 2)); got != "cy's turn" {
		t.Fatalf("got %q", got)
	}
	lobby := types.LobbyState{Status: types.PhaseLobby, Players: threePlayers()}
	if got := TurnNotice(lobby); got != "" {
		t.Fatalf("lobby notice %q", got)
	}
}

func TestSpeakerName(t *testing.T) {
	s := types.LobbyState{Players: threePlayers()}
	if got := SpeakerName(s, types.SystemSpeaker); got != "Game" {
		t.Fatalf("got %q", got)
	}
	if got := SpeakerName(s, 1); got != "bo" {
		t.Fatalf("got %q", got)
	}
	if got := SpeakerName(s, 5); got != "Seat 5" {
		t.Fatalf("got %q", got)
	}
}

func TestCardsLeftLabel(t *testing.T) {
	if label, low := CardsLeftLabel(1); label != "1 card" || !low {
		t.Fatalf("got %q %v", label, low)
	}
	if label, low := CardsLeftLabel(17); label != "17 cards" || low {
		t.Fatalf("got %q %v", label, low)
	}
	if label, low := CardsLeftLabel(0); label != "0 cards" || !low {
		t.Fatalf("got %q %v", label, low)
	}
}

func TestSeatRotation(t *testing.T) {
	s := types.LobbyState{Seat: types.IntPtr(2)}
	if got := RelativeSeat(s, 0); got != 2 {
		t.Fatalf("bottom seat: got %d", got)
	}
	if got := RelativeSeat(s, 1); got != 0 {
		t.Fatalf("right seat: got %d", got)
	}
	if got := RelativeSeat(types.LobbyState{}, 2); got != 2 {
		t.Fatalf("spectator: got %d", got)
	}
	if NextSeat(2) != 0 {
		t.Fatalf("NextSeat wraps")
	}
	for pos := range SeatCount {
		for _, seat := range []int{-1, -4, 5} {
			got := RelativeSeat(types.LobbyState{Seat: types.IntPtr(seat)}, pos)
			if got < 0 || got >= SeatCount {
				t.Fatalf("RelativeSeat(seat=%d, pos=%d) = %d, out of range", seat, pos, got)
			}
		}
	}

	g := &types.GameState{Turn: 0, Passes: 2}
	if !HasPassed(g, 2) || !HasPassed(g, 1) || HasPassed(g, 0) {
		t.Fatalf("two passes before seat 0")
	}
	g.Passes = 1
	if !HasPassed(g, 2) || HasPassed(g, 1) {
		t.Fatalf("one pass before seat 0")
	}
}
