package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeServerMsg(t *testing.T) {
	cases := []struct {
		name    string
		frame   string
		want    ServerMsgType
		wantErr error
	}{
		{name: "chat", frame: `{"Chat":{"text":"hi","idx":1,"time":42}}`, want: ServerChat},
		{name: "state", frame: `{"State":{"status":"Lobby","players":[{"name":"a","score":0}],"idx":0}}`, want: ServerState},
		{name: "error", frame: `{"Error":"bid too low"}`, want: ServerError},
		{name: "unknown tag", frame: `{"Emote":"wave"}`, wantErr: ErrUnknownTag},
		{name: "two tags", frame: `{"Error":"a","Chat":{"text":"b","idx":0,"time":1}}`, wantErr: ErrBadEnvelope},
		{name: "empty", frame: `{}`, wantErr: ErrBadEnvelope},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := DecodeServerMsg([]byte(tc.frame))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, msg.Type)
		})
	}
}

func TestDecodeServerMsg_InvalidJSON(t *testing.T) {
	_, err := DecodeServerMsg([]byte(`{"State":`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownTag))
}

func TestDecodeServerMsg_StateFields(t *testing.T) {
	frame := `{"State":{"status":"Playing","players":[{"name":"a","score":2},{"name":"b","score":-1},{"name":"c","score":0}],
		"idx":1,"hand":[3,7,9],
		"game":{"turn":1,"bid":2,"mult":4,"passes":1,"cards_left":[5,3,17],"last_idx":0,
		"last_play":{"kind":"Pair","cards":[12,13]},"landlord":0,"bonus":[1,2,3]}}}`

	msg, err := DecodeServerMsg([]byte(frame))
	require.NoError(t, err)
	s := msg.State
	require.NotNil(t, s)

	seat, ok := s.Seated()
	require.True(t, ok)
	assert.Equal(t, 1, seat)
	assert.Equal(t, PhasePlaying, s.Status)
	assert.Equal(t, []int{3, 7, 9}, s.Hand)
	require.NotNil(t, s.Game)
	assert.Equal(t, 4, s.Game.Multiplier)
	assert.Equal(t, []int{5, 3, 17}, s.Game.CardsLeft)
	assert.Equal(t, "Pair", s.Game.LastPlay.Kind)
	assert.Equal(t, 0, *s.Game.Landlord)
	assert.Nil(t, s.Game.Winner)
	assert.NoError(t, s.Validate())
}

func TestClientMsg_MarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		msg  ClientMsg
		want string
	}{
		{name: "chat", msg: ChatMsg("gg"), want: `{"Chat":"gg"}`},
		{name: "start", msg: StartMsg(), want: `{"Start":null}`},
		{name: "bid", msg: BidMsg(2), want: `{"Bid":2}`},
		{name: "pass bid", msg: BidMsg(0), want: `{"Bid":0}`},
		{name: "play", msg: PlayMsg([]int{4, 8}), want: `{"Play":[4,8]}`},
		{name: "pass play", msg: PlayMsg(nil), want: `{"Play":[]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))

			back, err := DecodeClientMsg(data)
			require.NoError(t, err)
			assert.Equal(t, tc.msg.Type, back.Type)
		})
	}
}

func TestLobbyState_Validate(t *testing.T) {
	players := []Player{{Name: "a"}, {Name: "b"}}

	assert.NoError(t, LobbyState{Status: PhaseLobby, Players: players}.Validate())
	assert.ErrorIs(t, LobbyState{Status: PhaseBidding, Players: players}.Validate(), ErrGameMismatch)
	assert.ErrorIs(t, LobbyState{Status: PhaseLobby, Players: players, Game: &GameState{}}.Validate(), ErrGameMismatch)
	assert.ErrorIs(t, LobbyState{Status: PhaseLobby, Players: players, Seat: IntPtr(2)}.Validate(), ErrSeatOutOfRange)
}

func TestLobbyState_CloneDoesNotAlias(t *testing.T) {
	s := LobbyState{
		Status:  PhasePlaying,
		Players: []Player{{Name: "a"}},
		Seat:    IntPtr(0),
		Hand:    []int{1, 2},
		Game:    &GameState{CardsLeft: []int{2}, LastPlay: &LastPlay{Kind: "Single", Cards: []int{5}}},
	}
	c := s.Clone()
	c.Hand[0] = 99
	c.Players[0].Name = "z"
	c.Game.LastPlay.Cards[0] = 77
	*c.Seat = 3

	assert.Equal(t, 1, s.Hand[0])
	assert.Equal(t, "a", s.Players[0].Name)
	assert.Equal(t, 5, s.Game.LastPlay.Cards[0])
	assert.Equal(t, 0, *s.Seat)
}
