package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Server -> Client (exactly one key per frame)
//   {"Chat":  {text, idx, time}}
//   {"State": LobbyState}
//   {"Error": "message"}
//
// Client -> Server (exactly one key per frame)
//   {"Chat":  "text"}
//   {"Start": null}
//   {"Bid":   0..3}
//   {"Play":  [card, ...]}   empty list is a pass

var ErrUnknownTag = errors.New("unknown message tag")
var ErrBadEnvelope = errors.New("envelope must carry exactly one tag")

type ServerMsgType string

const (
	ServerChat  ServerMsgType = "Chat"
	ServerState ServerMsgType = "State"
	ServerError ServerMsgType = "Error"
)

// ServerMsg is a decoded inbound frame. Only the field matching Type is set.
type ServerMsg struct {
	Type  ServerMsgType
	Chat  *ChatMessage
	State *LobbyState
	Error string
}

// DecodeServerMsg parses a tagged-union frame. Tags this client does not know about
// yield ErrUnknownTag so callers can skip them.
func DecodeServerMsg(data []byte) (ServerMsg, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return ServerMsg{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env) != 1 {
		return ServerMsg{}, fmt.Errorf("%w: got %d", ErrBadEnvelope, len(env))
	}

	for tag, raw := range env {
		switch ServerMsgType(tag) {
		case ServerChat:
			var m ChatMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				return ServerMsg{}, fmt.Errorf("decode Chat: %w", err)
			}
			return ServerMsg{Type: ServerChat, Chat: &m}, nil
		case ServerState:
			var s LobbyState
			if err := json.Unmarshal(raw, &s); err != nil {
				return ServerMsg{}, fmt.Errorf("decode State: %w", err)
			}
			return ServerMsg{Type: ServerState, State: &s}, nil
		case ServerError:
			var e string
			if err := json.Unmarshal(raw, &e); err != nil {
				return ServerMsg{}, fmt.Errorf("decode Error: %w", err)
			}
			return ServerMsg{Type: ServerError, Error: e}, nil
		default:
			return ServerMsg{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
		}
	}
	return ServerMsg{}, ErrBadEnvelope // unreachable
}

// MarshalJSON encodes the frame the way the server sends it. Used by the test server.
func (m ServerMsg) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case ServerChat:
		return json.Marshal(map[string]any{string(ServerChat): m.Chat})
	case ServerState:
		return json.Marshal(map[string]any{string(ServerState): m.State})
	case ServerError:
		return json.Marshal(map[string]any{string(ServerError): m.Error})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, m.Type)
	}
}

type ClientMsgType string

const (
	ClientChat  ClientMsgType = "Chat"
	ClientStart ClientMsgType = "Start"
	ClientBid   ClientMsgType = "Bid"
	ClientPlay  ClientMsgType = "Play"
)

// ClientMsg is an outbound frame.
type ClientMsg struct {
	Type  ClientMsgType
	Text  string
	Bid   int
	Cards []int
}

func ChatMsg(text string) ClientMsg { return ClientMsg{Type: ClientChat, Text: text} }
func StartMsg() ClientMsg           { return ClientMsg{Type: ClientStart} }
func BidMsg(value int) ClientMsg    { return ClientMsg{Type: ClientBid, Bid: value} }
func PlayMsg(cards []int) ClientMsg { return ClientMsg{Type: ClientPlay, Cards: cards} }

func (m ClientMsg) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case ClientChat:
		return json.Marshal(map[string]string{string(ClientChat): m.Text})
	case ClientStart:
		return []byte(`{"Start":null}`), nil
	case ClientBid:
		return json.Marshal(map[string]int{string(ClientBid): m.Bid})
	case ClientPlay:
		cards := m.Cards
		if cards == nil {
			cards = []int{}
		}
		return json.Marshal(map[string][]int{string(ClientPlay): cards})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, m.Type)
	}
}

// DecodeClientMsg is the server-side view of an outbound frame. Used by the test server.
func DecodeClientMsg(data []byte) (ClientMsg, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientMsg{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env) != 1 {
		return ClientMsg{}, fmt.Errorf("%w: got %d", ErrBadEnvelope, len(env))
	}

	for tag, raw := range env {
		m := ClientMsg{Type: ClientMsgType(tag)}
		var err error
		switch m.Type {
		case ClientChat:
			err = json.Unmarshal(raw, &m.Text)
		case ClientStart:
			if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				err = errors.New("Start takes no payload")
			}
		case ClientBid:
			err = json.Unmarshal(raw, &m.Bid)
		case ClientPlay:
			err = json.Unmarshal(raw, &m.Cards)
		default:
			return ClientMsg{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
		}
		if err != nil {
			return ClientMsg{}, fmt.Errorf("decode %s: %w", tag, err)
		}
		return m, nil
	}
	return ClientMsg{}, ErrBadEnvelope // unreachable
}
