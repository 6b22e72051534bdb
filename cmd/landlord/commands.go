package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DoyleJ11/landlord-client/internal/lobby"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

const helpText = `commands:
  pick N [N...]     toggle cards
  drag N M [M...]   hold N and sweep over M... (adds only)
  clear             clear the selection
  bid N             bid 1-3 (bid 0 or pass to pass)
  play | pass       play the selection | pass
  start             start the game / play again
  chat TEXT         send a chat message
  older             load older chat
  scroll H TOP VIS  report the chat pane position
  join | help | quit`

var errEmptyCommand = errors.New("type a command, or help")

type command struct {
	msgs  []lobby.Msg
	reply chan error
	pass  bool
	join  bool
	help  bool
	quit  bool
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errEmptyCommand
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	reply := make(chan error, 1)

	switch name {
	case "pick":
		cards, err := ints(args, 1)
		if err != nil {
			return command{}, fmt.Errorf("pick: %w", err)
		}
		var msgs []lobby.Msg
		for _, c := range cards {
			msgs = append(msgs, lobby.Pick{Card: c}, lobby.Release{})
		}
		return command{msgs: msgs}, nil

	case "drag":
		cards, err := ints(args, 2)
		if err != nil {
			return command{}, fmt.Errorf("drag: %w", err)
		}
		msgs := []lobby.Msg{lobby.Pick{Card: cards[0]}}
		for _, c := range cards[1:] {
			msgs = append(msgs, lobby.DragOver{Card: c})
		}
		return command{msgs: append(msgs, lobby.Release{})}, nil

	case "clear":
		return command{msgs: []lobby.Msg{lobby.ClearSelection{}}}, nil

	case "bid":
		v, err := ints(args, 1)
		if err != nil || len(v) != 1 {
			return command{}, errors.New("bid: want one number")
		}
		return command{msgs: []lobby.Msg{lobby.Bid{Value: v[0], Reply: reply}}, reply: reply}, nil

	case "play":
		return command{msgs: []lobby.Msg{lobby.Play{Reply: reply}}, reply: reply}, nil

	case "pass":
		return command{pass: true, reply: reply}, nil

	case "start", "again":
		return command{msgs: []lobby.Msg{lobby.Start{Reply: reply}}, reply: reply}, nil

	case "chat", "say":
		text := strings.TrimSpace(line[len(fields[0]):])
		return command{msgs: []lobby.Msg{lobby.SendChat{Text: text, Reply: reply}}, reply: reply}, nil

	case "older":
		return command{msgs: []lobby.Msg{lobby.SentinelVisible{Reply: reply}}, reply: reply}, nil

	case "scroll":
		v, err := ints(args, 3)
		if err != nil || len(v) != 3 {
			return command{}, errors.New("scroll: want HEIGHT TOP VISIBLE")
		}
		vp := types.Viewport{ScrollHeight: v[0], ScrollTop: v[1], ClientHeight: v[2]}
		return command{msgs: []lobby.Msg{lobby.ViewportChanged{Viewport: vp}}}, nil

	case "join":
		return command{join: true}, nil
	case "help", "?":
		return command{help: true}, nil
	case "quit", "exit":
		return command{quit: true}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", name)
}

func ints(args []string, minLen int) ([]int, error) {
	if len(args) < minLen {
		return nil, fmt.Errorf("want at least %d number(s)", minLen)
	}
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out = append(out, n)
	}
	return out, nil
}
