package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DoyleJ11/landlord-client/internal/engine"
	internaltypes "github.com/DoyleJ11/landlord-client/internal/types"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

const chatLines = 6

func render(w io.Writer, v internaltypes.View) {
	var b strings.Builder
	s := v.State

	fmt.Fprintf(&b, "\n=== %s | %s | %s ===\n", v.Code, v.PhaseLabel, v.Connection)
	if v.Notification != "" {
		fmt.Fprintf(&b, "> %s\n", v.Notification)
	}

	// Table, starting from the viewer's seat.
	viewer, seated := s.Seated()
	for pos := range engine.SeatCount {
		seat := engine.RelativeSeat(s, pos)
		if seat < 0 || seat >= len(s.Players) {
			continue
		}
		b.WriteString("  " + seatLine(s, seat))
		if seated && seat == viewer {
			b.WriteString(" (you)")
		}
		b.WriteByte('\n')
	}
	if g := s.Game; g != nil && len(g.Bonus) > 0 {
		fmt.Fprintf(&b, "  bonus: %s\n", cardList(g.Bonus, nil))
	}
	if v.LastPlayDescription != "" {
		fmt.Fprintf(&b, "  %s\n", v.LastPlayDescription)
	}
	if g := s.Game; g != nil && g.LastPlay != nil && len(g.LastPlay.Cards) > 0 {
		fmt.Fprintf(&b, "  on table: %s\n", cardList(g.LastPlay.Cards, nil))
	}

	if len(s.Hand) > 0 {
		selected := make(map[int]bool, len(v.Selected))
		for _, c := range v.Selected {
			selected[c] = true
		}
		fmt.Fprintf(&b, "hand: %s\n", cardList(s.Hand, selected))
	}
	if actions := controlList(v.Controls); actions != "" {
		fmt.Fprintf(&b, "you can: %s\n", actions)
	}

	msgs := v.Messages
	if len(msgs) > chatLines {
		msgs = msgs[len(msgs)-chatLines:]
	}
	if v.HasMore {
		b.WriteString("  (older chat: type older)\n")
	}
	for _, m := range msgs {
		fmt.Fprintf(&b, "  %s: %s\n", engine.SpeakerName(s, m.Speaker), m.Text)
	}

	_, _ = io.WriteString(w, b.String())
}

func seatLine(s types.LobbyState, seat int) string {
	p := s.Players[seat]
	line := fmt.Sprintf("%-12s %4d pts", p.Name, p.Score)
	g := s.Game
	if g == nil {
		return line
	}
	if seat < len(g.CardsLeft) {
		label, low := engine.CardsLeftLabel(g.CardsLeft[seat])
		line += "  " + label
		if low {
			line += "!"
		}
	}
	if g.Landlord != nil && *g.Landlord == seat {
		line += "  [landlord]"
	}
	switch {
	case s.Status == types.PhaseFinished:
		if g.Winner != nil && *g.Winner == seat {
			line += "  winner"
		}
	case g.Turn == seat:
		line += "  <- turn"
	case s.Status == types.PhasePlaying && engine.HasPassed(g, seat):
		line += "  passed"
	case engine.NextSeat(g.Turn) == seat:
		line += "  next"
	}
	return line
}

func cardList(cards []int, selected map[int]bool) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = strconv.Itoa(c)
		if selected[c] {
			parts[i] = "[" + parts[i] + "]"
		}
	}
	return strings.Join(parts, " ")
}

func controlList(c internaltypes.Controls) string {
	var out []string
	if c.CanJoin {
		out = append(out, "join")
	}
	if c.CanStart {
		out = append(out, "start ("+c.StartLabel+")")
	}
	for _, bid := range c.Bids {
		if bid.Enabled {
			out = append(out, "bid "+strconv.Itoa(bid.Value))
		}
	}
	if c.CanPlay {
		out = append(out, "play")
	}
	if c.CanPass {
		out = append(out, "pass")
	}
	if c.CanClear {
		out = append(out, "clear")
	}
	if c.CanChat {
		out = append(out, "chat")
	}
	return strings.Join(out, ", ")
}
