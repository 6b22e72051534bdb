package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/landlord-client/internal/engine"
	"github.com/DoyleJ11/landlord-client/internal/ws"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

// Sender puts one outbound frame on the wire. *ws.Conn implements it.
type Sender interface {
	Send(ctx context.Context, msg types.ClientMsg) error
}

// Dispatcher turns user actions into outbound frames. Every action is gated on the
// current authoritative state first; a rejected action never reaches the Sender. It never
// touches game state: the server's next push is the only way an action takes effect.
type Dispatcher struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger.Named("dispatch")}
}

func (d *Dispatcher) Bid(ctx context.Context, conn Sender, s types.LobbyState, value int) error {
	if err := engine.Check(s, engine.Command{Type: engine.CmdBid, Bid: value}); err != nil {
		return err
	}
	return d.send(ctx, conn, types.BidMsg(value))
}

// Play submits the selected cards in ascending order. The selection is left as is.
func (d *Dispatcher) Play(ctx context.Context, conn Sender, s types.LobbyState, selected []int) error {
	if err := engine.CheckPlaySelection(s, selected); err != nil {
		return err
	}
	return d.send(ctx, conn, types.PlayMsg(selected))
}

// Pass is an empty Play.
func (d *Dispatcher) Pass(ctx context.Context, conn Sender, s types.LobbyState) error {
	if err := engine.Check(s, engine.Command{Type: engine.CmdPlay}); err != nil {
		return err
	}
	return d.send(ctx, conn, types.PlayMsg(nil))
}

// Start begins a game from the lobby, or a new one once the last has finished.
func (d *Dispatcher) Start(ctx context.Context, conn Sender, s types.LobbyState) error {
	if err := engine.Check(s, engine.Command{Type: engine.CmdStart}); err != nil {
		return err
	}
	return d.send(ctx, conn, types.StartMsg())
}

func (d *Dispatcher) Chat(ctx context.Context, conn Sender, s types.LobbyState, text string) error {
	text = NormalizeChat(text)
	if err := engine.Check(s, engine.Command{Type: engine.CmdChat, Text: text}); err != nil {
		return err
	}
	return d.send(ctx, conn, types.ChatMsg(text))
}

// NormalizeChat trims surrounding whitespace and composes the text to NFC.
func NormalizeChat(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

func (d *Dispatcher) send(ctx context.Context, conn Sender, msg types.ClientMsg) error {
	if conn == nil {
		return ws.ErrNotOpen
	}
	if err := conn.Send(ctx, msg); err != nil {
		d.logger.Info("send failed", zap.String("type", string(msg.Type)), zap.Error(err))
		return err
	}
	d.logger.Debug("sent", zap.String("type", string(msg.Type)))
	return nil
}
