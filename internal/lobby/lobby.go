package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/landlord-client/internal/chat"
	"github.com/DoyleJ11/landlord-client/internal/dispatch"
	"github.com/DoyleJ11/landlord-client/internal/engine"
	"github.com/DoyleJ11/landlord-client/internal/hand"
	"github.com/DoyleJ11/landlord-client/internal/state"
	internaltypes "github.com/DoyleJ11/landlord-client/internal/types"
	"github.com/DoyleJ11/landlord-client/internal/ws"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

// ConnectingNotice is flashed whenever the health poll finds the connection down.
const ConnectingNotice = "connecting..."

type Msg interface{ isLobbyMsg() }

// Selection gestures.
type Pick struct{ Card int }
type DragOver struct{ Card int }
type Release struct{}
type ClearSelection struct{}

// Actions. Reply, when set, receives the gating or send error (nil on success). It
// should be buffered; the loop never blocks on it.
type Bid struct {
	Value int
	Reply chan error
}
type Play struct{ Reply chan error }
type Pass struct{ Reply chan error }
type Start struct{ Reply chan error }
type SendChat struct {
	Text  string
	Reply chan error
}

// SentinelVisible asks for the next older chat page. Reply gets the load result:
// nil, chat.ErrNoMoreHistory, or the fetch error.
type SentinelVisible struct{ Reply chan error }

type ViewportChanged struct{ Viewport types.Viewport }

// RefreshSnapshot replaces the page-load snapshot, e.g. after joining.
type RefreshSnapshot struct{ State types.LobbyState }

type Watch struct {
	ClientID string
	Outbox   chan internaltypes.View // receives the current view, then one per change
}
type Unwatch struct{ ClientID string }

// GetView replies with the current view. Reply must be buffered; the view is dropped
// when the receiver is not ready.
type GetView struct {
	Reply chan internaltypes.View
}

type Shutdown struct{}

// Posted by helper goroutines, never by callers.
type frame struct {
	gen uint64
	msg types.ServerMsg
}
type historyPage struct {
	msgs  []types.ChatMessage
	err   error
	reply chan error
}
type clearNotice struct{ gen uint64 }

func (Pick) isLobbyMsg()            {}
func (DragOver) isLobbyMsg()        {}
func (Release) isLobbyMsg()         {}
func (ClearSelection) isLobbyMsg()  {}
func (Bid) isLobbyMsg()             {}
func (Play) isLobbyMsg()            {}
func (Pass) isLobbyMsg()            {}
func (Start) isLobbyMsg()           {}
func (SendChat) isLobbyMsg()        {}
func (SentinelVisible) isLobbyMsg() {}
func (ViewportChanged) isLobbyMsg() {}
func (RefreshSnapshot) isLobbyMsg() {}
func (Watch) isLobbyMsg()           {}
func (Unwatch) isLobbyMsg()         {}
func (GetView) isLobbyMsg()         {}
func (Shutdown) isLobbyMsg()        {}
func (frame) isLobbyMsg()           {}
func (historyPage) isLobbyMsg()     {}
func (clearNotice) isLobbyMsg()     {}

// Dialer opens the live channel for a lobby. *ws.Manager implements it.
type Dialer interface {
	Open(ctx context.Context, code string, onMessage func(types.ServerMsg)) *ws.Conn
}

// HistoryFetcher loads older chat pages. *httpapi.Client implements it.
type HistoryFetcher interface {
	ChatPage(ctx context.Context, code string, before *int64, limit int) ([]types.ChatMessage, error)
}

type Deps struct {
	Dialer       Dialer
	History      HistoryFetcher
	Logger       *zap.Logger
	PollInterval time.Duration
	ErrorTimeout time.Duration
	ChatPageSize int
}

// Lobby is one mounted lobby view. A single goroutine owns the state store, the chat
// history, the selection and the connection; everything else talks to it via Inbox.
type Lobby struct {
	code     string
	inbox    chan Msg
	deps     Deps
	logger   *zap.Logger
	state    *state.Store
	chat     *chat.History
	hand     *hand.Selection
	dispatch *dispatch.Dispatcher

	conn     *ws.Conn
	connGen  uint64
	connStop chan struct{}

	poll        *time.Ticker
	noticeTimer *time.Timer
	scrollSeq   int
	watchers    map[string]chan internaltypes.View

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLobby mounts a view from the page-load snapshot and newest chat page, opens the
// connection and starts the loop. Cancelling parent unmounts it.
func NewLobby(parent context.Context, code string, deps Deps, snapshot types.LobbyState, chatPage []types.ChatMessage) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger.Named("lobby").With(zap.String("lobby", code))

	l := &Lobby{
		code:     code,
		inbox:    make(chan Msg, 64),
		deps:     deps,
		logger:   logger,
		state:    state.New(snapshot),
		chat:     chat.New(chatPage, deps.ChatPageSize),
		hand:     hand.NewSelection(snapshot.Hand),
		dispatch: dispatch.New(deps.Logger),
		poll:     time.NewTicker(deps.PollInterval),
		watchers: make(map[string]chan internaltypes.View),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	if err := snapshot.Validate(); err != nil {
		logger.Warn("inconsistent snapshot", zap.Error(err))
	}

	l.connect()
	// Mount jumps the chat pane to the newest message, which ends the mounting phase.
	l.scrollSeq++
	l.chat.Mounted()

	go l.loop()
	return l
}

func (l *Lobby) Inbox() chan<- Msg     { return l.inbox }
func (l *Lobby) Code() string          { return l.code }
func (l *Lobby) Done() <-chan struct{} { return l.done }

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case <-l.poll.C:
			if l.checkHealth() {
				l.publish()
			}

		case m := <-l.inbox:
			if _, ok := m.(Shutdown); ok {
				l.shutdown()
				return
			}
			if l.handle(m) {
				l.publish()
			}
		}
	}
}

// handle applies one message and reports whether the view changed.
func (l *Lobby) handle(m Msg) bool {
	switch msg := m.(type) {
	case frame:
		if msg.gen != l.connGen {
			return false // from a superseded connection
		}
		return l.handleFrame(msg.msg)

	case clearNotice:
		return l.state.Expire(msg.gen)

	case historyPage:
		err := l.chat.CompleteLoadOlder(msg.msgs, msg.err)
		if msg.err != nil {
			l.logger.Warn("chat history fetch failed", zap.Error(msg.err))
		}
		reply(msg.reply, err)
		return true

	case Pick:
		l.hand.Pick(msg.Card)
		return true
	case DragOver:
		l.hand.DragOver(msg.Card)
		return true
	case Release:
		l.hand.Release()
		return true
	case ClearSelection:
		l.hand.Clear()
		return true

	case Bid:
		reply(msg.Reply, l.dispatch.Bid(l.ctx, l.sender(), l.state.Current(), msg.Value))
		return false
	case Play:
		reply(msg.Reply, l.dispatch.Play(l.ctx, l.sender(), l.state.Current(), l.hand.Sorted()))
		return false
	case Pass:
		reply(msg.Reply, l.dispatch.Pass(l.ctx, l.sender(), l.state.Current()))
		return false
	case Start:
		reply(msg.Reply, l.dispatch.Start(l.ctx, l.sender(), l.state.Current()))
		return false
	case SendChat:
		reply(msg.Reply, l.dispatch.Chat(l.ctx, l.sender(), l.state.Current(), msg.Text))
		return false

	case SentinelVisible:
		return l.loadOlder(msg.Reply)

	case ViewportChanged:
		l.chat.SetViewport(msg.Viewport)
		return false

	case RefreshSnapshot:
		prev := l.state.Current()
		l.state.ApplySnapshotRefresh(msg.State)
		l.afterStateChange(prev)
		return true

	case Watch:
		l.watchers[msg.ClientID] = msg.Outbox
		deliver(msg.Outbox, l.view())
		return false
	case Unwatch:
		delete(l.watchers, msg.ClientID)
		return false

	case GetView:
		select {
		case msg.Reply <- l.view():
		default:
			l.logger.Debug("view reply dropped, receiver not ready")
		}
		return false
	}
	return false
}

func (l *Lobby) handleFrame(m types.ServerMsg) bool {
	switch m.Type {
	case types.ServerState:
		if err := m.State.Validate(); err != nil {
			l.logger.Warn("inconsistent state push", zap.Error(err))
		}
		prev := l.state.Current()
		l.state.ApplyPush(*m.State)
		l.afterStateChange(prev)
		return true

	case types.ServerError:
		l.flash(m.Error)
		return true

	case types.ServerChat:
		if !l.chat.AppendLive(*m.Chat) {
			return false
		}
		if l.chat.ShouldFollow() {
			l.scrollSeq++
		}
		return true
	}
	return false
}

// afterStateChange reconciles the selection with the new hand and reconnects when the
// viewer's seat changed, so the server rebinds the stream to the new identity.
func (l *Lobby) afterStateChange(prev types.LobbyState) {
	cur := l.state.Current()
	l.hand.Sync(cur.Hand)

	prevSeat, prevOK := prev.Seated()
	seat, ok := cur.Seated()
	if prevOK != ok || prevSeat != seat {
		l.logger.Debug("seat changed, reconnecting")
		l.reconnect()
	}
}

func (l *Lobby) loadOlder(replyTo chan error) bool {
	before, hasBefore, ok := l.chat.BeginLoadOlder()
	if !ok {
		if !l.chat.HasMore() {
			reply(replyTo, chat.ErrNoMoreHistory)
		} else {
			reply(replyTo, nil) // a load is already running
		}
		return false
	}

	var beforePtr *int64
	if hasBefore {
		beforePtr = &before
	}
	limit := 0
	if l.deps.ChatPageSize != chat.DefaultPageSize {
		limit = l.deps.ChatPageSize
	}
	go func() {
		msgs, err := l.deps.History.ChatPage(l.ctx, l.code, beforePtr, limit)
		l.post(historyPage{msgs: msgs, err: err, reply: replyTo})
	}()
	return true
}

// checkHealth runs on every poll tick. A connection that is not open, whether still
// dialing or dropped, is replaced.
func (l *Lobby) checkHealth() bool {
	if l.conn != nil && l.conn.State() == ws.Open {
		return false
	}
	l.flash(ConnectingNotice)
	l.reconnect()
	return true
}

func (l *Lobby) flash(text string) {
	gen := l.state.Flash(text)
	if l.noticeTimer != nil {
		l.noticeTimer.Stop()
	}
	l.noticeTimer = time.AfterFunc(l.deps.ErrorTimeout, func() {
		l.post(clearNotice{gen: gen})
	})
}

func (l *Lobby) connect() {
	l.connGen++
	gen := l.connGen
	stop := make(chan struct{})
	l.connStop = stop
	l.conn = l.deps.Dialer.Open(l.ctx, l.code, func(m types.ServerMsg) {
		select {
		case l.inbox <- frame{gen: gen, msg: m}:
		case <-stop:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) disconnect() {
	if l.conn == nil {
		return
	}
	close(l.connStop)
	if err := l.conn.Close(); err != nil {
		l.logger.Debug("close connection", zap.String("conn", l.conn.ID()), zap.Error(err))
	}
	l.conn = nil
}

func (l *Lobby) reconnect() {
	l.disconnect()
	l.connect()
	l.poll.Reset(l.deps.PollInterval)
}

// sender returns the live connection, or an untyped nil when there is none.
func (l *Lobby) sender() dispatch.Sender {
	if l.conn == nil {
		return nil
	}
	return l.conn
}

func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) view() internaltypes.View {
	cur := l.state.Current()
	selected := l.hand.Sorted()
	connState := ws.Closed
	if l.conn != nil {
		connState = l.conn.State()
	}
	return internaltypes.View{
		Code:                l.code,
		State:               cur.Clone(),
		Selected:            selected,
		Messages:            l.chat.Messages(),
		HasMore:             l.chat.HasMore(),
		Loading:             l.chat.Loading(),
		Connection:          connState.String(),
		Notification:        l.state.Notification(),
		PhaseLabel:          l.state.PhaseLabel(),
		LastPlayDescription: l.state.LastPlayDescription(),
		IsViewerTurn:        l.state.IsViewerTurn(),
		Controls:            engine.Controls(cur, len(selected)),
		ScrollSeq:           l.scrollSeq,
	}
}

func (l *Lobby) publish() {
	if len(l.watchers) == 0 {
		return
	}
	v := l.view()
	for _, ch := range l.watchers {
		deliver(ch, v)
	}
}

func (l *Lobby) shutdown() {
	l.poll.Stop()
	if l.noticeTimer != nil {
		l.noticeTimer.Stop()
	}
	l.disconnect()
	l.cancel()
	for id, ch := range l.watchers {
		close(ch) // no more views
		delete(l.watchers, id)
	}
}

// deliver never blocks: a watcher that has not taken its last view gets it replaced.
func deliver(ch chan internaltypes.View, v internaltypes.View) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func reply(ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}
