package hub

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/landlord-client/internal/chat"
	"github.com/DoyleJ11/landlord-client/internal/httpapi"
	"github.com/DoyleJ11/landlord-client/internal/lobby"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

type HubMsg interface{ isHubMsg() }

// Mount loads a lobby (snapshot and newest chat page) and starts its view. Mounting a
// code that is already mounted, or still loading, yields the same view. Reply channels
// on hub messages must be buffered.
type Mount struct {
	Code  string
	Reply chan MountResult
}

type MountResult struct {
	Lobby *lobby.Lobby
	Err   error
}

// Join takes a seat over HTTP, then refreshes the mounted view from a new snapshot.
type Join struct {
	Code  string
	Reply chan error
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type Unmount struct {
	Code string
}

type ShutdownHub struct{}

// Posted by helper goroutines.
type loaded struct {
	code     string
	snapshot types.LobbyState
	page     []types.ChatMessage
	err      error
}

type joined struct {
	code     string
	snapshot types.LobbyState
	err      error
	reply    chan error
}

func (Mount) isHubMsg()       {}
func (Join) isHubMsg()        {}
func (GetLobby) isHubMsg()    {}
func (Unmount) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}
func (loaded) isHubMsg()      {}
func (joined) isHubMsg()      {}

// API is the slice of the REST client the hub needs. *httpapi.Client implements it.
type API interface {
	Lobby(ctx context.Context, code string) (types.LobbyState, error)
	ChatPage(ctx context.Context, code string, before *int64, limit int) ([]types.ChatMessage, error)
	Join(ctx context.Context, code string) error
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	pending map[string][]chan MountResult
	api     API
	deps    lobby.Deps
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, api API, deps lobby.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		pending: make(map[string][]chan MountResult),
		api:     api,
		deps:    deps,
		logger:  deps.Logger.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub and every lobby it mounted have stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Mount:
				code, err := httpapi.NormalizeCode(msg.Code)
				if err != nil {
					msg.Reply <- MountResult{Err: err}
					break
				}
				if lb := h.lobbies[code]; lb != nil {
					msg.Reply <- MountResult{Lobby: lb}
					break
				}
				waiters, loading := h.pending[code]
				h.pending[code] = append(waiters, msg.Reply)
				if !loading {
					go h.load(code)
				}

			case loaded:
				waiters := h.pending[msg.code]
				delete(h.pending, msg.code)
				if msg.err != nil {
					h.logger.Info("mount failed", zap.String("lobby", msg.code), zap.Error(msg.err))
					for _, w := range waiters {
						w <- MountResult{Err: msg.err}
					}
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.code, h.deps, msg.snapshot, msg.page)
				h.lobbies[msg.code] = lb
				for _, w := range waiters {
					w <- MountResult{Lobby: lb}
				}

			case Join:
				code, err := httpapi.NormalizeCode(msg.Code)
				if err != nil {
					msg.Reply <- err
					break
				}
				go h.join(code, msg.Reply)

			case joined:
				if msg.err != nil {
					msg.reply <- msg.err
					break
				}
				if lb := h.lobbies[msg.code]; lb != nil {
					send(lb, lobby.RefreshSnapshot{State: msg.snapshot})
				}
				msg.reply <- nil

			case GetLobby:
				msg.Reply <- h.lobbies[canonical(msg.Code)] // May be nil

			case Unmount:
				code := canonical(msg.Code)
				if lb := h.lobbies[code]; lb != nil {
					delete(h.lobbies, code)
					send(lb, lobby.Shutdown{})
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// load fetches the snapshot and the newest chat page concurrently.
func (h *Hub) load(code string) {
	var (
		snapshot types.LobbyState
		page     []types.ChatMessage
	)
	g, ctx := errgroup.WithContext(h.ctx)
	g.Go(func() error {
		var err error
		snapshot, err = h.api.Lobby(ctx, code)
		return err
	})
	g.Go(func() error {
		limit := 0
		if h.deps.ChatPageSize != chat.DefaultPageSize {
			limit = h.deps.ChatPageSize
		}
		var err error
		page, err = h.api.ChatPage(ctx, code, nil, limit)
		return err
	})
	err := g.Wait()
	h.post(loaded{code: code, snapshot: snapshot, page: page, err: err})
}

func (h *Hub) join(code string, reply chan error) {
	if err := h.api.Join(h.ctx, code); err != nil {
		h.post(joined{code: code, err: err, reply: reply})
		return
	}
	snapshot, err := h.api.Lobby(h.ctx, code)
	h.post(joined{code: code, snapshot: snapshot, err: err, reply: reply})
}

func (h *Hub) post(m HubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		send(lb, lobby.Shutdown{})
	}
	for code, lb := range h.lobbies {
		<-lb.Done()
		delete(h.lobbies, code)
	}
	for code, waiters := range h.pending {
		for _, w := range waiters {
			w <- MountResult{Err: context.Canceled}
		}
		delete(h.pending, code)
	}
	h.cancel()
}

// canonical is the registry key for code. Invalid codes never match a mounted lobby.
func canonical(code string) string {
	if c, err := httpapi.NormalizeCode(code); err == nil {
		return c
	}
	return code
}

// send delivers to a lobby unless it has already stopped.
func send(lb *lobby.Lobby, m lobby.Msg) {
	select {
	case lb.Inbox() <- m:
	case <-lb.Done():
	}
}
