// Package testserver is an in-memory lobby server speaking the same REST and websocket
// protocol as the real backend. Tests drive it directly: set snapshots, push frames,
// drop connections, and inspect what clients sent.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/landlord-client/internal/httpapi"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

const (
	sessionCookie = "session"
	maxChatLimit  = 250
	writeTimeout  = 3 * time.Second
)

// Received is one frame a client sent over its websocket.
type Received struct {
	Code string
	User string
	Msg  types.ClientMsg
}

type lobbyRecord struct {
	state types.LobbyState // shared view: Seat and Hand are filled per viewer
	seats map[string]int
	hands map[int][]int
	chat  []types.ChatMessage
	conns map[*websocket.Conn]string
	fetch int
	dials int
}

type Server struct {
	mu       sync.Mutex
	lobbies  map[string]*lobbyRecord
	received []Received
	inbound  chan Received
	chatGate chan struct{}
	clock    int64

	logger *zap.Logger
	srv    *httptest.Server
}

func New(logger *zap.Logger) *Server {
	s := &Server{
		lobbies: make(map[string]*lobbyRecord),
		inbound: make(chan Received, 64),
		clock:   time.Now().UnixMilli(),
		logger:  logger.Named("testserver"),
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Post(httpapi.RouteLogin, s.login)
	r.Post(httpapi.RouteLogout, s.logout)
	r.Get(httpapi.RouteMe, s.me)
	r.Post(httpapi.RouteCreate, s.createLobby)
	r.Get(httpapi.RouteLobby, s.getLobby)
	r.Post(httpapi.RouteJoin, s.joinLobby)
	r.Get(httpapi.RouteChat, s.getChat)
	r.Get(httpapi.RouteWS, s.socket)
	return r
}

func (s *Server) URL() string { return s.srv.URL }

// Close drops every websocket and stops the HTTP server.
func (s *Server) Close() {
	s.mu.Lock()
	for _, lb := range s.lobbies {
		for c := range lb.conns {
			c.CloseNow()
		}
	}
	s.mu.Unlock()
	s.srv.Close()
}

// SetLobby creates or replaces a lobby. Seat and Hand on state are ignored; use Seat to
// place users.
func (s *Server) SetLobby(code string, state types.LobbyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb := s.lobbies[code]
	if lb == nil {
		lb = &lobbyRecord{
			seats: make(map[string]int),
			hands: make(map[int][]int),
			conns: make(map[*websocket.Conn]string),
		}
		s.lobbies[code] = lb
	}
	state.Seat = nil
	state.Hand = nil
	lb.state = state.Clone()
}

// Seat places user at seat with the given hand.
func (s *Server) Seat(code, user string, seat int, hand []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb := s.lobbies[code]; lb != nil {
		lb.seats[user] = seat
		lb.hands[seat] = append([]int(nil), hand...)
	}
}

// AddChat appends history messages. They must be newer than what is already there.
func (s *Server) AddChat(code string, msgs ...types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb := s.lobbies[code]; lb != nil {
		lb.chat = append(lb.chat, msgs...)
	}
}

func (s *Server) ChatFetches(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb := s.lobbies[code]; lb != nil {
		return lb.fetch
	}
	return 0
}

// BlockChat makes chat requests hang until the returned release func is called.
func (s *Server) BlockChat() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.chatGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.chatGate == gate {
				s.chatGate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Connections reports how many websockets are attached to the lobby.
func (s *Server) Connections(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb := s.lobbies[code]; lb != nil {
		return len(lb.conns)
	}
	return 0
}

// Accepted reports how many websockets the lobby has accepted in total.
func (s *Server) Accepted(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb := s.lobbies[code]; lb != nil {
		return lb.dials
	}
	return 0
}

// Push writes msg to every websocket attached to the lobby.
func (s *Server) Push(code string, msg types.ServerMsg) {
	s.mu.Lock()
	var conns []*websocket.Conn
	if lb := s.lobbies[code]; lb != nil {
		for c := range lb.conns {
			conns = append(conns, c)
		}
	}
	s.mu.Unlock()

	for _, c := range conns {
		s.write(c, msg)
	}
}

// DropConnections severs every websocket of the lobby without a close handshake.
func (s *Server) DropConnections(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb := s.lobbies[code]; lb != nil {
		for c := range lb.conns {
			c.CloseNow()
			delete(lb.conns, c)
		}
	}
}

// Inbound delivers client frames as they arrive. Frames are dropped when nobody reads.
func (s *Server) Inbound() <-chan Received { return s.inbound }

func (s *Server) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Received(nil), s.received...)
}

func (s *Server) write(c *websocket.Conn, msg types.ServerMsg) {
	payload, err := msg.MarshalJSON()
	if err != nil {
		s.logger.Warn("marshal push", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, payload); err != nil {
		s.logger.Debug("push failed", zap.Error(err))
	}
}

// nextTime hands out strictly increasing chat timestamps.
func (s *Server) nextTime() int64 {
	now := time.Now().UnixMilli()
	if now <= s.clock {
		now = s.clock + 1
	}
	s.clock = now
	return now
}
