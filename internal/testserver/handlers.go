package testserver

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/landlord-client/internal/engine"
	"github.com/DoyleJ11/landlord-client/internal/httpapi"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	code := make([]byte, httpapi.CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Msg string `json:"msg"`
	}{Msg: msg})
}

func user(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad form")
		return
	}
	name := strings.TrimSpace(r.PostForm.Get("username"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "Username required")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: name, Path: "/"})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	name := user(r)
	if name == "" {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Username string `json:"username"`
	}{Username: name})
}

func (s *Server) createLobby(w http.ResponseWriter, r *http.Request) {
	name := user(r)
	if name == "" {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	var code string
	for {
		c, err := GenerateCode()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate code")
			return
		}
		s.mu.Lock()
		_, taken := s.lobbies[c]
		s.mu.Unlock()
		if !taken {
			code = c
			break
		}
		s.logger.Debug("collision on code, regenerating")
	}

	s.SetLobby(code, types.LobbyState{
		Status:  types.PhaseLobby,
		Players: []types.Player{{Name: name}},
	})
	s.Seat(code, name, 0, nil)
	writeJSON(w, http.StatusOK, struct {
		LobbyCode string `json:"lobbyCode"`
	}{LobbyCode: code})
}

// snapshot returns the lobby as name sees it. Caller holds s.mu.
func (lb *lobbyRecord) snapshot(name string) types.LobbyState {
	st := lb.state.Clone()
	if seat, ok := lb.seats[name]; ok {
		st.Seat = types.IntPtr(seat)
		st.Hand = append([]int{}, lb.hands[seat]...)
	}
	return st
}

func (s *Server) getLobby(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.mu.Lock()
	lb := s.lobbies[code]
	var st types.LobbyState
	if lb != nil {
		st = lb.snapshot(user(r))
	}
	s.mu.Unlock()

	if lb == nil {
		writeError(w, http.StatusNotFound, "Lobby not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) joinLobby(w http.ResponseWriter, r *http.Request) {
	name := user(r)
	if name == "" {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	defer s.mu.Unlock()
	lb := s.lobbies[code]
	switch {
	case lb == nil:
		writeError(w, http.StatusNotFound, "Lobby not found")
		return
	case lb.state.Status != types.PhaseLobby:
		writeError(w, http.StatusConflict, "Game already started")
		return
	}
	if _, ok := lb.seats[name]; ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	if len(lb.state.Players) >= engine.SeatCount {
		writeError(w, http.StatusConflict, "Lobby is full")
		return
	}
	lb.seats[name] = len(lb.state.Players)
	lb.state.Players = append(lb.state.Players, types.Player{Name: name})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Bad limit")
			return
		}
		limit = min(n, maxChatLimit)
	}
	var before *int64
	if v := r.URL.Query().Get("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Bad timestamp")
			return
		}
		before = &n
	}

	s.mu.Lock()
	lb := s.lobbies[code]
	if lb != nil {
		lb.fetch++
	}
	gate := s.chatGate
	s.mu.Unlock()

	if lb == nil {
		writeError(w, http.StatusNotFound, "Lobby not found")
		return
	}
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	end := len(lb.chat)
	if before != nil {
		end = 0
		for end < len(lb.chat) && lb.chat[end].Time < *before {
			end++
		}
	}
	start := max(0, end-limit)
	page := append([]types.ChatMessage{}, lb.chat[start:end]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) socket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	name := user(r)

	s.mu.Lock()
	_, ok := s.lobbies[code]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Lobby not found")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	s.mu.Lock()
	lb := s.lobbies[code]
	lb.conns[conn] = name
	lb.dials++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(lb.conns, conn)
		s.mu.Unlock()
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		msg, err := types.DecodeClientMsg(data)
		if err != nil {
			s.write(conn, types.ServerMsg{Type: types.ServerError, Error: "Bad message"})
			continue
		}

		rec := Received{Code: code, User: name, Msg: msg}
		s.mu.Lock()
		s.received = append(s.received, rec)
		s.mu.Unlock()
		select {
		case s.inbound <- rec:
		default:
		}

		if msg.Type == types.ClientChat {
			s.echoChat(code, name, msg.Text)
		}
	}
}

// echoChat records a chat line and broadcasts it like the real server does.
func (s *Server) echoChat(code, name, text string) {
	s.mu.Lock()
	lb := s.lobbies[code]
	seat, ok := lb.seats[name]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("chat from unseated user", zap.String("user", name))
		return
	}
	m := types.ChatMessage{Text: text, Speaker: seat, Time: s.nextTime()}
	lb.chat = append(lb.chat, m)
	s.mu.Unlock()

	s.Push(code, types.ServerMsg{Type: types.ServerChat, Chat: &m})
}
