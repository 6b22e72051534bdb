package httpapi

import (
	"errors"
	"strings"
)

var ErrInvalidCode = errors.New("lobby code must be 4 letters")

// Route patterns, shared by the client and the test server (chi syntax).
const (
	RouteLogin  = "/api/login"
	RouteLogout = "/api/logout"
	RouteMe     = "/api/me"
	RouteCreate = "/api/create"
	RouteLobby  = "/api/lobby/{code}"
	RouteJoin   = "/api/lobby/{code}/join"
	RouteChat   = "/api/lobby/{code}/chat"
	RouteWS     = "/api/lobby/{code}/ws"
)

const CodeLength = 4

func LobbyPath(code string) string { return "/api/lobby/" + code }
func JoinPath(code string) string  { return LobbyPath(code) + "/join" }
func ChatPath(code string) string  { return LobbyPath(code) + "/chat" }
func WSPath(code string) string    { return LobbyPath(code) + "/ws" }

// NormalizeCode trims and upper-cases a typed lobby code and checks it is 4 letters.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != CodeLength {
		return "", ErrInvalidCode
	}
	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}
