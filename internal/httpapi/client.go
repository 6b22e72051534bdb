package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/landlord-client/pkg/types"
)

var ErrEmptyUsername = errors.New("username cannot be empty")

// Client talks to the lobby REST endpoints. It keeps the session cookie in a jar so the
// websocket handshake made with HTTPClient() carries the same identity.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url scheme %q: want http or https", base.Scheme)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: base,
		// No Timeout: requests are bounded by their context, and the websocket dialer
		// refuses clients with one.
		http:   &http.Client{Jar: jar},
		logger: logger.Named("httpapi"),
	}, nil
}

func (c *Client) BaseURL() *url.URL        { return c.base }
func (c *Client) HTTPClient() *http.Client { return c.http }

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := handleResponse(resp, out); err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// Lobby fetches the lobby snapshot personalised for the session cookie.
func (c *Client) Lobby(ctx context.Context, code string) (types.LobbyState, error) {
	var s types.LobbyState
	err := c.do(ctx, http.MethodGet, LobbyPath(code), nil, nil, "", &s)
	return s, err
}

// ChatPage fetches up to limit messages strictly older than before (the newest page when
// before is nil), ordered oldest to newest. limit <= 0 uses the server default.
func (c *Client) ChatPage(ctx context.Context, code string, before *int64, limit int) ([]types.ChatMessage, error) {
	q := url.Values{}
	if before != nil {
		q.Set("before", strconv.FormatInt(*before, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var msgs []types.ChatMessage
	err := c.do(ctx, http.MethodGet, ChatPath(code), q, nil, "", &msgs)
	return msgs, err
}

func (c *Client) Join(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, JoinPath(code), nil, nil, "", nil)
}

// Create opens a new lobby with the current user seated and returns its code.
func (c *Client) Create(ctx context.Context) (string, error) {
	var out struct {
		LobbyCode string `json:"lobbyCode"`
	}
	if err := c.do(ctx, http.MethodPost, RouteCreate, nil, nil, "", &out); err != nil {
		return "", err
	}
	return out.LobbyCode, nil
}

func (c *Client) Login(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	form := url.Values{"username": {username}}
	return c.do(ctx, http.MethodPost, RouteLogin, nil, strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, RouteLogout, nil, nil, "", nil)
}

// Me returns the logged-in username.
func (c *Client) Me(ctx context.Context) (string, error) {
	var out struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, RouteMe, nil, nil, "", &out); err != nil {
		return "", err
	}
	return out.Username, nil
}
