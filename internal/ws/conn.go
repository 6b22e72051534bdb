package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/landlord-client/internal/httpapi"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

var ErrNotOpen = errors.New("connection not open")

const readLimit = 1 << 20

type State int32

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Manager opens lobby connections. All of them share the API client's cookie jar.
type Manager struct {
	base         *url.URL
	httpClient   *http.Client
	writeTimeout time.Duration
	logger       *zap.Logger
}

func NewManager(base *url.URL, httpClient *http.Client, writeTimeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		base:         base,
		httpClient:   httpClient,
		writeTimeout: writeTimeout,
		logger:       logger.Named("ws"),
	}
}

// URL is the websocket endpoint for code: http becomes ws and https becomes wss.
func (m *Manager) URL(code string) string {
	u := m.base.ResolveReference(&url.URL{Path: httpapi.WSPath(code)})
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}

// Open starts connecting in the background and returns immediately in state Connecting.
// onMessage runs on the connection's reader goroutine for every decoded frame. The
// connection lives until Close or until parent is cancelled.
func (m *Manager) Open(parent context.Context, code string, onMessage func(types.ServerMsg)) *Conn {
	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		id:           uuid.NewString(),
		code:         code,
		ctx:          ctx,
		cancel:       cancel,
		writeTimeout: m.writeTimeout,
		done:         make(chan struct{}),
	}
	c.logger = m.logger.With(zap.String("lobby", code), zap.String("conn", c.id))
	c.state.Store(int32(Connecting))

	opts := &websocket.DialOptions{HTTPClient: m.httpClient}
	go c.run(m.URL(code), opts, onMessage)
	return c
}

// Conn is one live-channel connection to a lobby. Its state only moves forward:
// Connecting, then Open, then Closed.
type Conn struct {
	id           string
	code         string
	state        atomic.Int32
	ctx          context.Context
	cancel       context.CancelFunc
	writeTimeout time.Duration
	logger       *zap.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	closeOnce sync.Once
	done      chan struct{}
}

func (c *Conn) ID() string   { return c.id }
func (c *Conn) Code() string { return c.code }

func (c *Conn) State() State { return State(c.state.Load()) }

// Done is closed once the reader goroutine has exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) run(endpoint string, opts *websocket.DialOptions, onMessage func(types.ServerMsg)) {
	defer close(c.done)
	defer c.state.Store(int32(Closed))

	conn, _, err := websocket.Dial(c.ctx, endpoint, opts)
	if err != nil {
		c.logger.Info("dial failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(readLimit)
	defer conn.CloseNow()

	c.mu.Lock()
	if c.State() == Closed {
		c.mu.Unlock()
		return
	}
	c.ws = conn
	c.state.Store(int32(Open))
	c.mu.Unlock()
	c.logger.Debug("connected")

	for {
		typ, data, err := conn.Read(c.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.logger.Debug("closed by peer")
			default:
				if c.ctx.Err() == nil {
					c.logger.Info("read failed", zap.Error(err))
				}
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		msg, err := types.DecodeServerMsg(data)
		if err != nil {
			if errors.Is(err, types.ErrUnknownTag) {
				c.logger.Debug("skipping frame", zap.Error(err))
			} else {
				c.logger.Warn("bad frame", zap.Error(err))
			}
			continue
		}
		onMessage(msg)
	}
}

// Send writes msg as one text frame. It fails with ErrNotOpen unless the connection is
// Open; nothing is queued.
func (c *Conn) Send(ctx context.Context, msg types.ClientMsg) error {
	if c.State() != Open {
		return ErrNotOpen
	}
	c.mu.Lock()
	conn := c.ws
	c.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// Close shuts the connection and waits for the reader to exit. Safe to call repeatedly.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.ws
		wasOpen := c.State() == Open
		c.state.Store(int32(Closed))
		c.mu.Unlock()

		if conn != nil && wasOpen {
			err = conn.Close(websocket.StatusNormalClosure, "bye")
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				err = nil
			}
		}
		c.cancel()
		<-c.done
	})
	return err
}
