package driver

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// mimeType selects the untyped GraphSON serializer; each frame carries it
// as a single-byte-length-prefixed header.
const mimeType = "application/vnd.gremlin-v2.0+json"

// Gremlin Server response status codes.
const (
	statusSuccess        = 200
	statusNoContent      = 204
	statusPartialContent = 206
)

const handshakeTimeout = 45 * time.Second

// Config carries the dial parameters derived from the connection
// descriptor.
type Config struct {
	Hosts []string
	Port  int
	Path  string
	TLS   *tls.Config // nil for plaintext
}

// WebSocketDriver opens one WebSocket connection per session against the
// configured contact points, rotating through them round-robin. The
// driver itself holds no connection; dialing happens at OpenSession.
type WebSocketDriver struct {
	cfg  Config
	next atomic.Uint64

	mu       sync.Mutex
	closed   bool
	sessions map[*wsSession]struct{}
}

// NewWebSocket creates a driver for the given contact points.
func NewWebSocket(cfg Config) (*WebSocketDriver, error) {
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("driver: no contact points")
	}
	return &WebSocketDriver{cfg: cfg, sessions: make(map[*wsSession]struct{})}, nil
}

// OpenSession dials the next contact point and returns a session speaking
// the eval protocol against it.
func (d *WebSocketDriver) OpenSession(ctx context.Context, source string) (Session, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	host := d.cfg.Hosts[int(d.next.Add(1)-1)%len(d.cfg.Hosts)]
	scheme := "ws"
	if d.cfg.TLS != nil {
		scheme = "wss"
	}
	endpoint := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(d.cfg.Port)),
		Path:   d.cfg.Path,
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  d.cfg.TLS,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("driver: dial %s: %w", endpoint.String(), err)
	}

	sess := &wsSession{conn: conn, source: source, driver: d}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		conn.Close()
		return nil, ErrClosed
	}
	d.sessions[sess] = struct{}{}
	d.mu.Unlock()
	return sess, nil
}

// Close marks the driver closed and closes any live sessions so in-flight
// submissions observe a connection failure instead of hanging.
func (d *WebSocketDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	open := make([]*wsSession, 0, len(d.sessions))
	for sess := range d.sessions {
		open = append(open, sess)
	}
	d.sessions = nil
	d.mu.Unlock()

	var firstErr error
	for _, sess := range open {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *WebSocketDriver) forget(sess *wsSession) {
	d.mu.Lock()
	delete(d.sessions, sess)
	d.mu.Unlock()
}

type wsSession struct {
	conn   *websocket.Conn
	source string
	driver *WebSocketDriver
	closed atomic.Bool

	// mu serializes request/response round trips on the connection.
	mu sync.Mutex
}

type request struct {
	RequestID string         `json:"requestId"`
	Op        string         `json:"op"`
	Processor string         `json:"processor"`
	Args      map[string]any `json:"args"`
}

type response struct {
	RequestID string `json:"requestId"`
	Status    struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

// Submit sends one eval request and accumulates result rows across
// partial-content frames until a terminal status arrives.
func (s *wsSession) Submit(ctx context.Context, gremlin string, bindings map[string]any) ([]any, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return nil, ErrClosed
	}

	args := map[string]any{
		"gremlin":  gremlin,
		"language": "gremlin-groovy",
	}
	if len(bindings) > 0 {
		args["bindings"] = bindings
	}
	if s.source != "" {
		args["aliases"] = map[string]string{"g": s.source}
	}

	req := request{
		RequestID: uuid.NewString(),
		Op:        "eval",
		Processor: "",
		Args:      args,
	}
	frame, err := encodeFrame(req)
	if err != nil {
		return nil, fmt.Errorf("driver: encode request: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
		s.conn.SetReadDeadline(deadline)
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("driver: write request: %w", err)
	}

	var rows []any
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("driver: read response: %w", err)
		}
		var resp response
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("driver: decode response: %w", err)
		}
		if resp.RequestID != req.RequestID {
			// Stale frame from an earlier, abandoned request.
			continue
		}

		switch resp.Status.Code {
		case statusSuccess, statusNoContent, statusPartialContent:
			rows = append(rows, decodeData(resp.Result.Data)...)
			if resp.Status.Code != statusPartialContent {
				return rows, nil
			}
		default:
			return nil, fmt.Errorf("driver: server status %d: %s", resp.Status.Code, resp.Status.Message)
		}
	}
}

// Close releases the session connection. Safe to call concurrently with
// an in-flight Submit, which then fails its pending read.
func (s *wsSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.driver.forget(s)
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("driver: close session: %w", err)
	}
	return nil
}

// encodeFrame wraps the JSON payload in the mime-prefixed binary framing
// Gremlin Server expects.
func encodeFrame(req request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, 1+len(mimeType)+len(payload))
	frame = append(frame, byte(len(mimeType)))
	frame = append(frame, mimeType...)
	frame = append(frame, payload...)
	return frame, nil
}

// decodeData flattens the result payload into rows: arrays spread, a lone
// value becomes a single row, null contributes nothing.
func decodeData(data any) []any {
	switch v := data.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}
