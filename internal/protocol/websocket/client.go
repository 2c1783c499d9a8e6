package websocket

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNoReply is returned by Exchange when the server closes the
// connection without answering.
var ErrNoReply = errors.New("connection closed without reply")

// Config holds WebSocket client configuration.
type Config struct {
	// ConnectTimeout is the timeout for the opening handshake.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for a reply in Exchange.
	ReadTimeout time.Duration

	// MaxMessageSize is the maximum size of a message in bytes.
	MaxMessageSize int64

	// CookieJar supplies handshake cookies and receives the handshake's
	// Set-Cookie headers. Nil disables cookies.
	CookieJar http.CookieJar

	// TLSInsecure allows insecure TLS connections.
	TLSInsecure bool
}

// DefaultConfig returns the default WebSocket client configuration.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: 30 * time.Second,
		ReadTimeout:    10 * time.Second,
		MaxMessageSize: 10 * 1024 * 1024, // 10 MB
	}
}

// Client opens WebSocket connections that share a cookie jar with the
// HTTP client.
type Client struct {
	config *Config
}

// NewClient creates a new WebSocket client with the given configuration.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{config: config}
}

// Handshake describes the server's answer to the opening handshake.
type Handshake struct {
	StatusCode int
	Header     http.Header
}

// Dial performs the opening handshake against endpoint (ws:// or wss://).
func (c *Client) Dial(ctx context.Context, endpoint string, header http.Header) (*websocket.Conn, *Handshake, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.ConnectTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		Jar:              c.config.CookieJar,
		Proxy:            http.ProxyFromEnvironment,
	}

	if c.config.TLSInsecure {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	connectCtx := ctx
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(connectCtx, endpoint, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, nil, fmt.Errorf("failed to connect: %w (status %d)", err, resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	return conn, &Handshake{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

// Exchange connects, sends message as a text frame when it is non-empty,
// waits for one reply and closes the connection.
func (c *Client) Exchange(ctx context.Context, endpoint string, header http.Header, message string) (string, *Handshake, error) {
	conn, hs, err := c.Dial(ctx, endpoint, header)
	if err != nil {
		return "", nil, err
	}
	defer conn.Close()

	if message != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			return "", hs, fmt.Errorf("failed to send message: %w", err)
		}
	}

	if c.config.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	_, reply, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "", hs, ErrNoReply
		}
		return "", hs, fmt.Errorf("failed to read reply: %w", err)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return string(reply), hs, nil
}
