package realtime

import (
	"context"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/dailyfeed/feedsync.go/internal/codec"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

// DefaultDialer is the gorilla dialer used by Conn: compression on, CBOR
// preferred with JSON fallback via subprotocol negotiation.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
	Subprotocols:      []string{"cbor", "json"},
}

const closeMessageCode = 1000

// Conn maintains the realtime channel: it dials the push endpoint, decodes
// event frames and hands them to the merger, reconnecting with backoff when
// the connection drops.
//
// This is the one place view teardown requires a true abort: Close stops the
// read loop and tears the stream down rather than letting a response idle
// out, since the stream would otherwise keep delivering indefinitely.
type Conn struct {
	url     string
	dialer  *gorilla.Dialer
	merger  *Merger
	retry   *Backoff
	log     logger.Logger
	decoder codec.Unmarshaler

	connLock  sync.Mutex
	conn      *gorilla.Conn
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Conn)

func WithDialer(d *gorilla.Dialer) Option {
	return func(c *Conn) { c.dialer = d }
}

func WithBackoff(b *Backoff) Option {
	return func(c *Conn) { c.retry = b }
}

func WithDecoder(u codec.Unmarshaler) Option {
	return func(c *Conn) { c.decoder = u }
}

func NewConn(url string, merger *Merger, log logger.Logger, opts ...Option) *Conn {
	if log == nil {
		log = logger.Nop{}
	}
	c := &Conn{
		url:       url,
		dialer:    DefaultDialer,
		merger:    merger,
		retry:     DefaultBackoff(),
		log:       log,
		decoder:   codec.CBOR{},
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the push endpoint and starts the read loop. The loop owns
// reconnection from here on; Connect only fails when the first dial does.
func (c *Conn) Connect(ctx context.Context) error {
	conn, res, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.Header.Get("Sec-WebSocket-Protocol") == "json" {
		c.decoder = codec.JSON{}
	}

	c.connLock.Lock()
	c.conn = conn
	c.connLock.Unlock()

	go c.readLoop()
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.done)

	attempt := 0
	for {
		_, data, err := c.current().ReadMessage()
		if err == nil {
			attempt = 0
			var ev Event
			if err := c.decoder.Unmarshal(data, &ev); err != nil {
				c.log.Warn("undecodable event frame dropped", "error", err)
				continue
			}
			c.merger.Apply(ev)
			continue
		}

		select {
		case <-c.closeChan:
			return
		default:
		}

		delay, retry := c.retry.NextDelay(attempt)
		if !retry {
			c.log.Error("realtime channel gave up reconnecting", "attempts", attempt)
			return
		}
		attempt++
		c.log.Warn("realtime channel dropped, reconnecting", "delay", delay.String(), "error", err)

		select {
		case <-c.closeChan:
			return
		case <-time.After(delay):
		}

		conn, res, err := c.dialer.DialContext(context.Background(), c.url, nil)
		if err != nil {
			c.log.Warn("reconnect failed", "error", err)
			continue
		}
		res.Body.Close()

		c.connLock.Lock()
		c.conn = conn
		c.connLock.Unlock()
	}
}

func (c *Conn) current() *gorilla.Conn {
	c.connLock.Lock()
	defer c.connLock.Unlock()
	return c.conn
}

// Close aborts the stream. It tries to send a close frame so the server
// stops pushing promptly, but tears the connection down locally either way;
// ctx only bounds the close-frame write.
func (c *Conn) Close(ctx context.Context) error {
	c.closeOnce.Do(func() { close(c.closeChan) })

	conn := c.current()
	if conn == nil {
		return nil
	}

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(closeMessageCode, ""))
	}()

	select {
	case err := <-writeErr:
		if err != nil {
			c.log.Debug("close frame write failed", "error", err)
		}
	case <-ctx.Done():
	}

	err := conn.Close()

	select {
	case <-c.done:
	case <-ctx.Done():
	}
	return err
}
