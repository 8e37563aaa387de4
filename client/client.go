// Package client connects to an arena server over websocket to watch and
// steer a remote session.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/protocol"
)

type Config struct {
	URL            string // ws://host:port/ws
	Codec          protocol.Codec
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:            "ws://localhost:8080/ws",
		Codec:          protocol.MsgPack,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
}

// Client is one websocket connection. Reads must come from a single
// goroutine; sends may come from any.
type Client struct {
	cfg     Config
	conn    *websocket.Conn
	welcome protocol.Welcome
	log     *slog.Logger

	writeMu sync.Mutex
}

// Dial connects and waits for the server's welcome.
func Dial(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("codec", cfg.Codec.String())
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{cfg: cfg, conn: conn, log: log}
	msg, err := c.read()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	if msg.Type != protocol.TypeWelcome || msg.Welcome == nil {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %q", msg.Type)
	}
	c.welcome = *msg.Welcome
	log.Info("connected", "url", cfg.URL, "session", c.welcome.SessionID, "control", c.welcome.Control)
	return c, nil
}

func (c *Client) Welcome() protocol.Welcome { return c.welcome }

func (c *Client) read() (protocol.Message, error) {
	var msg protocol.Message
	if c.cfg.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := c.cfg.Codec.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode %s message: %w", c.cfg.Codec, err)
	}
	return msg, nil
}

// Next blocks until the next snapshot.
func (c *Client) Next() (game.Snapshot, error) {
	for {
		msg, err := c.read()
		if err != nil {
			return game.Snapshot{}, err
		}
		switch msg.Type {
		case protocol.TypeSnapshot:
			if msg.Snapshot != nil {
				return *msg.Snapshot, nil
			}
		case protocol.TypeError:
			return game.Snapshot{}, fmt.Errorf("server error: %s", msg.Error)
		default:
			c.log.Debug("ignoring message", "type", msg.Type)
		}
	}
}

// Stream forwards snapshots to out until ctx is done or the connection
// fails. A full out drops the older pending snapshot.
func (c *Client) Stream(ctx context.Context, out chan game.Snapshot) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()
	for {
		snap, err := c.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read snapshot: %w", err)
		}
		select {
		case out <- snap:
		default:
			select {
			case <-out:
			default:
			}
			select {
			case out <- snap:
			default:
			}
		}
	}
}

func (c *Client) send(cmd protocol.Command) error {
	b, err := c.cfg.Codec.Marshal(cmd)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := c.conn.WriteMessage(c.cfg.Codec.FrameType(), b); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	return nil
}

func (c *Client) SendInput(in game.Input) error {
	return c.send(protocol.InputCommand(in))
}

// Start asks the server for a new session. skin may be empty and hue nil
// to keep the server's defaults.
func (c *Client) Start(skin string, hue *float64) error {
	return c.send(protocol.Command{Type: protocol.TypeStart, Skin: skin, Hue: hue})
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
