package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snekarena/protocol"
)

// handleWS streams snapshots to the client and, when control is enabled,
// applies the commands it sends. The codec query parameter selects json
// (text frames) or msgpack (binary frames) for both directions.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	codec, err := protocol.ParseCodec(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	log := s.log.With("remote", r.RemoteAddr, "codec", codec)
	log.Info("viewer connected")
	defer log.Info("viewer disconnected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snaps, unsubscribe := s.sess.Subscribe()
	defer unsubscribe()

	go func() {
		defer cancel()
		s.readLoop(ctx, conn, codec)
	}()

	cfg := s.sess.GameConfig()
	welcome := protocol.Message{Type: protocol.TypeWelcome, Welcome: &protocol.Welcome{
		SessionID: s.sess.ID(),
		TickRate:  cfg.TickRate,
		Arena:     cfg.ArenaSize,
		Control:   s.cfg.Control,
		Codec:     codec.String(),
	}}
	if err := s.send(conn, codec, welcome); err != nil {
		log.Debug("send welcome failed", "err", err)
		return
	}

	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				log.Debug("ping failed", "err", err)
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			n++
			// Status changes always go out so clients never miss GAMEOVER.
			if n%s.cfg.SendEvery != 0 && snap.Status == "PLAYING" {
				continue
			}
			if err := s.send(conn, codec, protocol.Message{Type: protocol.TypeSnapshot, Snapshot: &snap}); err != nil {
				log.Debug("send snapshot failed", "err", err)
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, codec protocol.Codec, msg protocol.Message) error {
	b, err := codec.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteMessage(codec.FrameType(), b)
}

// readLoop applies client commands until the connection fails. It never
// writes to conn; errors are only logged.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, codec protocol.Codec) {
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for ctx.Err() == nil {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read ended", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		var cmd protocol.Command
		if err := codec.Unmarshal(data, &cmd); err != nil {
			s.log.Warn("bad command", "err", err)
			continue
		}
		if !s.cfg.Control {
			continue
		}
		switch cmd.Type {
		case protocol.TypeInput:
			s.sess.SetInput(cmd.Input())
		case protocol.TypeStart:
			opts, err := cmd.PlayerOptions(s.sess.PlayerOptions())
			if err != nil {
				s.log.Warn("bad start command", "err", err)
				continue
			}
			id := s.sess.Start(&opts)
			s.log.Info("session restarted by viewer", "session", id)
		default:
			s.log.Warn("unknown command", "type", cmd.Type)
		}
	}
}
