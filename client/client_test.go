package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/logging"
	"github.com/brensch/snekarena/protocol"
	"github.com/brensch/snekarena/server"
	"github.com/brensch/snekarena/session"
)

func setup(t *testing.T, codec protocol.Codec) (*session.Session, *Client) {
	t.Helper()
	scfg := session.DefaultConfig()
	scfg.Game.Seed = 8
	scfg.Game.AICount = 2
	scfg.Game.InitialFood = 5
	sess := session.New(scfg, logging.Discard())
	sess.Start(nil)

	srvCfg := server.DefaultConfig()
	srvCfg.SendEvery = 1
	ts := httptest.NewServer(server.New(srvCfg, sess, nil, logging.Discard()).Handler())
	t.Cleanup(ts.Close)

	cfg := DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	cfg.Codec = codec
	cfg.ReadTimeout = 5 * time.Second

	c, err := Dial(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return sess, c
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_Snapshots(t *testing.T) {
	for _, codec := range []protocol.Codec{protocol.JSON, protocol.MsgPack} {
		t.Run(codec.String(), func(t *testing.T) {
			sess, c := setup(t, codec)
			if c.Welcome().SessionID != sess.ID() || c.Welcome().Codec != codec.String() {
				t.Fatalf("welcome=%+v", c.Welcome())
			}

			sess.Step()
			sess.Step()
			for {
				snap, err := c.Next()
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				if snap.Tick == 2 {
					if snap.Player == nil || len(snap.Enemies) != 2 {
						t.Fatalf("snapshot=%+v", snap)
					}
					return
				}
			}
		})
	}
}

func TestClient_SendInputAndStart(t *testing.T) {
	sess, c := setup(t, protocol.MsgPack)

	if err := c.SendInput(game.Input{Heading: game.Vec3{0, 0, -1}, Boost: true}); err != nil {
		t.Fatalf("SendInput: %v", err)
	}
	eventually(t, "input", func() bool {
		in := sess.Input()
		return in.Heading == (game.Vec3{0, 0, -1}) && in.Boost
	})

	first := sess.ID()
	hue := 0.75
	if err := c.Start("spiky", &hue); err != nil {
		t.Fatalf("Start: %v", err)
	}
	eventually(t, "restart", func() bool { return sess.ID() != first })
	if p := sess.Snapshot().Player; p.Skin != "spiky" {
		t.Fatalf("skin=%s want spiky", p.Skin)
	}
}

func TestClient_StreamStopsOnCancel(t *testing.T) {
	sess, c := setup(t, protocol.JSON)
	out := make(chan game.Snapshot, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Stream(ctx, out) }()

	sess.Step()
	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatalf("no snapshot streamed")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err=%v want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not stop")
	}
}
