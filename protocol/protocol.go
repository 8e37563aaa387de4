// Package protocol defines the websocket messages exchanged between the
// arena server and its clients, and the codecs that carry them.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/rules"
)

// Message types sent by the server.
const (
	TypeWelcome  = "welcome"
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// Command types sent by clients.
const (
	TypeInput = "input"
	TypeStart = "start"
)

// Message is the server to client envelope. Exactly one payload is set,
// matching Type.
type Message struct {
	Type     string         `json:"type" msgpack:"type"`
	Welcome  *Welcome       `json:"welcome,omitempty" msgpack:"welcome,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty" msgpack:"error,omitempty"`
}

type Welcome struct {
	SessionID string  `json:"session_id" msgpack:"session_id"`
	TickRate  int     `json:"tick_rate" msgpack:"tick_rate"`
	Arena     float64 `json:"arena" msgpack:"arena"`
	Control   bool    `json:"control" msgpack:"control"`
	Codec     string  `json:"codec" msgpack:"codec"`
}

// Command is the client to server envelope.
//
// For input, X and Z are the desired planar heading and need not be unit
// length; a zero heading keeps the current one. For start, Skin and Hue
// optionally override the player's look.
type Command struct {
	Type  string   `json:"type" msgpack:"type"`
	X     float64  `json:"x,omitempty" msgpack:"x,omitempty"`
	Z     float64  `json:"z,omitempty" msgpack:"z,omitempty"`
	Boost bool     `json:"boost,omitempty" msgpack:"boost,omitempty"`
	Skin  string   `json:"skin,omitempty" msgpack:"skin,omitempty"`
	Hue   *float64 `json:"hue,omitempty" msgpack:"hue,omitempty"`
}

func InputCommand(in game.Input) Command {
	return Command{Type: TypeInput, X: in.Heading[0], Z: in.Heading[2], Boost: in.Boost}
}

func (c Command) Input() game.Input {
	h := game.Vec3{c.X, 0, c.Z}
	if math.IsNaN(c.X) || math.IsNaN(c.Z) || math.IsInf(c.X, 0) || math.IsInf(c.Z, 0) {
		h = game.Vec3{}
	}
	return game.Input{Heading: h, Boost: c.Boost}
}

// PlayerOptions applies the command's skin and hue on top of base.
func (c Command) PlayerOptions(base rules.PlayerOptions) (rules.PlayerOptions, error) {
	opts := base
	if c.Skin != "" {
		skin, err := game.ParseSkin(c.Skin)
		if err != nil {
			return base, err
		}
		opts.Skin = skin
	}
	if c.Hue != nil {
		h := *c.Hue
		if h < 0 || h > 1 || math.IsNaN(h) {
			return base, fmt.Errorf("hue %v outside [0, 1]", h)
		}
		opts.Color.H = h
	}
	return opts, nil
}

// Codec is the encoding used on one connection, chosen by the client with
// the codec query parameter.
type Codec uint8

const (
	JSON Codec = iota
	MsgPack
)

func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "msgpack", "mp":
		return MsgPack, nil
	}
	return JSON, fmt.Errorf("unknown codec %q", s)
}

func (c Codec) String() string {
	if c == MsgPack {
		return "msgpack"
	}
	return "json"
}

// FrameType is the websocket frame type the codec is sent in.
func (c Codec) FrameType() int {
	if c == MsgPack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (c Codec) Marshal(v any) ([]byte, error) {
	if c == MsgPack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	if c == MsgPack {
		return msgpack.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}
