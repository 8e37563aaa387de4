// Package tui is a terminal viewer and controller for an arena session.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/snekarena/client"
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/session"
)

// Controller forwards player actions to a local or remote session.
type Controller interface {
	SetInput(game.Input) error
	Restart() error
}

type localController struct{ s *session.Session }

func (c localController) SetInput(in game.Input) error { c.s.SetInput(in); return nil }
func (c localController) Restart() error               { c.s.Start(nil); return nil }

// Local controls a session in this process.
func Local(s *session.Session) Controller { return localController{s} }

type remoteController struct{ c *client.Client }

func (c remoteController) SetInput(in game.Input) error { return c.c.SendInput(in) }
func (c remoteController) Restart() error               { return c.c.Start("", nil) }

// Remote controls a session through a websocket client.
func Remote(c *client.Client) Controller { return remoteController{c} }

type snapshotMsg game.Snapshot

type streamClosedMsg struct{}

type errMsg struct{ err error }

// TickMsg refreshes the frame rate counter.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForSnapshot(snaps <-chan game.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// Model renders snapshots from snaps and sends key presses to ctrl. A nil
// ctrl makes a read-only viewer.
type Model struct {
	snaps <-chan game.Snapshot
	ctrl  Controller

	snap    game.Snapshot
	heading game.Vec3
	boost   bool

	width, height int

	frames    int
	fps       int
	lastErr   error
	quitting  bool
	connected bool
}

func New(snaps <-chan game.Snapshot, ctrl Controller) Model {
	return Model{
		snaps:     snaps,
		ctrl:      ctrl,
		heading:   game.Vec3{1, 0, 0},
		width:     80,
		height:    24,
		connected: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.snaps), tickCmd())
}

// Snapshot is the last snapshot received.
func (m Model) Snapshot() game.Snapshot { return m.snap }

// Input is the input the model last sent.
func (m Model) Input() game.Input { return game.Input{Heading: m.heading, Boost: m.boost} }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = game.Snapshot(msg)
		m.frames++
		return m, waitForSnapshot(m.snaps)

	case streamClosedMsg:
		m.connected = false
		return m, nil

	case TickMsg:
		m.fps = m.frames
		m.frames = 0
		return m, tickCmd()

	case errMsg:
		m.lastErr = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

var headings = map[string]game.Vec3{
	"up":    {0, 0, -1},
	"w":     {0, 0, -1},
	"down":  {0, 0, 1},
	"s":     {0, 0, 1},
	"left":  {-1, 0, 0},
	"a":     {-1, 0, 0},
	"right": {1, 0, 0},
	"d":     {1, 0, 0},
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	if m.ctrl == nil {
		return m, nil
	}

	switch key {
	case "enter":
		if m.snap.Status == game.StatusPlaying.String() {
			return m, nil
		}
		m.boost = false
		return m, m.send(func(c Controller) error { return c.Restart() })
	case " ":
		m.boost = !m.boost
	default:
		h, ok := headings[key]
		if !ok {
			return m, nil
		}
		m.heading = h
	}
	in := m.Input()
	return m, m.send(func(c Controller) error { return c.SetInput(in) })
}

func (m Model) send(fn func(Controller) error) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := fn(ctrl); err != nil {
			return errMsg{err}
		}
		return nil
	}
}
