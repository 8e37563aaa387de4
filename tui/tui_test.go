package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/rules"
)

type fakeController struct {
	inputs   []game.Input
	restarts int
	err      error
}

func (f *fakeController) SetInput(in game.Input) error {
	f.inputs = append(f.inputs, in)
	return f.err
}

func (f *fakeController) Restart() error {
	f.restarts++
	return f.err
}

func playing(t *testing.T) game.Snapshot {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Seed = 12
	cfg.AICount = 3
	cfg.InitialFood = 20
	w := game.NewWorld(cfg)
	rules.Start(w, rules.DefaultPlayer())
	rules.Step(w)
	return w.Snapshot()
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// press applies a key and feeds the message of its command back in.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			m = update(m, out)
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SteeringKeys(t *testing.T) {
	ctrl := &fakeController{}
	m := New(make(chan game.Snapshot), ctrl)
	m = update(m, snapshotMsg(playing(t)))

	m = press(t, m, key("up"))
	m = press(t, m, key("a"))
	m = press(t, m, key(" "))

	if len(ctrl.inputs) != 3 {
		t.Fatalf("inputs=%d want=3", len(ctrl.inputs))
	}
	if ctrl.inputs[0].Heading != (game.Vec3{0, 0, -1}) {
		t.Fatalf("up heading=%v", ctrl.inputs[0].Heading)
	}
	last := ctrl.inputs[2]
	if last.Heading != (game.Vec3{-1, 0, 0}) || !last.Boost {
		t.Fatalf("last input=%+v want left with boost", last)
	}
	if ctrl.restarts != 0 {
		t.Fatalf("restarted while playing")
	}
}

func TestModel_RestartAfterGameOver(t *testing.T) {
	ctrl := &fakeController{}
	m := New(make(chan game.Snapshot), ctrl)
	snap := playing(t)
	snap.Status = game.StatusGameOver.String()
	m = update(m, snapshotMsg(snap))

	if !strings.Contains(m.View(), "GAME OVER") {
		t.Fatalf("view lacks game over banner:\n%s", m.View())
	}
	m = press(t, m, key("enter"))
	if ctrl.restarts != 1 {
		t.Fatalf("restarts=%d want=1", ctrl.restarts)
	}
}

func TestModel_ControllerErrorShown(t *testing.T) {
	ctrl := &fakeController{err: errors.New("link down")}
	m := New(make(chan game.Snapshot), ctrl)
	m = update(m, snapshotMsg(playing(t)))
	m = press(t, m, key("d"))
	if !strings.Contains(m.View(), "link down") {
		t.Fatalf("error not shown:\n%s", m.View())
	}
}

func TestModel_ViewerIgnoresControls(t *testing.T) {
	m := New(make(chan game.Snapshot), nil)
	m = press(t, m, key("w"))
	if m.Input().Heading != (game.Vec3{1, 0, 0}) {
		t.Fatalf("viewer changed heading to %v", m.Input().Heading)
	}
	next, cmd := m.Update(key("q"))
	if cmd == nil || !next.(Model).quitting {
		t.Fatalf("q did not quit")
	}
}

func TestModel_StreamClosed(t *testing.T) {
	snaps := make(chan game.Snapshot)
	close(snaps)
	m := New(snaps, nil)
	msg := waitForSnapshot(snaps)()
	m = update(m, msg)
	if !strings.Contains(m.View(), "DISCONNECTED") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestModel_HUD(t *testing.T) {
	m := New(make(chan game.Snapshot), nil)
	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(m, snapshotMsg(playing(t)))
	view := m.View()
	for _, want := range []string{"SCORE", "LENGTH 11", "SNAKES 4", "FOOD 20"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProject(t *testing.T) {
	cases := []struct {
		x, z     float64
		col, row int
		ok       bool
	}{
		{-300, -300, 0, 0, true},
		{0, 0, 30, 10, true},
		{300, 300, 59, 19, true},
		{301, 0, 0, 0, false},
	}
	for _, c := range cases {
		col, row, ok := project(c.x, c.z, 600, 60, 20)
		if ok != c.ok || (ok && (col != c.col || row != c.row)) {
			t.Fatalf("project(%v,%v)=%d,%d,%v want %d,%d,%v", c.x, c.z, col, row, ok, c.col, c.row, c.ok)
		}
	}
}

func TestMinimap_DrawsPlayerOnTop(t *testing.T) {
	snap := game.Snapshot{
		Arena: 600,
		Player: &game.SnakeView{Alive: true, Color: "#00ffff", Segments: []game.SegmentPose{{X: 0, Z: 0, Color: "#00ffff"}}},
		Foods:  []game.FoodView{{X: 0, Z: 0, Color: "#ff0000"}},
	}
	out := minimap(snap, 10, 5)
	if !strings.Contains(out, "@") || strings.Contains(out, ".") {
		t.Fatalf("minimap:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 4 {
		t.Fatalf("rows=%d want=5", n+1)
	}
}
