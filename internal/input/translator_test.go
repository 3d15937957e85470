package input

import (
	"errors"
	"testing"

	"github.com/breeze-rmm/screenbridge/internal/wire"
)

func defaultGeom() WindowGeometry {
	return WindowGeometry{Scale: 1, DeviceWidth: 1080, DeviceHeight: 1920}
}

// Scenario 2: mod1+B down then up on macOS yields two InjectKeycode(Back)
// messages, not Command values.
func TestBackShortcutMacOS(t *testing.T) {
	tr := &Translator{IsMac: true}

	down := tr.HandleKey(KeyEvent{Action: wire.ActionDown, Key: KeyB, Modifiers: ModMeta})
	if len(down.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(down.Messages))
	}
	kc, ok := down.Messages[0].(wire.InjectKeycode)
	if !ok || kc.Action != wire.ActionDown || kc.Keycode != akeycodeBack {
		t.Fatalf("unexpected down message: %+v", down.Messages[0])
	}

	up := tr.HandleKey(KeyEvent{Action: wire.ActionUp, Key: KeyB, Modifiers: ModMeta})
	kc2, ok := up.Messages[0].(wire.InjectKeycode)
	if !ok || kc2.Action != wire.ActionUp || kc2.Keycode != akeycodeBack {
		t.Fatalf("unexpected up message: %+v", up.Messages[0])
	}
}

// Scenario 3: right-click produces exactly one Command{BackOrScreenOn},
// no InjectMouseEvent.
func TestRightClickShortcut(t *testing.T) {
	tr := &Translator{}
	out := tr.HandleMouseButton(MouseButtonEvent{
		Action: wire.ActionDown,
		Button: MouseButtonRight,
		WindowX: 100, WindowY: 200,
	}, defaultGeom())

	if len(out.Messages) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(out.Messages))
	}
	cmd, ok := out.Messages[0].(wire.Command)
	if !ok || cmd.Which != wire.CommandBackOrScreenOn {
		t.Fatalf("expected Command{BackOrScreenOn}, got %+v", out.Messages[0])
	}
}

type fakeClipboard struct {
	text string
	err  error
}

func (f fakeClipboard) Read() (string, error) { return f.text, f.err }

// Scenario 4: empty host clipboard on paste produces no message.
func TestPasteEmptyClipboardNoMessage(t *testing.T) {
	tr := &Translator{Clipboard: fakeClipboard{text: ""}}
	out := tr.HandleKey(KeyEvent{Action: wire.ActionDown, Key: KeyV, Modifiers: ModCtrl})
	if len(out.Messages) != 0 {
		t.Fatalf("expected no message for empty clipboard, got %+v", out.Messages)
	}
}

func TestPasteNonEmptyClipboardProducesText(t *testing.T) {
	tr := &Translator{Clipboard: fakeClipboard{text: "hi"}}
	out := tr.HandleKey(KeyEvent{Action: wire.ActionDown, Key: KeyV, Modifiers: ModCtrl})
	if len(out.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(out.Messages))
	}
	if _, ok := out.Messages[0].(wire.InjectText); !ok {
		t.Fatalf("expected InjectText, got %+v", out.Messages[0])
	}
}

func TestPasteClipboardErrorProducesNoMessage(t *testing.T) {
	tr := &Translator{Clipboard: fakeClipboard{err: errors.New("boom")}}
	out := tr.HandleKey(KeyEvent{Action: wire.ActionDown, Key: KeyV, Modifiers: ModCtrl})
	if len(out.Messages) != 0 {
		t.Fatalf("expected no message on clipboard read error, got %+v", out.Messages)
	}
}

// Scenario 5: Ctrl+Q down on non-macOS signals quit and enqueues Command{Quit}.
func TestQuitShortcut(t *testing.T) {
	tr := &Translator{IsMac: false}
	out := tr.HandleKey(KeyEvent{Action: wire.ActionDown, Key: KeyQ, Modifiers: ModCtrl})
	if !out.Quit {
		t.Fatal("expected Quit=true")
	}
	if len(out.Messages) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(out.Messages))
	}
	cmd, ok := out.Messages[0].(wire.Command)
	if !ok || cmd.Which != wire.CommandQuit {
		t.Fatalf("expected Command{Quit}, got %+v", out.Messages[0])
	}
}

// Scenario 6: fullscreen tablet mode, device 1080x1920 (portrait), host
// window 1600x900 (landscape) => exactly one Command{Landscape}; no hint
// when orientations already agree.
func TestRotationHintMismatch(t *testing.T) {
	tr := &Translator{}
	geom := WindowGeometry{
		Fullscreen: true, TabletMode: true,
		DeviceWidth: 1080, DeviceHeight: 1920,
		WindowWidth: 1600, WindowHeight: 900,
	}
	out := tr.SendRotation(geom)
	if len(out.Messages) != 1 {
		t.Fatalf("expected one rotation hint, got %d", len(out.Messages))
	}
	cmd, ok := out.Messages[0].(wire.Command)
	if !ok || cmd.Which != wire.CommandLandscape {
		t.Fatalf("expected Command{Landscape}, got %+v", out.Messages[0])
	}
}

func TestRotationHintNoneWhenOrientationsAgree(t *testing.T) {
	tr := &Translator{}
	geom := WindowGeometry{
		Fullscreen: true, TabletMode: true,
		DeviceWidth: 1080, DeviceHeight: 1920,
		WindowWidth: 900, WindowHeight: 1600,
	}
	out := tr.SendRotation(geom)
	if len(out.Messages) != 0 {
		t.Fatalf("expected no rotation hint, got %+v", out.Messages)
	}
}

// Touch-then-mouse suppression property: mouse events in (t, t+50ms] are
// suppressed; none outside that window are suppressed for this reason.
func TestTouchSuppressesSyntheticMouse(t *testing.T) {
	tr := &Translator{}
	tr.HandleFinger(FingerEvent{Action: wire.ActionDown, Timestamp: 1000}, defaultGeom())

	cases := []struct {
		ts    uint32
		drop  bool
	}{
		{999, false},
		{1000, false},
		{1001, true},
		{1050, true},
		{1051, false},
		{2000, false},
	}
	for _, c := range cases {
		out := tr.HandleMouseButton(MouseButtonEvent{
			Action: wire.ActionDown, Button: MouseButtonLeft, Timestamp: c.ts,
		}, defaultGeom())
		dropped := len(out.Messages) == 0
		if dropped != c.drop {
			t.Fatalf("ts=%d: expected dropped=%v, got %v", c.ts, c.drop, dropped)
		}
	}
}

func TestMouseMotionOnlyForwardedWithButtonHeld(t *testing.T) {
	tr := &Translator{}
	out := tr.HandleMouseMotion(MouseMotionEvent{ButtonsHeld: 0, Timestamp: 5}, defaultGeom())
	if len(out.Messages) != 0 {
		t.Fatal("expected no message for motion with no button held")
	}

	out = tr.HandleMouseMotion(MouseMotionEvent{ButtonsHeld: 1, Timestamp: 5}, defaultGeom())
	if len(out.Messages) != 1 {
		t.Fatal("expected a message for motion with a button held")
	}
}

func TestTextSuppressedForSingleAlphaWithoutIME(t *testing.T) {
	tr := &Translator{IMEEnabled: false}
	out := tr.HandleText(TextEvent{Text: "a"})
	if len(out.Messages) != 0 {
		t.Fatal("expected single alphabetic character to be suppressed without IME")
	}

	out = tr.HandleText(TextEvent{Text: "ab"})
	if len(out.Messages) != 1 {
		t.Fatal("expected multi-character text to be forwarded")
	}
}
