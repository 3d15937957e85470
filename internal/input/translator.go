package input

import (
	"unicode"

	"github.com/breeze-rmm/screenbridge/internal/wire"
)

// touchSuppressWindowMs is the window, in milliseconds, after a real
// finger event during which synthetic mouse events derived from it are
// dropped.
const touchSuppressWindowMs = 50

// HostAction is a UI-local effect the translator can request that never
// crosses the control socket (fullscreen toggle, window resize, FPS
// counter). The renderer/window front end is out of scope; this is the
// named interface it must react to.
type HostAction uint8

const (
	HostActionNone HostAction = iota
	HostActionToggleFullscreen
	HostActionResizeToFit
	HostActionResize1to1
	HostActionToggleFPSCounter
)

// Outcome is everything one UI event can produce: zero or more device
// control messages (in FIFO emission order), an optional host-local
// action, and whether the session should quit.
type Outcome struct {
	Messages   []wire.ControlMessage
	HostAction HostAction
	Quit       bool
}

func single(msg wire.ControlMessage) Outcome { return Outcome{Messages: []wire.ControlMessage{msg}} }

// Clipboard is the host workstation's OS clipboard, as needed by the
// mod1+V / mod1+Shift+V shortcuts. The concrete accessor lives in
// internal/clipboard.
type Clipboard interface {
	Read() (string, error)
}

// Translator converts host UI events into ControlMessage values. It is
// stateless apart from the finger-timestamp watermark used for
// touch/mouse disambiguation.
type Translator struct {
	IsMac          bool
	ControlEnabled bool
	IMEEnabled     bool
	Clipboard      Clipboard

	fingerTimestamp uint32
	hasFinger       bool
}

// rescale converts a window-pixel point into device frame coordinates.
func rescale(windowX, windowY int32, geom WindowGeometry) wire.Position {
	x := (float64(windowX) - geom.OffsetX) / geom.Scale
	y := (float64(windowY) - geom.OffsetY) / geom.Scale
	return wire.Position{
		X: int32(x),
		Y: int32(y),
		W: geom.DeviceWidth,
		H: geom.DeviceHeight,
	}
}

// suppressMouse reports whether a mouse event at ts should be dropped as
// presumed-synthetic: timestamps in (finger_timestamp, finger_timestamp +
// 50ms] are suppressed. A mouse event at or before the watermark is real
// (it predates the finger event) and is never suppressed by this rule.
func (t *Translator) suppressMouse(ts uint32) bool {
	if !t.hasFinger {
		return false
	}
	return ts > t.fingerTimestamp && ts <= t.fingerTimestamp+touchSuppressWindowMs
}

// HandleFinger always forwards a real touch event and advances the
// watermark.
func (t *Translator) HandleFinger(ev FingerEvent, geom WindowGeometry) Outcome {
	t.fingerTimestamp = ev.Timestamp
	t.hasFinger = true
	return single(wire.InjectTouchEvent{
		Action:   ev.Action,
		TouchID:  ev.TouchID,
		Position: rescale(ev.WindowX, ev.WindowY, geom),
	})
}

// HandleMouseMotion forwards motion only while a button is held, and only
// if it is not suppressed as synthetic.
func (t *Translator) HandleMouseMotion(ev MouseMotionEvent, geom WindowGeometry) Outcome {
	if ev.ButtonsHeld == 0 {
		return Outcome{}
	}
	if t.suppressMouse(ev.Timestamp) {
		return Outcome{}
	}
	return single(wire.InjectMouseEvent{
		Action:   wire.ActionDown,
		Buttons:  ev.ButtonsHeld,
		Position: rescale(ev.WindowX, ev.WindowY, geom),
	})
}

// HandleWheel always forwards, regardless of suppression — the finger
// watermark only governs mouse motion/button disambiguation.
func (t *Translator) HandleWheel(ev WheelEvent, geom WindowGeometry) Outcome {
	return single(wire.InjectScrollEvent{
		Position: rescale(ev.WindowX, ev.WindowY, geom),
		HScroll:  ev.HScroll,
		VScroll:  ev.VScroll,
	})
}

// HandleMouseButton implements right-click → BackOrScreenOn, middle-click
// → Home (down+up pair), double-left-click on the letterbox → resize to
// fit, and otherwise a plain InjectMouseEvent.
func (t *Translator) HandleMouseButton(ev MouseButtonEvent, geom WindowGeometry) Outcome {
	if t.suppressMouse(ev.Timestamp) {
		return Outcome{}
	}

	switch ev.Button {
	case MouseButtonRight:
		if ev.Action == wire.ActionDown {
			return single(wire.Command{Which: wire.CommandBackOrScreenOn})
		}
		return Outcome{}
	case MouseButtonMiddle:
		if ev.Action != wire.ActionDown {
			return Outcome{}
		}
		return Outcome{Messages: []wire.ControlMessage{
			wire.InjectKeycode{Action: wire.ActionDown, Keycode: akeycodeHome},
			wire.InjectKeycode{Action: wire.ActionUp, Keycode: akeycodeHome},
		}}
	default:
		if ev.Action == wire.ActionDown && ev.DoubleClick && ev.InLetterbox {
			return Outcome{HostAction: HostActionResizeToFit}
		}
		buttons := uint32(1) << uint(ev.Button)
		return single(wire.InjectMouseEvent{
			Action:   ev.Action,
			Buttons:  buttons,
			Position: rescale(ev.WindowX, ev.WindowY, geom),
		})
	}
}

// HandleText forwards committed text, except that when IME mode is
// disabled a single alphabetic-or-space character is suppressed (sent as
// a raw key event by the caller instead).
func (t *Translator) HandleText(ev TextEvent) Outcome {
	runes := []rune(ev.Text)
	if !t.IMEEnabled && len(runes) == 1 {
		r := runes[0]
		if unicode.IsLetter(r) || r == ' ' {
			return Outcome{}
		}
	}
	return single(wire.InjectText{Text: ev.Text})
}

// HandleKey implements the modifier-key shortcut table. Alt held, or Meta
// held on a non-macOS host, swallows the event entirely.
func (t *Translator) HandleKey(ev KeyEvent) Outcome {
	mods := ev.Modifiers
	if mods&ModAlt != 0 {
		return Outcome{}
	}
	if !t.IsMac && mods&ModMeta != 0 {
		return Outcome{}
	}

	ctrl := mods&ModCtrl != 0
	shift := mods&ModShift != 0
	mod1 := mod1Held(mods, t.IsMac)
	down := ev.Action == wire.ActionDown

	switch ev.Key {
	case KeyH:
		if ctrl {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodeHome})
		}
	case KeyB, KeyBackspace:
		if mod1 {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodeBack})
		}
	case KeyS:
		if mod1 {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodeAppSwitch})
		}
	case KeyM:
		if ctrl {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodeMenu})
		}
	case KeyP:
		if mod1 {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodePower})
		}
	case KeyO:
		if mod1 && down {
			if shift {
				return single(wire.SetScreenPowerMode{Mode: wire.PowerModeNormal})
			}
			return single(wire.SetScreenPowerMode{Mode: wire.PowerModeOff})
		}
	case KeyUp:
		if mod1 {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodeVolumeUp})
		}
	case KeyDown:
		if mod1 {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: akeycodeVolumeDown})
		}
	case KeyC:
		// Treats the source's unbalanced brace around this binding as a
		// simple guarded no-repeat call, per the preserved-behavior note.
		if mod1 && down && !ev.Repeat {
			return single(wire.Command{Which: wire.CommandGetClipboard})
		}
	case KeyV:
		if mod1 && down {
			return t.handlePaste(shift)
		}
	case KeyF:
		if mod1 && down {
			return Outcome{HostAction: HostActionToggleFullscreen}
		}
	case KeyQ:
		if ctrl && down {
			return Outcome{Messages: []wire.ControlMessage{wire.Command{Which: wire.CommandQuit}}, Quit: true}
		}
	case KeyX:
		if mod1 && down {
			return Outcome{HostAction: HostActionResizeToFit}
		}
	case KeyG:
		if mod1 && down {
			return Outcome{HostAction: HostActionResize1to1}
		}
	case KeyI:
		if mod1 && down {
			return Outcome{HostAction: HostActionToggleFPSCounter}
		}
	case KeyN:
		if mod1 && down {
			if shift {
				return single(wire.Command{Which: wire.CommandCollapseNotifPanel})
			}
			return single(wire.Command{Which: wire.CommandExpandNotifPanel})
		}
	}

	if mods == 0 && t.ControlEnabled {
		if code, ok := asciiKeycodes[ev.Key]; ok {
			return single(wire.InjectKeycode{Action: ev.Action, Keycode: code})
		}
	}

	return Outcome{}
}

func (t *Translator) handlePaste(setDeviceClipboard bool) Outcome {
	if t.Clipboard == nil {
		return Outcome{}
	}
	text, err := t.Clipboard.Read()
	if err != nil || text == "" {
		return Outcome{}
	}
	if setDeviceClipboard {
		return single(wire.SetClipboard{Text: text})
	}
	return single(wire.InjectText{Text: text})
}

// SendRotation compares the host window aspect ratio to the device frame
// aspect ratio in fullscreen+tablet mode and emits a rotation hint when
// they disagree. Rate limiting (at most once per second) is the caller's
// responsibility, matching the orchestrator's periodic-check design.
func (t *Translator) SendRotation(geom WindowGeometry) Outcome {
	if !geom.Fullscreen || !geom.TabletMode {
		return Outcome{}
	}
	if geom.DeviceWidth == 0 || geom.DeviceHeight == 0 || geom.WindowWidth == 0 || geom.WindowHeight == 0 {
		return Outcome{}
	}

	deviceLandscape := geom.DeviceWidth > geom.DeviceHeight
	windowLandscape := geom.WindowWidth > geom.WindowHeight
	if deviceLandscape == windowLandscape {
		return Outcome{}
	}
	if windowLandscape {
		return single(wire.Command{Which: wire.CommandLandscape})
	}
	return single(wire.Command{Which: wire.CommandPortrait})
}
