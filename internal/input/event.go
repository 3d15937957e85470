// Package input implements InputTranslator: converting host UI events
// into device ControlMessage values, including the modifier-key shortcut
// table and touch/mouse synthetic-event disambiguation. The host UI
// toolkit itself is out of scope (per the option-parsing/front-end
// exclusion); this package only defines the event shapes a windowing
// front end would feed into it.
package input

import "github.com/breeze-rmm/screenbridge/internal/wire"

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// mod1Held resolves the platform-chosen "mod1" modifier: Cmd (Meta) on
// macOS, Ctrl elsewhere.
func mod1Held(mods Modifier, isMac bool) bool {
	if isMac {
		return mods&ModMeta != 0
	}
	return mods&ModCtrl != 0
}

// Key identifies a physical key by a stable name understood by the
// keymap, independent of the host toolkit's own key representation.
type Key string

const (
	KeyH         Key = "H"
	KeyB         Key = "B"
	KeyBackspace Key = "Backspace"
	KeyS         Key = "S"
	KeyM         Key = "M"
	KeyP         Key = "P"
	KeyO         Key = "O"
	KeyUp        Key = "Up"
	KeyDown      Key = "Down"
	KeyC         Key = "C"
	KeyV         Key = "V"
	KeyF         Key = "F"
	KeyQ         Key = "Q"
	KeyX         Key = "X"
	KeyG         Key = "G"
	KeyI         Key = "I"
	KeyN         Key = "N"
)

// KeyEvent is a physical key press or release from the host UI.
type KeyEvent struct {
	Action    wire.Action
	Key       Key
	Modifiers Modifier
	Repeat    bool
}

// MouseButton identifies which physical mouse button an event concerns.
type MouseButton uint8

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// MouseButtonEvent is a mouse press or release.
type MouseButtonEvent struct {
	Action      wire.Action
	Button      MouseButton
	WindowX     int32
	WindowY     int32
	Timestamp   uint32
	DoubleClick bool
	// InLetterbox reports whether the click landed on the black bars
	// around the rendered device frame rather than the frame itself.
	InLetterbox bool
}

// MouseMotionEvent is a mouse move, only ever forwarded while a button is
// held.
type MouseMotionEvent struct {
	ButtonsHeld uint32
	WindowX     int32
	WindowY     int32
	Timestamp   uint32
}

// WheelEvent is a scroll-wheel tick.
type WheelEvent struct {
	WindowX, WindowY int32
	HScroll, VScroll int32
}

// FingerEvent is a real touch event, as opposed to a synthetic one some
// host platforms derive from it.
type FingerEvent struct {
	Action    wire.Action
	TouchID   int32
	WindowX   int32
	WindowY   int32
	Timestamp uint32
}

// TextEvent is committed text input (e.g. from an IME or a plain
// character key), distinct from the raw KeyEvent stream.
type TextEvent struct {
	Text string
}

// WindowGeometry describes the renderer's current mapping from window
// pixels to device frame pixels.
type WindowGeometry struct {
	Scale          float64
	OffsetX        float64
	OffsetY        float64
	DeviceWidth    uint16
	DeviceHeight   uint16
	WindowWidth    int
	WindowHeight   int
	Fullscreen     bool
	TabletMode     bool
}
