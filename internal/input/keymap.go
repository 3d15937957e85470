package input

// AOSP key event codes relevant to the shortcut table. These are the
// real android.view.KeyEvent constants, not invented values — the device
// agent expects exactly these on the wire.
const (
	akeycodeHome       uint32 = 3
	akeycodeBack       uint32 = 4
	akeycodeMenu       uint32 = 82
	akeycodeVolumeUp   uint32 = 24
	akeycodeVolumeDown uint32 = 25
	akeycodePower      uint32 = 26
	akeycodeAppSwitch  uint32 = 187
)

// asciiKeycodes maps a small set of printable, unmodified keys to their
// AOSP keycode, for the "no modifier, control enabled" fallthrough path.
// A real front end would supply a complete table from its own key
// representation; this covers the letters and digits a remote-control
// session actually drives.
var asciiKeycodes = map[Key]uint32{
	KeyH: 36, KeyB: 30, KeyS: 47, KeyM: 41, KeyP: 44,
	KeyO: 43, KeyC: 31, KeyV: 50, KeyF: 34, KeyQ: 45,
	KeyX: 52, KeyG: 35, KeyI: 37, KeyN: 42,
	KeyUp: 19, KeyDown: 20, KeyBackspace: 67,
}
