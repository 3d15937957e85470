package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Control message type bytes, section 6 of the wire contract.
const (
	TypeKeycode           byte = 0x00
	TypeText              byte = 0x01
	TypeMouse             byte = 0x02
	TypeTouch             byte = 0x03
	TypeScroll            byte = 0x04
	TypeCommand           byte = 0x05
	TypeSetClipboard      byte = 0x06
	TypeSetScreenPowerMode byte = 0x07
)

// MaxTextLen and MaxClipboardLen are the enforced UTF-8 byte caps for
// InjectText and SetClipboard respectively.
const (
	MaxTextLen      = 300
	MaxClipboardLen = 4093
)

// MaxSerializedLen bounds the largest possible serialized control message:
// 1 type byte + 2 length bytes + MaxClipboardLen payload bytes.
const MaxSerializedLen = 3 + MaxClipboardLen

// ErrOverflow is returned when a text or clipboard payload exceeds its cap.
var ErrOverflow = errors.New("wire: text field exceeds its size cap")

// Action is a key/mouse/touch action: Down or Up.
type Action uint8

const (
	ActionDown Action = 0
	ActionUp   Action = 1
)

// CommandKind enumerates the no-payload device commands.
type CommandKind uint8

const (
	CommandBackOrScreenOn CommandKind = iota
	CommandExpandNotifPanel
	CommandCollapseNotifPanel
	CommandQuit
	CommandPortrait
	CommandLandscape
	CommandPing
	CommandGetClipboard
)

// PowerMode selects the device's screen power state.
type PowerMode uint8

const (
	PowerModeOff    PowerMode = 0
	PowerModeNormal PowerMode = 2
)

// Position is a point in device frame coordinates plus the frame size it
// was computed against. screen_size is always the device frame, never the
// host window.
type Position struct {
	X, Y int32
	W, H uint16
}

// ControlMessage is a tagged sum of every outbound control variant. Each
// implementation owns its payload by construction; there is no destructor
// call discipline to get wrong.
type ControlMessage interface {
	// encode appends this message's wire bytes (type byte + body) to buf
	// and returns the extended slice, or an error if a payload exceeds
	// its cap.
	encode(buf []byte) ([]byte, error)
}

// Serialize encodes msg as it would appear on the control socket.
func Serialize(msg ControlMessage) ([]byte, error) {
	return msg.encode(make([]byte, 0, MaxSerializedLen))
}

type InjectKeycode struct {
	Action    Action
	Keycode   uint32
	Metastate uint32
}

func (m InjectKeycode) encode(buf []byte) ([]byte, error) {
	buf = append(buf, TypeKeycode, byte(m.Action))
	buf = appendU32(buf, m.Keycode)
	buf = appendU32(buf, m.Metastate)
	return buf, nil
}

type InjectText struct {
	Text string
}

func (m InjectText) encode(buf []byte) ([]byte, error) {
	return encodeLengthPrefixed(buf, TypeText, m.Text, MaxTextLen)
}

type InjectMouseEvent struct {
	Action   Action
	Buttons  uint32
	Position Position
}

func (m InjectMouseEvent) encode(buf []byte) ([]byte, error) {
	buf = append(buf, TypeMouse, byte(m.Action))
	buf = appendU32(buf, m.Buttons)
	buf = appendPosition(buf, m.Position)
	return buf, nil
}

type InjectTouchEvent struct {
	Action   Action
	TouchID  int32
	Position Position
}

func (m InjectTouchEvent) encode(buf []byte) ([]byte, error) {
	buf = append(buf, TypeTouch, byte(m.Action))
	buf = appendI32(buf, m.TouchID)
	buf = appendPosition(buf, m.Position)
	return buf, nil
}

type InjectScrollEvent struct {
	Position Position
	HScroll  int32
	VScroll  int32
}

func (m InjectScrollEvent) encode(buf []byte) ([]byte, error) {
	buf = append(buf, TypeScroll)
	buf = appendPosition(buf, m.Position)
	buf = appendI32(buf, m.HScroll)
	buf = appendI32(buf, m.VScroll)
	return buf, nil
}

type Command struct {
	Which CommandKind
}

func (m Command) encode(buf []byte) ([]byte, error) {
	return append(buf, TypeCommand, byte(m.Which)), nil
}

type SetClipboard struct {
	Text string
}

func (m SetClipboard) encode(buf []byte) ([]byte, error) {
	return encodeLengthPrefixed(buf, TypeSetClipboard, m.Text, MaxClipboardLen)
}

type SetScreenPowerMode struct {
	Mode PowerMode
}

func (m SetScreenPowerMode) encode(buf []byte) ([]byte, error) {
	return append(buf, TypeSetScreenPowerMode, byte(m.Mode)), nil
}

func encodeLengthPrefixed(buf []byte, typ byte, text string, cap int) ([]byte, error) {
	raw := []byte(text)
	if len(raw) > cap {
		return nil, fmt.Errorf("%w: %d bytes exceeds cap %d", ErrOverflow, len(raw), cap)
	}
	buf = append(buf, typ)
	buf = appendU16(buf, uint16(len(raw)))
	buf = append(buf, raw...)
	return buf, nil
}

func appendPosition(buf []byte, p Position) []byte {
	buf = appendI32(buf, p.X)
	buf = appendI32(buf, p.Y)
	buf = appendU16(buf, p.W)
	buf = appendU16(buf, p.H)
	return buf
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendI32(buf []byte, v int32) []byte {
	return appendU32(buf, uint32(v))
}

// Decode reads exactly one control message from r, for tests and for any
// loopback verification of the controller's output. The production
// control socket is write-only from the host's perspective; Decode exists
// so the round-trip property in the testable-properties list is checkable
// in-process without a real device on the other end.
func Decode(r io.Reader) (ControlMessage, error) {
	var typ [1]byte
	if _, err := io.ReadFull(r, typ[:]); err != nil {
		return nil, err
	}

	switch typ[0] {
	case TypeKeycode:
		var body [9]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		return InjectKeycode{
			Action:    Action(body[0]),
			Keycode:   binary.BigEndian.Uint32(body[1:5]),
			Metastate: binary.BigEndian.Uint32(body[5:9]),
		}, nil
	case TypeText:
		text, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}
		return InjectText{Text: text}, nil
	case TypeMouse:
		var body [17]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		return InjectMouseEvent{
			Action:   Action(body[0]),
			Buttons:  binary.BigEndian.Uint32(body[1:5]),
			Position: decodePosition(body[5:17]),
		}, nil
	case TypeTouch:
		var body [17]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		return InjectTouchEvent{
			Action:   Action(body[0]),
			TouchID:  int32(binary.BigEndian.Uint32(body[1:5])),
			Position: decodePosition(body[5:17]),
		}, nil
	case TypeScroll:
		var body [20]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		return InjectScrollEvent{
			Position: decodePosition(body[0:12]),
			HScroll:  int32(binary.BigEndian.Uint32(body[12:16])),
			VScroll:  int32(binary.BigEndian.Uint32(body[16:20])),
		}, nil
	case TypeCommand:
		var body [1]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		return Command{Which: CommandKind(body[0])}, nil
	case TypeSetClipboard:
		text, err := readLengthPrefixedCap(r, MaxClipboardLen)
		if err != nil {
			return nil, err
		}
		return SetClipboard{Text: text}, nil
	case TypeSetScreenPowerMode:
		var body [1]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		return SetScreenPowerMode{Mode: PowerMode(body[0])}, nil
	default:
		return nil, fmt.Errorf("wire: unknown control message type 0x%02x", typ[0])
	}
}

// decodePosition reads a 12-byte be_i32 x, be_i32 y, be_u16 w, be_u16 h block.
func decodePosition(b []byte) Position {
	return Position{
		X: int32(binary.BigEndian.Uint32(b[0:4])),
		Y: int32(binary.BigEndian.Uint32(b[4:8])),
		W: binary.BigEndian.Uint16(b[8:10]),
		H: binary.BigEndian.Uint16(b[10:12]),
	}
}

func readLengthPrefixed(r io.Reader) (string, error) {
	return readLengthPrefixedCap(r, MaxTextLen)
}

func readLengthPrefixedCap(r io.Reader, cap int) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if int(n) > cap {
		return "", fmt.Errorf("%w: declared length %d exceeds cap %d", ErrOverflow, n, cap)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
