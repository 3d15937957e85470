// Package wire implements the video and control wire formats exchanged
// with the device agent: a framed H.264 access-unit stream inbound, and a
// serialized control-message stream outbound.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// NoPTS is the sentinel pts value marking a config packet (SPS/PPS), never
// a renderable frame.
const NoPTS = ^uint64(0)

// PacketHeaderSize is the fixed size, in bytes, of a video packet header:
// 8 bytes pts, 4 bytes size.
const PacketHeaderSize = 12

// ErrShortRead is returned when the header is truncated — a clean
// end-of-stream condition, not a protocol violation.
var ErrShortRead = errors.New("wire: short read on packet header")

// ErrZeroLength is returned when a packet declares a zero payload size,
// which is malformed and ends the stream.
var ErrZeroLength = errors.New("wire: packet declares zero length")

// Packet is one record of the video wire stream.
type Packet struct {
	PTS     uint64
	Payload []byte
	// KeyFrame is set by the Stream worker after H.264 parsing identifies
	// the access unit as an IDR; it is never set by ReadPacket itself.
	KeyFrame bool
}

// IsConfig reports whether this packet carries codec parameters rather
// than a renderable frame.
func (p *Packet) IsConfig() bool {
	return p.PTS == NoPTS
}

// ReadPacket reads one framed video packet from r. It returns io.EOF when
// the stream ends cleanly before any header byte is read. A header
// truncated after at least one byte returns ErrShortRead, which callers
// should treat the same as a clean end-of-stream per the wire contract —
// not a protocol error to surface to the user.
func ReadPacket(r io.Reader) (*Packet, error) {
	var header [PacketHeaderSize]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, ErrShortRead
	}

	pts := binary.BigEndian.Uint64(header[0:8])
	size := binary.BigEndian.Uint32(header[8:12])
	if size == 0 {
		return nil, ErrZeroLength
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, ErrShortRead
	}

	return &Packet{PTS: pts, Payload: payload}, nil
}
