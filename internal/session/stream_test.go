package session

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/breeze-rmm/screenbridge/internal/wire"
)

// fakeSink records every packet pushed to it.
type fakeSink struct {
	pushed []wire.Packet
	accept bool
}

func newFakeSink() *fakeSink { return &fakeSink{accept: true} }

func (f *fakeSink) Push(pkt *wire.Packet) bool {
	cp := *pkt
	cp.Payload = append([]byte(nil), pkt.Payload...)
	f.pushed = append(f.pushed, cp)
	return f.accept
}

func (f *fakeSink) Close() {}

type fakeReadCloser struct {
	*bytes.Reader
}

func (f fakeReadCloser) Close() error { return nil }

func encodeWirePacket(pts uint64, payload []byte) []byte {
	header := make([]byte, wire.PacketHeaderSize)
	binary.BigEndian.PutUint64(header[0:8], pts)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(payload)))
	return append(header, payload...)
}

func TestStreamCoalescesConfigOntoNextPacket(t *testing.T) {
	sps := []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0xAA}
	pps := []byte{0x00, 0x00, 0x00, 0x01, 0x68, 0xBB}
	idr := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0xCC}

	var stream bytes.Buffer
	stream.Write(encodeWirePacket(wire.NoPTS, sps))
	stream.Write(encodeWirePacket(wire.NoPTS, pps))
	stream.Write(encodeWirePacket(1000, idr))

	sink := newFakeSink()
	events := make(chan StreamStopped, 1)
	s := NewStream(fakeReadCloser{bytes.NewReader(stream.Bytes())}, sink, events)
	s.Run()

	ev := <-events
	if ev.Reason != StopEOS {
		t.Fatalf("expected clean EOS, got reason=%v err=%v", ev.Reason, ev.Err)
	}

	if len(sink.pushed) != 1 {
		t.Fatalf("expected exactly one combined packet, got %d", len(sink.pushed))
	}

	want := append(append(append([]byte{}, sps...), pps...), idr...)
	got := sink.pushed[0]
	if !bytes.Equal(got.Payload, want) {
		t.Fatalf("combined payload mismatch:\ngot  %x\nwant %x", got.Payload, want)
	}
	if got.PTS != 1000 {
		t.Fatalf("expected pts=1000, got %d", got.PTS)
	}
	if !got.KeyFrame {
		t.Fatal("expected combined packet to be flagged as key frame")
	}
}

func TestStreamNoDataPacketsDroppedOrDuplicated(t *testing.T) {
	var stream bytes.Buffer
	frames := [][]byte{
		{0x00, 0x00, 0x00, 0x01, 0x65, 0x01},
		{0x00, 0x00, 0x00, 0x01, 0x41, 0x02},
		{0x00, 0x00, 0x00, 0x01, 0x41, 0x03},
	}
	for i, f := range frames {
		stream.Write(encodeWirePacket(uint64(1000+i), f))
	}

	sink := newFakeSink()
	events := make(chan StreamStopped, 1)
	s := NewStream(fakeReadCloser{bytes.NewReader(stream.Bytes())}, sink, events)
	s.Run()
	<-events

	if len(sink.pushed) != len(frames) {
		t.Fatalf("expected %d packets pushed, got %d", len(frames), len(sink.pushed))
	}
	for i, pkt := range sink.pushed {
		if pkt.PTS != uint64(1000+i) {
			t.Fatalf("packet %d: pts mismatch got %d want %d", i, pkt.PTS, 1000+i)
		}
	}
}

func TestStreamZeroLengthPacketTerminates(t *testing.T) {
	header := make([]byte, wire.PacketHeaderSize)
	binary.BigEndian.PutUint64(header[0:8], 5)
	binary.BigEndian.PutUint32(header[8:12], 0)

	sink := newFakeSink()
	events := make(chan StreamStopped, 1)
	s := NewStream(fakeReadCloser{bytes.NewReader(header)}, sink, events)
	s.Run()

	ev := <-events
	if ev.Reason != StopError {
		t.Fatalf("expected StopError for zero-length packet, got %v", ev.Reason)
	}
}

var _ io.Closer = fakeReadCloser{}
