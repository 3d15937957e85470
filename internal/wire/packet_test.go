package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func encodeHeader(pts uint64, size uint32) []byte {
	buf := make([]byte, PacketHeaderSize)
	binary.BigEndian.PutUint64(buf[0:8], pts)
	binary.BigEndian.PutUint32(buf[8:12], size)
	return buf
}

func TestReadPacketDataPacket(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0xAA}
	var buf bytes.Buffer
	buf.Write(encodeHeader(1000, uint32(len(payload))))
	buf.Write(payload)

	pkt, err := ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt.PTS != 1000 || !bytes.Equal(pkt.Payload, payload) {
		t.Fatalf("unexpected packet: %+v", pkt)
	}
	if pkt.IsConfig() {
		t.Fatal("data packet misidentified as config")
	}
}

func TestReadPacketConfigSentinel(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x01, 0x67}
	var buf bytes.Buffer
	buf.Write(encodeHeader(NoPTS, uint32(len(payload))))
	buf.Write(payload)

	pkt, err := ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !pkt.IsConfig() {
		t.Fatal("expected config packet for NoPTS sentinel")
	}
}

func TestReadPacketZeroSizeTerminatesStream(t *testing.T) {
	buf := bytes.NewBuffer(encodeHeader(0, 0))
	_, err := ReadPacket(buf)
	if !errors.Is(err, ErrZeroLength) {
		t.Fatalf("expected ErrZeroLength, got %v", err)
	}
}

func TestReadPacketTruncatedHeaderIsCleanEOS(t *testing.T) {
	full := encodeHeader(1, 4)
	truncated := full[:PacketHeaderSize-1]
	_, err := ReadPacket(bytes.NewReader(truncated))
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestReadPacketEmptyStreamIsEOF(t *testing.T) {
	_, err := ReadPacket(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}
