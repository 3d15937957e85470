package session

import (
	"errors"
	"io"
	"log/slog"

	"github.com/breeze-rmm/screenbridge/internal/h264"
	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/wire"
)

// StopReason distinguishes a clean end-of-stream from an unrecoverable
// I/O error, so the orchestrator can report the right exit status.
type StopReason int

const (
	StopEOS StopReason = iota
	StopError
)

// StreamStopped is posted to the orchestrator when the Stream worker
// exits, for any reason.
type StreamStopped struct {
	Reason StopReason
	Err    error
}

// Stream is the background worker that owns the video socket: it reads
// framed packets, coalesces config packets onto the following data
// packet, flags key frames, and dispatches to the attached PacketSink.
type Stream struct {
	conn   io.ReadCloser
	sink   PacketSink
	events chan<- StreamStopped
	log    *slog.Logger
}

// NewStream builds a Stream worker over conn, dispatching combined access
// units to sink. events receives exactly one StreamStopped when Run returns.
func NewStream(conn io.ReadCloser, sink PacketSink, events chan<- StreamStopped) *Stream {
	return &Stream{conn: conn, sink: sink, events: events, log: logging.L("stream")}
}

// Run blocks reading packets until EOS, a protocol error, or the sink
// detaches itself. It always posts exactly one StreamStopped on exit and
// closes the sink in reverse initialization order before returning.
func (s *Stream) Run() {
	var pending []byte
	reason := StopEOS
	var runErr error

loop:
	for {
		pkt, err := wire.ReadPacket(s.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, wire.ErrShortRead) {
				reason = StopEOS
			} else {
				reason = StopError
				runErr = err
				s.log.Warn("stream read error", logging.KeyError, err)
			}
			break loop
		}

		if pkt.IsConfig() {
			pending = append(pending, pkt.Payload...)
			continue
		}

		if len(pending) > 0 {
			combined := make([]byte, 0, len(pending)+len(pkt.Payload))
			combined = append(combined, pending...)
			combined = append(combined, pkt.Payload...)
			pkt.Payload = combined
			pending = nil
		}

		pkt.KeyFrame = h264.ContainsIDR(pkt.Payload)

		if !s.sink.Push(pkt) {
			reason = StopError
			runErr = errors.New("stream: packet sink detached (decoder interrupted)")
			break loop
		}
	}

	s.sink.Close()
	_ = s.conn.Close()
	s.events <- StreamStopped{Reason: reason, Err: runErr}
}
