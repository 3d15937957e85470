// Package recorder implements the Recorder PacketSink: it repackages the
// same Annex-B access units the wire protocol already carries into an
// ISOBMFF container, without decoding or re-encoding anything.
package recorder

import (
	"log/slog"
	"time"

	"github.com/breeze-rmm/screenbridge/internal/h264"
	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/wire"
)

// Sample is one decodable access unit handed to the muxer.
type Sample struct {
	PTS      uint64
	DTS      uint64
	Data     []byte
	KeyFrame bool
}

// Muxer receives the session's SPS/PPS once, then one sample per
// non-config access unit, and produces a container file on Close. The
// mp4ff-backed implementation lives in mp4ff_muxer.go; Recorder itself
// only knows this interface, so it is trivially testable without a real
// container library.
type Muxer interface {
	Init(sps, pps []byte) error
	WriteSample(s Sample) error
	Close() error
}

// Manifest is the metadata RecordingArchiver and the session-end log line
// use to describe a finished recording.
type Manifest struct {
	Serial     string
	StartedAt  time.Time
	EndedAt    time.Time
	FrameCount int
	ByteCount  int64
	OutputPath string
}

// Recorder implements session.PacketSink. It is independent of whether a
// Decoder is also attached — Stream fans the same combined packet out to
// both via Broadcast.
type Recorder struct {
	muxer       Muxer
	manifest    *Manifest
	initialized bool
	failed      bool
	log         *slog.Logger
}

// New builds a Recorder writing through muxer. serial and outputPath are
// recorded into the manifest returned by Manifest.
func New(muxer Muxer, serial, outputPath string) *Recorder {
	return &Recorder{
		muxer: muxer,
		manifest: &Manifest{
			Serial:     serial,
			StartedAt:  time.Now(),
			OutputPath: outputPath,
		},
		log: logging.L("recorder"),
	}
}

// Push implements session.PacketSink. A muxer failure detaches the
// Recorder for the rest of the session (by returning false) rather than
// retrying every subsequent access unit — matching the RecordingError
// policy that a second failure must not spam the log.
func (r *Recorder) Push(pkt *wire.Packet) bool {
	if r.failed {
		return false
	}

	sps, pps, slice := splitConfigAndSlice(pkt.Payload)

	if !r.initialized {
		if len(sps) == 0 || len(pps) == 0 {
			// First access unit arrived before any config packet was
			// coalesced onto it; nothing to initialize the track with
			// yet. Wait for a later access unit that does carry one.
			return true
		}
		if err := r.muxer.Init(sps, pps); err != nil {
			r.log.Error("recorder init failed, detaching sink", logging.KeyError, err)
			r.failed = true
			return false
		}
		r.initialized = true
	}

	if len(slice) == 0 {
		return true
	}

	if err := r.muxer.WriteSample(Sample{PTS: pkt.PTS, DTS: pkt.PTS, Data: slice, KeyFrame: pkt.KeyFrame}); err != nil {
		r.log.Error("recorder write failed, detaching sink", logging.KeyError, err)
		r.failed = true
		return false
	}

	r.manifest.FrameCount++
	r.manifest.ByteCount += int64(len(pkt.Payload))
	return true
}

// Close finalizes the container file and the manifest's end time.
func (r *Recorder) Close() {
	r.manifest.EndedAt = time.Now()
	if err := r.muxer.Close(); err != nil {
		r.log.Error("recorder close failed", logging.KeyError, err)
	}
}

// Manifest returns the manifest accumulated so far. Safe to call after
// Close.
func (r *Recorder) Manifest() Manifest { return *r.manifest }

// splitConfigAndSlice separates SPS/PPS NAL units (start codes stripped,
// for the sample description) from the remaining slice NAL units (kept in
// their original Annex-B framing, for the sample data).
func splitConfigAndSlice(payload []byte) (sps, pps, slice []byte) {
	for _, nal := range h264.Split(payload) {
		switch h264.Type(nal) {
		case h264.TypeSPS:
			sps = append([]byte(nil), nal...)
		case h264.TypePPS:
			pps = append([]byte(nil), nal...)
		case h264.TypeSEI:
			// dropped from the sample; not needed for playback.
		default:
			slice = append(slice, 0, 0, 0, 1)
			slice = append(slice, nal...)
		}
	}
	return sps, pps, slice
}
