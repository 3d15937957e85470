package recorder

import (
	"errors"
	"testing"

	"github.com/breeze-rmm/screenbridge/internal/wire"
)

type fakeMuxer struct {
	initCalls    int
	sps, pps     []byte
	samples      []Sample
	initErr      error
	writeErr     error
	closeErr     error
	closeCalled  bool
}

func (f *fakeMuxer) Init(sps, pps []byte) error {
	f.initCalls++
	f.sps, f.pps = sps, pps
	return f.initErr
}

func (f *fakeMuxer) WriteSample(s Sample) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeMuxer) Close() error {
	f.closeCalled = true
	return f.closeErr
}

func nal(t byte, body ...byte) []byte {
	return append([]byte{t & 0x1f}, body...)
}

func annexB(nals ...[]byte) []byte {
	var out []byte
	for _, n := range nals {
		out = append(out, 0, 0, 0, 1)
		out = append(out, n...)
	}
	return out
}

func TestRecorderInitializesOnFirstConfigBearingPacket(t *testing.T) {
	mux := &fakeMuxer{}
	r := New(mux, "SERIAL123", "/tmp/out.mp4")

	sps := nal(7, 1, 2, 3)
	pps := nal(8, 4, 5)
	idr := nal(5, 9, 9)
	payload := annexB(sps, pps, idr)

	ok := r.Push(&wire.Packet{PTS: 1000, Payload: payload, KeyFrame: true})
	if !ok {
		t.Fatal("expected Push to return true")
	}
	if mux.initCalls != 1 {
		t.Fatalf("expected exactly one Init call, got %d", mux.initCalls)
	}
	if len(mux.samples) != 1 {
		t.Fatalf("expected one sample written, got %d", len(mux.samples))
	}
	if !mux.samples[0].KeyFrame {
		t.Fatal("expected sample to be flagged as key frame")
	}
}

func TestRecorderWaitsForConfigBeforeInitializing(t *testing.T) {
	mux := &fakeMuxer{}
	r := New(mux, "SERIAL", "/tmp/out.mp4")

	ok := r.Push(&wire.Packet{PTS: 1, Payload: annexB(nal(5, 1))})
	if !ok {
		t.Fatal("expected Push to return true while waiting for config")
	}
	if mux.initCalls != 0 {
		t.Fatal("expected no Init call before SPS/PPS seen")
	}
	if len(mux.samples) != 0 {
		t.Fatal("expected no sample written before initialization")
	}
}

func TestRecorderDetachesOnInitFailure(t *testing.T) {
	mux := &fakeMuxer{initErr: errors.New("boom")}
	r := New(mux, "SERIAL", "/tmp/out.mp4")

	payload := annexB(nal(7, 1), nal(8, 2), nal(5, 3))
	if r.Push(&wire.Packet{PTS: 1, Payload: payload}) {
		t.Fatal("expected Push to return false after init failure")
	}
	if r.Push(&wire.Packet{PTS: 2, Payload: annexB(nal(5, 4))}) {
		t.Fatal("expected subsequent Push to keep returning false without retrying")
	}
	if mux.initCalls != 1 {
		t.Fatalf("expected Init to be attempted exactly once, got %d", mux.initCalls)
	}
}

func TestRecorderDetachesOnWriteFailure(t *testing.T) {
	mux := &fakeMuxer{}
	r := New(mux, "SERIAL", "/tmp/out.mp4")

	payload := annexB(nal(7, 1), nal(8, 2), nal(5, 3))
	if !r.Push(&wire.Packet{PTS: 1, Payload: payload}) {
		t.Fatal("expected successful init+write")
	}

	mux.writeErr = errors.New("disk full")
	if r.Push(&wire.Packet{PTS: 2, Payload: annexB(nal(5, 9))}) {
		t.Fatal("expected Push to return false after write failure")
	}
	if r.Push(&wire.Packet{PTS: 3, Payload: annexB(nal(5, 9))}) {
		t.Fatal("expected Push to keep returning false after detaching")
	}
}

func TestRecorderCloseFinalizesManifest(t *testing.T) {
	mux := &fakeMuxer{}
	r := New(mux, "SERIAL", "/tmp/out.mp4")

	payload := annexB(nal(7, 1), nal(8, 2), nal(5, 3))
	r.Push(&wire.Packet{PTS: 1, Payload: payload, KeyFrame: true})
	r.Close()

	if !mux.closeCalled {
		t.Fatal("expected muxer Close to be called")
	}
	m := r.Manifest()
	if m.FrameCount != 1 {
		t.Fatalf("expected FrameCount=1, got %d", m.FrameCount)
	}
	if m.EndedAt.Before(m.StartedAt) {
		t.Fatal("expected EndedAt >= StartedAt")
	}
}
