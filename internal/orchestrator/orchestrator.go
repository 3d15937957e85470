// Package orchestrator wires Server, Stream, Controller, and
// InputTranslator into the top-level session event loop: the single
// place that owns shutdown order, the keep-alive timer, and the optional
// Recorder/RecordingArchiver/SpectatorBridge/HostDiagnostics components.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/breeze-rmm/screenbridge/internal/diagnostics"
	"github.com/breeze-rmm/screenbridge/internal/input"
	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/recorder"
	"github.com/breeze-rmm/screenbridge/internal/server"
	"github.com/breeze-rmm/screenbridge/internal/session"
	"github.com/breeze-rmm/screenbridge/internal/wire"
)

const keepAliveInterval = 1500 * time.Millisecond

// diagnosticsEvery subdivides the keep-alive timer per SPEC_FULL §4.11:
// a slower 60s sampling cadence riding the same ticker instead of a
// second goroutine. 1500ms * 40 = 60s.
const diagnosticsEvery = 40

// rotationHintInterval rate-limits SendRotation to at most once a second.
const rotationHintInterval = time.Second

// archiveGracePeriod bounds how long finishRecording waits for an archive
// upload before shutdown continues without it.
const archiveGracePeriod = 5 * time.Second

// StopReason describes why Run returned.
type StopReason string

const (
	StoppedByEOS   StopReason = "stopped by EOS"
	StoppedByUser  StopReason = "stopped by user"
	StoppedByError StopReason = "stopped by error"
)

// Archiver uploads a finished recording; satisfied by *archive.Archiver.
type Archiver interface {
	Archive(ctx context.Context, m recorder.Manifest) error
}

// Config bundles everything Run needs beyond the live Server/session
// workers. Controller and Translator are required; the rest is optional.
type Config struct {
	Server     *server.Server
	Controller *session.Controller
	Translator *input.Translator

	// Recorder, if non-nil, is the Recorder the caller attached to the
	// Stream's Broadcast; its manifest is archived via Archiver when the
	// session ends.
	Recorder *recorder.Recorder
	Archiver Archiver

	Diagnostics *diagnostics.Sampler
}

// Orchestrator runs the session event loop described in spec.md §4.7,
// extended with diagnostics sampling and recording archival.
type Orchestrator struct {
	cfg Config
	log *slog.Logger

	geomMu       sync.Mutex
	geom         input.WindowGeometry
	haveFrame    bool
	lastRotation time.Time
}

// New builds an Orchestrator. cfg.Server/Controller/Translator must be
// started (Connect/Run already called) before Run is invoked.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, log: logging.L("orchestrator")}
}

// Event is a UI or stream occurrence fed into the event loop.
type Event struct {
	Kind          EventKind
	Geometry      input.WindowGeometry
	Key           input.KeyEvent
	MouseButton   input.MouseButtonEvent
	MouseMotion   input.MouseMotionEvent
	Wheel         input.WheelEvent
	Finger        input.FingerEvent
	Text          input.TextEvent
	StreamStopped session.StreamStopped
}

type EventKind int

const (
	EventNewFrame EventKind = iota
	EventWindowResized
	EventWindowExposed
	EventStreamStopped
	EventQuit
	EventKey
	EventMouseButton
	EventMouseMotion
	EventWheel
	EventFinger
	EventText
)

// Run drives the event loop until a stream stop, a quit request, or ctx
// cancellation. events must be fed by the caller's UI front end and the
// Stream worker's StreamStopped channel, merged into one stream — the
// window toolkit itself is out of scope here.
func (o *Orchestrator) Run(ctx context.Context, events <-chan Event) StopReason {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	var ticks int
	for {
		select {
		case <-ctx.Done():
			return StoppedByError

		case <-ticker.C:
			o.cfg.Controller.Push(wire.Command{Which: wire.CommandPing})
			ticks++
			if o.cfg.Diagnostics != nil && ticks%diagnosticsEvery == 0 {
				snap := o.cfg.Diagnostics.Sample(ctx)
				o.log.Debug("host diagnostics", snap.LogFields()...)
			} else {
				o.log.Debug("keep-alive ping")
			}

		case ev, ok := <-events:
			if !ok {
				return StoppedByError
			}
			if reason, done := o.handle(ctx, ev); done {
				return reason
			}
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev Event) (StopReason, bool) {
	switch ev.Kind {
	case EventNewFrame:
		o.geomMu.Lock()
		first := !o.haveFrame
		o.haveFrame = true
		o.geomMu.Unlock()
		if first {
			o.log.Info("first frame received")
		}
		o.maybeSendRotation(ev.Geometry)

	case EventWindowResized, EventWindowExposed:
		o.maybeSendRotation(ev.Geometry)

	case EventStreamStopped:
		o.finishRecording(ctx)
		if ev.StreamStopped.Reason == session.StopEOS {
			return StoppedByEOS, true
		}
		o.log.Warn("stream stopped with error", logging.KeyError, ev.StreamStopped.Err)
		return StoppedByError, true

	case EventQuit:
		o.cfg.Controller.Push(wire.Command{Which: wire.CommandQuit})
		o.finishRecording(ctx)
		return StoppedByUser, true

	case EventKey:
		if o.dispatch(o.cfg.Translator.HandleKey(ev.Key)) {
			o.finishRecording(ctx)
			return StoppedByUser, true
		}
	case EventMouseButton:
		if o.dispatch(o.cfg.Translator.HandleMouseButton(ev.MouseButton, o.currentGeom())) {
			o.finishRecording(ctx)
			return StoppedByUser, true
		}
	case EventMouseMotion:
		if o.dispatch(o.cfg.Translator.HandleMouseMotion(ev.MouseMotion, o.currentGeom())) {
			o.finishRecording(ctx)
			return StoppedByUser, true
		}
	case EventWheel:
		if o.dispatch(o.cfg.Translator.HandleWheel(ev.Wheel, o.currentGeom())) {
			o.finishRecording(ctx)
			return StoppedByUser, true
		}
	case EventFinger:
		if o.dispatch(o.cfg.Translator.HandleFinger(ev.Finger, o.currentGeom())) {
			o.finishRecording(ctx)
			return StoppedByUser, true
		}
	case EventText:
		o.dispatch(o.cfg.Translator.HandleText(ev.Text))
	}
	return "", false
}

func (o *Orchestrator) currentGeom() input.WindowGeometry {
	o.geomMu.Lock()
	defer o.geomMu.Unlock()
	return o.geom
}

func (o *Orchestrator) maybeSendRotation(geom input.WindowGeometry) {
	o.geomMu.Lock()
	o.geom = geom
	due := time.Since(o.lastRotation) >= rotationHintInterval
	if due {
		o.lastRotation = time.Now()
	}
	o.geomMu.Unlock()
	if !due {
		return
	}
	o.dispatch(o.cfg.Translator.SendRotation(geom))
}

// dispatch pushes an Outcome's control messages and reports whether the
// translator signalled that the session should end. HostAction is reported
// to the caller's front end via the return value of the handler that
// produced it in a full implementation — out of scope for this package,
// which only owns protocol-facing effects.
func (o *Orchestrator) dispatch(out input.Outcome) bool {
	for _, msg := range out.Messages {
		o.cfg.Controller.Push(msg)
	}
	return out.Quit
}

func (o *Orchestrator) finishRecording(ctx context.Context) {
	if o.cfg.Recorder == nil {
		return
	}
	manifest := o.cfg.Recorder.Manifest()
	if o.cfg.Archiver == nil {
		return
	}
	done := make(chan error, 1)
	go func() { done <- o.cfg.Archiver.Archive(ctx, manifest) }()
	select {
	case err := <-done:
		if err != nil {
			o.log.Warn("recording archive failed", logging.KeyError, err)
		}
	case <-time.After(archiveGracePeriod):
		o.log.Warn("recording archive still running after grace period, continuing shutdown")
	}
}
