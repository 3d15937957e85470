// Package spectator implements the optional SpectatorBridge: a WebRTC
// relay that lets a browser watch the same mirrored video the device
// operator sees, without transcoding it. Signaling (offer/answer/ICE)
// travels over a gorilla/websocket connection, the same pairing the
// teacher's desktop session used for its WS control channel; the media
// path is pion/webrtc, grounded on the teacher's StartSession wiring.
package spectator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/wire"
)

const iceGatherTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// signalMessage is the JSON envelope exchanged over the signaling socket.
type signalMessage struct {
	Type      string `json:"type"`
	SDP       string `json:"sdp,omitempty"`
	Candidate string `json:"candidate,omitempty"`
}

// Bridge serves one browser spectator connection at a time; a second
// connection replaces the first, mirroring the device side's "only one
// active mirroring session" constraint.
type Bridge struct {
	iceServers []string

	mu    sync.Mutex
	track *webrtc.TrackLocalStaticSample
	pc    *webrtc.PeerConnection
	log   *slog.Logger
}

// New builds a Bridge. iceServers is a list of STUN/TURN URLs; nil uses
// Google's public STUN server.
func New(iceServers []string) *Bridge {
	return &Bridge{iceServers: iceServers, log: logging.L("spectator")}
}

// ServeHTTP upgrades the connection to a WebSocket and runs the signaling
// handshake, then keeps reading trickled ICE candidates until the
// signaling socket closes, so it returns only when the spectator goes
// away. Media flows independently of this goroutine via Push.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("spectator upgrade failed", logging.KeyError, err)
		return
	}
	defer conn.Close()

	if err := b.negotiate(conn); err != nil {
		b.log.Warn("spectator negotiation failed", logging.KeyError, err)
	}
}

func (b *Bridge) negotiate(conn *websocket.Conn) error {
	var offer signalMessage
	if err := conn.ReadJSON(&offer); err != nil {
		return fmt.Errorf("read offer: %w", err)
	}
	if offer.Type != "offer" {
		return fmt.Errorf("expected offer, got %q", offer.Type)
	}

	config := webrtc.Configuration{ICEServers: b.iceServerConfigs()}
	pc, err := webrtc.NewPeerConnection(config)
	if err != nil {
		return fmt.Errorf("create peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000},
		"video", "screenbridge",
	)
	if err != nil {
		pc.Close()
		return fmt.Errorf("create video track: %w", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		return fmt.Errorf("add video track: %w", err)
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		_ = conn.WriteJSON(signalMessage{Type: "ice-candidate", Candidate: c.ToJSON().Candidate})
	})

	done := make(chan struct{})
	var once sync.Once
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed ||
			state == webrtc.PeerConnectionStateDisconnected {
			once.Do(func() { close(done) })
		}
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer.SDP}); err != nil {
		pc.Close()
		return fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return fmt.Errorf("create answer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-time.After(iceGatherTimeout):
		pc.Close()
		return fmt.Errorf("ICE gathering timed out")
	}

	local := pc.LocalDescription()
	if local == nil {
		pc.Close()
		return fmt.Errorf("local description not available")
	}
	if err := conn.WriteJSON(signalMessage{Type: "answer", SDP: local.SDP}); err != nil {
		pc.Close()
		return fmt.Errorf("write answer: %w", err)
	}

	b.attach(pc, track)
	defer b.detach(pc)

	for {
		var msg signalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			<-done
			return nil
		}
		if msg.Type == "ice-candidate" && msg.Candidate != "" {
			_ = pc.AddICECandidate(webrtc.ICECandidateInit{Candidate: msg.Candidate})
		}
	}
}

func (b *Bridge) attach(pc *webrtc.PeerConnection, track *webrtc.TrackLocalStaticSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pc != nil {
		b.pc.Close()
	}
	b.pc, b.track = pc, track
}

func (b *Bridge) detach(pc *webrtc.PeerConnection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pc == pc {
		b.pc, b.track = nil, nil
	}
}

func (b *Bridge) iceServerConfigs() []webrtc.ICEServer {
	if len(b.iceServers) == 0 {
		return []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	}
	return []webrtc.ICEServer{{URLs: b.iceServers}}
}

// Push implements session.PacketSink: it relays the same combined access
// unit the Decoder and Recorder receive to the connected spectator, if
// any, as a single WebRTC media sample. No spectator connected is not an
// error — Push always returns true so a quiet browser tab never detaches
// the Broadcast.
func (b *Bridge) Push(pkt *wire.Packet) bool {
	b.mu.Lock()
	track := b.track
	b.mu.Unlock()
	if track == nil {
		return true
	}

	duration := 33 * time.Millisecond
	if err := track.WriteSample(media.Sample{Data: pkt.Payload, Duration: duration}); err != nil {
		b.log.Warn("spectator write sample failed", logging.KeyError, err)
	}
	return true
}

// Close tears down any active spectator connection.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pc != nil {
		_ = b.pc.Close()
		b.pc, b.track = nil, nil
	}
}
