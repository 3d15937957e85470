// Package server implements the session setup and teardown state machine:
// pushing the agent jar, negotiating a tunnel, spawning the remote agent,
// and establishing the video and control sockets.
package server

import (
	"context"
	"fmt"
	"net"
	"path"
	"strconv"
	"time"

	"github.com/breeze-rmm/screenbridge/internal/devicebridge"
)

// State is a node in the session setup state machine.
type State int

const (
	StateInit State = iota
	StateServerPushed
	StateDirectIP
	StateTunnelReverse
	StateTunnelForward
	StateSocketsBound
	StateAgentSpawned
	StateSocketsAccepted
	StateSocketsConnected
	StateReady
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateServerPushed:
		return "server_pushed"
	case StateDirectIP:
		return "direct_ip"
	case StateTunnelReverse:
		return "tunnel_reverse"
	case StateTunnelForward:
		return "tunnel_forward"
	case StateSocketsBound:
		return "sockets_bound"
	case StateAgentSpawned:
		return "agent_spawned"
	case StateSocketsAccepted:
		return "sockets_accepted"
	case StateSocketsConnected:
		return "sockets_connected"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Params controls agent spawning. Apart from Serial and SocketName, which
// drive tunnel setup, the fields feed the fixed-order agent argument
// vector built by argv.
type Params struct {
	Serial           string
	AgentJarPath     string
	AgentClasspath   string
	SocketName       string
	LocalPort        int
	MaxSize          int
	BitRateBps       int
	CropOrDash       string
	Control          bool
	Density          int
	Size             string
	Tablet           bool
	UseIME           bool
	SpawnMode        string
}

func boolFlag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// argv builds the fixed-order remote argument vector. send_frame_meta is
// always true: the host stream reader requires the 12-byte per-packet
// header unconditionally.
func (p Params) argv(tunnelForward bool) []string {
	cropOrDash := p.CropOrDash
	if cropOrDash == "" {
		cropOrDash = "-"
	}
	return []string{
		"CLASSPATH=" + p.AgentJarPath,
		"app_process",
		"/",
		p.AgentClasspath,
		strconv.Itoa(p.MaxSize),
		strconv.Itoa(p.BitRateBps),
		boolFlag(tunnelForward),
		cropOrDash,
		"true", // send_frame_meta
		boolFlag(p.Control),
		strconv.Itoa(p.Density),
		p.Size,
		boolFlag(p.Tablet),
		strconv.Itoa(p.LocalPort),
		boolFlag(p.UseIME),
		p.SpawnMode,
	}
}

// Server drives the state machine described in the component design:
// Init → ServerPushed → (DirectIP|TunnelReverse|TunnelForward) →
// SocketsBound → AgentSpawned → SocketsAccepted|SocketsConnected → Ready →
// Stopping → Stopped.
type Server struct {
	bridge *devicebridge.Bridge
	params Params

	state         State
	tunnelForward bool
	directIP      bool
	directAddr    net.IP

	listener net.Listener
	video    net.Conn
	control  net.Conn
	proc     *devicebridge.ProcessHandle
}

func New(bridge *devicebridge.Bridge, params Params) *Server {
	return &Server{bridge: bridge, params: params, state: StateInit}
}

func (s *Server) State() State { return s.state }

// dialHost is the host we connect to for the video/control sockets: the
// device's own IP in direct-IP mode (no tunnel exists), 127.0.0.1 otherwise.
func (s *Server) dialHost() string {
	if s.directIP {
		return s.directAddr.String()
	}
	return "127.0.0.1"
}

// Start runs steps 1-5 of the setup contract: push the agent, negotiate a
// tunnel (or detect direct IP), bind a local listener if needed, and spawn
// the remote process. On any failure, everything already set up is
// unwound in reverse order before returning.
func (s *Server) Start(ctx context.Context) (err error) {
	var unwind []func()
	defer func() {
		if err != nil {
			for i := len(unwind) - 1; i >= 0; i-- {
				unwind[i]()
			}
			s.state = StateInit
		}
	}()

	jarName := path.Base(s.params.AgentJarPath)
	remotePath := "/data/local/tmp/" + jarName
	if err = s.bridge.Push(ctx, s.params.AgentJarPath, remotePath); err != nil {
		return fmt.Errorf("server: push agent: %w", err)
	}
	s.params.AgentJarPath = remotePath
	s.state = StateServerPushed

	if ip, _, ok := devicebridge.ConnectHint(s.params.Serial); ok {
		s.directIP = true
		s.directAddr = ip
		s.tunnelForward = true
		s.state = StateDirectIP
	} else if err = s.bridge.ReverseAdd(ctx, s.params.SocketName, s.params.LocalPort); err == nil {
		s.tunnelForward = false
		s.state = StateTunnelReverse
		unwind = append(unwind, func() {
			_ = s.bridge.ReverseRemove(context.Background(), s.params.SocketName)
		})
	} else {
		s.tunnelForward = true
		if err = s.bridge.ForwardAdd(ctx, s.params.LocalPort, s.params.SocketName); err != nil {
			return fmt.Errorf("server: neither reverse nor forward tunnel could be established: %w", err)
		}
		s.state = StateTunnelForward
		unwind = append(unwind, func() {
			_ = s.bridge.ForwardRemove(context.Background(), s.params.LocalPort)
		})
	}

	if !s.tunnelForward {
		lc := net.ListenConfig{}
		listener, lerr := lc.Listen(ctx, "tcp4", fmt.Sprintf("127.0.0.1:%d", s.params.LocalPort))
		if lerr != nil {
			err = fmt.Errorf("server: bind local listener: %w", lerr)
			return err
		}
		s.listener = listener
		s.state = StateSocketsBound
		unwind = append(unwind, func() {
			_ = s.listener.Close()
			s.listener = nil
		})
	}

	proc, perr := s.bridge.Execute(ctx, s.params.argv(s.tunnelForward)...)
	if perr != nil {
		err = fmt.Errorf("server: spawn agent: %w", perr)
		return err
	}
	s.proc = proc
	s.state = StateAgentSpawned
	unwind = append(unwind, func() {
		s.bridge.Terminate(s.proc)
		s.bridge.Wait(s.proc)
		s.proc = nil
	})

	return nil
}

// Connect establishes the video and control sockets per the connect
// contract, then tears down the tunnel (reverse or forward) since the
// sockets remain valid without it.
func (s *Server) Connect(ctx context.Context) error {
	var err error
	if s.tunnelForward {
		s.video, err = s.pollConnectWithProbe(ctx)
		if err != nil {
			return fmt.Errorf("server: connect video socket: %w", err)
		}
		dialer := net.Dialer{}
		s.control, err = dialer.DialContext(ctx, "tcp4", fmt.Sprintf("%s:%d", s.dialHost(), s.params.LocalPort))
		if err != nil {
			return fmt.Errorf("server: connect control socket: %w", err)
		}
		s.state = StateSocketsConnected
	} else {
		s.video, err = s.listener.Accept()
		if err != nil {
			return fmt.Errorf("server: accept video socket: %w", err)
		}
		s.control, err = s.listener.Accept()
		if err != nil {
			return fmt.Errorf("server: accept control socket: %w", err)
		}
		_ = s.listener.Close()
		s.listener = nil
		s.state = StateSocketsAccepted
	}

	if !s.directIP {
		if s.tunnelForward {
			_ = s.bridge.ForwardRemove(context.Background(), s.params.LocalPort)
		} else {
			_ = s.bridge.ReverseRemove(context.Background(), s.params.SocketName)
		}
	}

	s.state = StateReady
	return nil
}

// pollConnectWithProbe connects up to 100 times at 100ms intervals,
// treating an empty single-byte read as "not ready yet" rather than an
// error, per the connect contract.
func (s *Server) pollConnectWithProbe(ctx context.Context) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", s.dialHost(), s.params.LocalPort)
	dialer := net.Dialer{}

	var lastErr error
	for attempt := 0; attempt < 100; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp4", addr)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		probe := make([]byte, 1)
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, rerr := conn.Read(probe)
		_ = conn.SetReadDeadline(time.Time{})
		if n > 0 {
			return conn, nil
		}
		_ = conn.Close()
		lastErr = rerr
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("agent did not become ready after 100 attempts: %w", lastErr)
}

// VideoConn and ControlConn expose the established sockets to Stream and
// Controller workers once the session is Ready.
func (s *Server) VideoConn() net.Conn   { return s.video }
func (s *Server) ControlConn() net.Conn { return s.control }

// Stop shuts down any remaining sockets, terminates the agent process,
// waits for it, and removes any surviving tunnel. Idempotent: closing an
// already-closed socket is a no-op beyond the redundant syscall error,
// which is discarded here exactly as a second close should be.
func (s *Server) Stop(ctx context.Context) {
	if s.state == StateStopped {
		return
	}
	s.state = StateStopping

	if s.video != nil {
		_ = s.video.Close()
		s.video = nil
	}
	if s.control != nil {
		_ = s.control.Close()
		s.control = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}

	if s.proc != nil {
		s.bridge.Terminate(s.proc)
		s.bridge.Wait(s.proc)
		s.proc = nil
	}

	if !s.directIP {
		if s.tunnelForward {
			_ = s.bridge.ForwardRemove(ctx, s.params.LocalPort)
		} else {
			_ = s.bridge.ReverseRemove(ctx, s.params.SocketName)
		}
	}

	s.state = StateStopped
}
