package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screenbridge/internal/archive"
	"github.com/breeze-rmm/screenbridge/internal/clipboard"
	"github.com/breeze-rmm/screenbridge/internal/config"
	"github.com/breeze-rmm/screenbridge/internal/devicebridge"
	"github.com/breeze-rmm/screenbridge/internal/diagnostics"
	"github.com/breeze-rmm/screenbridge/internal/input"
	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/orchestrator"
	"github.com/breeze-rmm/screenbridge/internal/recorder"
	"github.com/breeze-rmm/screenbridge/internal/server"
	"github.com/breeze-rmm/screenbridge/internal/session"
	"github.com/breeze-rmm/screenbridge/internal/spectator"
)

var (
	runSerial  string
	runControl bool
	runTablet  bool
	runMaxSize int
	runBitRate int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start mirroring and controlling a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession()
	},
}

func init() {
	runCmd.Flags().StringVar(&runSerial, "serial", "", "device serial or host:port (default: first device found)")
	runCmd.Flags().BoolVar(&runControl, "control", true, "enable input control")
	runCmd.Flags().BoolVar(&runTablet, "tablet", false, "treat the device as a tablet (enables rotation hints)")
	runCmd.Flags().IntVar(&runMaxSize, "max-size", 0, "maximum video dimension, 0 means unlimited")
	runCmd.Flags().IntVar(&runBitRate, "bit-rate", 8_000_000, "video bit rate in bits/sec")
}

func runSession() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.L("main")

	serial := runSerial
	if serial == "" {
		serial = cfg.Serial
	}

	bridge := devicebridge.New(cfg.DeviceBridgePath, serial)

	params := server.Params{
		Serial:         serial,
		AgentJarPath:   cfg.AgentJarPath,
		AgentClasspath: cfg.AgentClasspath,
		SocketName:     cfg.DeviceSocketName,
		LocalPort:      27183,
		MaxSize:        runMaxSize,
		BitRateBps:     runBitRate,
		Control:        runControl,
		Tablet:         runTablet,
		UseIME:         true,
		SpawnMode:      "mirror",
	}
	srv := server.New(bridge, params)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if err := srv.Connect(ctx); err != nil {
		srv.Stop(ctx)
		return fmt.Errorf("connect session: %w", err)
	}
	defer srv.Stop(context.Background())

	controller := session.New(srv.ControlConn(), cfg.ControlQueueSize)
	go controller.Run()
	defer controller.Stop()

	built, cleanup, err := buildSinks(ctx, cfg, serial)
	if err != nil {
		log.Warn("optional sink setup failed, continuing without it", logging.KeyError, err)
	}
	defer cleanup()
	broadcast := session.NewBroadcast(built.sinks...)

	events := make(chan orchestrator.Event, 4)
	streamEvents := make(chan session.StreamStopped, 1)
	stream := session.NewStream(srv.VideoConn(), broadcast, streamEvents)
	go stream.Run()

	go func() {
		select {
		case s := <-streamEvents:
			events <- orchestrator.Event{Kind: orchestrator.EventStreamStopped, StreamStopped: s}
		case <-ctx.Done():
		}
	}()
	go func() {
		select {
		case <-sigCh:
			events <- orchestrator.Event{Kind: orchestrator.EventQuit}
		case <-ctx.Done():
		}
	}()

	translator := &input.Translator{
		ControlEnabled: runControl,
		IMEEnabled:     true,
		Clipboard:      clipboard.New(),
	}

	orch := orchestrator.New(orchestrator.Config{
		Server:      srv,
		Controller:  controller,
		Translator:  translator,
		Recorder:    built.recorder,
		Archiver:    built.archiver,
		Diagnostics: diagnostics.NewSampler(),
	})

	log.Info("session ready", logging.KeySerial, serial)
	reason := orch.Run(ctx, events)
	log.Info("session ended", "reason", reason)
	return nil
}

// builtSinks bundles everything buildSinks assembled: the PacketSinks to
// attach to the Broadcast, plus the Recorder/Archiver pair the
// orchestrator archives through on stream stop, when recording is on.
type builtSinks struct {
	sinks    []session.PacketSink
	recorder *recorder.Recorder
	archiver orchestrator.Archiver
}

// buildSinks assembles the optional Recorder and SpectatorBridge sinks
// named by cfg, returning a cleanup func that is always safe to call
// (even on partial setup failure).
func buildSinks(ctx context.Context, cfg *config.Config, serial string) (builtSinks, func(), error) {
	var built builtSinks
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Recording.Enabled {
		outPath := filepath.Join(cfg.Recording.OutputDir, recordingFileName(serial))
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return built, cleanup, fmt.Errorf("create recording output dir: %w", err)
		}
		muxer, err := recorder.NewFileMuxer(outPath)
		if err != nil {
			return built, cleanup, fmt.Errorf("open recording file: %w", err)
		}
		rec := recorder.New(muxer, serial, outPath)
		built.recorder = rec
		built.sinks = append(built.sinks, rec)

		if cfg.Recording.Archive.Provider != "" {
			backend, err := archive.NewBackend(ctx, cfg.Recording.Archive, nil)
			if err != nil {
				logging.L("main").Warn("archive backend unavailable, recording stays local", logging.KeyError, err)
			} else {
				built.archiver = archive.New(backend)
			}
		}
	}

	if cfg.Spectator.Enabled {
		bridge := spectator.New(cfg.Spectator.ICEServers)
		built.sinks = append(built.sinks, bridge)
		closers = append(closers, bridge.Close)

		mux := http.NewServeMux()
		mux.Handle("/ws", bridge)
		httpSrv := &http.Server{Addr: cfg.Spectator.ListenAddr, Handler: mux}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.L("main").Warn("spectator http server stopped", logging.KeyError, err)
			}
		}()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		})
	}

	return built, cleanup, nil
}

func recordingFileName(serial string) string {
	return fmt.Sprintf("%s-%s.mp4", sanitizeFileSerial(serial), uuid.NewString())
}

func sanitizeFileSerial(serial string) string {
	out := make([]rune, 0, len(serial))
	for _, r := range serial {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "unknown"
	}
	return string(out)
}
