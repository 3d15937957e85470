// Package diagnostics takes periodic host CPU/memory snapshots via
// gopsutil, purely for structured logging alongside the orchestrator's
// keep-alive tick. It never feeds back into protocol behavior.
package diagnostics

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/breeze-rmm/screenbridge/internal/logging"
)

// Snapshot is one host resource reading.
type Snapshot struct {
	CPUPercent    float64
	MemUsedBytes  uint64
	MemTotalBytes uint64
	MemPercent    float64
}

// Sampler collects a Snapshot on demand. Real sampling takes ~200ms (gopsutil
// measures CPU over cpuInterval), so the orchestrator should call it from
// its own subdivided tick, not its hot path.
type Sampler struct {
	cpuInterval time.Duration
	log         *slog.Logger
}

func NewSampler() *Sampler {
	return &Sampler{cpuInterval: 200 * time.Millisecond, log: logging.L("diagnostics")}
}

// Sample gathers one Snapshot. Partial gopsutil failures degrade to a
// zeroed field rather than failing the whole sample, matching the
// teacher's collector pattern of logging a warning and continuing.
func (s *Sampler) Sample(ctx context.Context) Snapshot {
	var snap Snapshot

	percents, err := cpu.PercentWithContext(ctx, s.cpuInterval, false)
	if err != nil {
		s.log.Warn("cpu sample failed", logging.KeyError, err)
	} else if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		s.log.Warn("memory sample failed", logging.KeyError, err)
	} else {
		snap.MemUsedBytes = vm.Used
		snap.MemTotalBytes = vm.Total
		snap.MemPercent = vm.UsedPercent
	}

	return snap
}

// LogFields renders the snapshot as slog key/value pairs for the
// orchestrator's keep-alive log line.
func (s Snapshot) LogFields() []any {
	return []any{
		"host_cpu_pct", s.CPUPercent,
		"host_mem_pct", s.MemPercent,
		"host_mem_used_bytes", s.MemUsedBytes,
		"host_mem_total_bytes", s.MemTotalBytes,
	}
}
