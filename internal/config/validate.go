package config

import (
	"fmt"
	"net"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"warning": true,
	"error": true,
}

var validArchiveProviders = map[string]bool{
	"":      true,
	"local": true,
	"s3":    true,
	"azure": true,
	"gcs":   true,
}

// ValidationResult splits config problems into Fatals (block startup) and
// Warnings (logged, startup continues with a clamped or ignored value).
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

// Validate checks the config for invalid values. Out-of-range numeric
// settings are clamped in place and reported as warnings; structurally
// invalid settings (malformed serial, unknown archive provider) are fatal.
func (c *Config) Validate() ValidationResult {
	var res ValidationResult

	if c.Serial != "" && !isValidSerial(c.Serial) {
		res.Fatals = append(res.Fatals, fmt.Errorf("serial %q is not a valid device-bridge serial", c.Serial))
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		res.Warnings = append(res.Warnings, fmt.Errorf("log_level %q is not valid, defaulting to info", c.LogLevel))
		c.LogLevel = "info"
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		res.Warnings = append(res.Warnings, fmt.Errorf("log_format %q is not valid, defaulting to text", c.LogFormat))
		c.LogFormat = "text"
	}

	if c.ControlQueueSize < 1 {
		res.Warnings = append(res.Warnings, fmt.Errorf("control_queue_size %d is below minimum 1, clamping", c.ControlQueueSize))
		c.ControlQueueSize = 1
	} else if c.ControlQueueSize > 4096 {
		res.Warnings = append(res.Warnings, fmt.Errorf("control_queue_size %d exceeds maximum 4096, clamping", c.ControlQueueSize))
		c.ControlQueueSize = 4096
	}

	if c.KeepAliveIntervalMs < 100 {
		res.Warnings = append(res.Warnings, fmt.Errorf("keep_alive_interval_ms %d is below minimum 100, clamping", c.KeepAliveIntervalMs))
		c.KeepAliveIntervalMs = 100
	}

	if !validArchiveProviders[strings.ToLower(c.Recording.Archive.Provider)] {
		res.Fatals = append(res.Fatals, fmt.Errorf("recording.archive.provider %q is not a known provider", c.Recording.Archive.Provider))
	}

	if c.Diagnostics.IntervalSeconds < 5 {
		res.Warnings = append(res.Warnings, fmt.Errorf("diagnostics.interval_seconds %d is below minimum 5, clamping", c.Diagnostics.IntervalSeconds))
		c.Diagnostics.IntervalSeconds = 5
	}

	return res
}

// isValidSerial rejects anything that is neither a bare device-bridge
// serial token nor a host:port pair with a valid IPv4/IPv6 host. This
// replaces naive strtol-style numeric parsing with net.ParseIP, per the
// design note that the serial must never be accepted as a bogus address
// just because it parsed as a sequence of digit groups.
func isValidSerial(serial string) bool {
	for _, r := range serial {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	if host, _, err := net.SplitHostPort(serial); err == nil {
		return net.ParseIP(host) != nil
	}
	// Bare serial (no colon): USB serials are opaque vendor strings, any
	// non-empty printable token is acceptable.
	return true
}
