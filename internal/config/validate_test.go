package config

import "testing"

func TestValidateInvalidSerialIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Serial = "192.168.1.5:abcd\x01"
	result := cfg.Validate()
	if len(result.Fatals) == 0 {
		t.Fatal("control character in serial should be fatal")
	}
}

func TestValidateHostPortSerialAccepted(t *testing.T) {
	cfg := Default()
	cfg.Serial = "192.168.1.5:5555"
	result := cfg.Validate()
	if len(result.Fatals) != 0 {
		t.Fatalf("valid host:port serial rejected: %v", result.Fatals)
	}
}

func TestValidateBareUSBSerialAccepted(t *testing.T) {
	cfg := Default()
	cfg.Serial = "R58M80ABCDE"
	result := cfg.Validate()
	if len(result.Fatals) != 0 {
		t.Fatalf("valid USB serial rejected: %v", result.Fatals)
	}
}

func TestValidateUnknownArchiveProviderIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Recording.Archive.Provider = "dropbox"
	result := cfg.Validate()
	if len(result.Fatals) == 0 {
		t.Fatal("unknown archive provider should be fatal")
	}
}

func TestValidateClampsControlQueueSize(t *testing.T) {
	cfg := Default()
	cfg.ControlQueueSize = 0
	result := cfg.Validate()
	if cfg.ControlQueueSize != 1 {
		t.Fatalf("expected clamp to 1, got %d", cfg.ControlQueueSize)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a warning for clamped control_queue_size")
	}
}

func TestValidateDefaultConfigHasNoFatals(t *testing.T) {
	cfg := Default()
	result := cfg.Validate()
	if len(result.Fatals) != 0 {
		t.Fatalf("default config should validate cleanly, got fatals: %v", result.Fatals)
	}
}
