package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/breeze-rmm/screenbridge/internal/logging"
)

// Config is the full runtime configuration for screenbridge, loaded via
// viper from a YAML file, environment variables (SCREENBRIDGE_ prefix),
// and flag overrides layered on top by the CLI.
type Config struct {
	Serial           string `mapstructure:"serial"`
	DeviceBridgePath string `mapstructure:"device_bridge_path"`
	AgentJarPath     string `mapstructure:"agent_jar_path"`
	AgentClasspath   string `mapstructure:"agent_classpath"`
	DeviceSocketName string `mapstructure:"device_socket_name"`

	ControlQueueSize    int `mapstructure:"control_queue_size"`
	KeepAliveIntervalMs int `mapstructure:"keep_alive_interval_ms"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	Recording  RecordingConfig  `mapstructure:"recording"`
	Spectator  SpectatorConfig  `mapstructure:"spectator"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
}

type RecordingConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	OutputDir string        `mapstructure:"output_dir"`
	Archive   ArchiveConfig `mapstructure:"archive"`
}

// ArchiveConfig selects the pluggable RecordingArchiver backend. Provider
// is one of "", "local", "s3", "azure", "gcs" — empty disables archiving
// even when Recording.Enabled is true (the file simply stays local).
type ArchiveConfig struct {
	Provider     string `mapstructure:"provider"`
	LocalPath    string `mapstructure:"local_path"`
	S3Bucket     string `mapstructure:"s3_bucket"`
	S3Region     string `mapstructure:"s3_region"`
	AzureAccount string `mapstructure:"azure_account"`
	AzureContainer string `mapstructure:"azure_container"`
	GCSBucket    string `mapstructure:"gcs_bucket"`
}

type SpectatorConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	ListenAddr string   `mapstructure:"listen_addr"`
	ICEServers []string `mapstructure:"ice_servers"`
}

type DiagnosticsConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

func Default() *Config {
	return &Config{
		DeviceBridgePath:    "adb",
		AgentJarPath:        "/data/local/tmp/scrcpy-server.jar",
		AgentClasspath:      "com.genymobile.scrcpy.Server",
		DeviceSocketName:    "scrcpy",
		ControlQueueSize:    64,
		KeepAliveIntervalMs: 1500,
		LogLevel:            "info",
		LogFormat:           "text",
		LogMaxSizeMB:        50,
		LogMaxBackups:       3,
		Recording: RecordingConfig{
			OutputDir: filepath.Join(dataDir(), "recordings"),
		},
		Spectator: SpectatorConfig{
			ListenAddr: "127.0.0.1:9482",
		},
		Diagnostics: DiagnosticsConfig{
			IntervalSeconds: 60,
		},
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SCREENBRIDGE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.Validate()
	for _, err := range result.Warnings {
		logging.L("config").Warn("config validation", logging.KeyError, err)
	}
	if len(result.Fatals) > 0 {
		for _, err := range result.Fatals {
			logging.L("config").Error("config validation fatal", logging.KeyError, err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %w", result.Fatals[0])
	}

	return cfg, nil
}

func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "screenbridge", "data")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "screenbridge")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "screenbridge")
		}
		return filepath.Join(os.Getenv("HOME"), ".local", "share", "screenbridge")
	}
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "screenbridge")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "screenbridge")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "screenbridge")
		}
		return filepath.Join(os.Getenv("HOME"), ".config", "screenbridge")
	}
}
