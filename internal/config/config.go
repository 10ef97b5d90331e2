package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ClipsDir string `toml:"clips_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
}

// Buffer configures the in-memory frame history.
type Buffer struct {
	// CapacityFrames bounds the ring; 0 means unbounded.
	CapacityFrames int `toml:"capacity_frames"`
	// AllowUnbounded permits clip requests with a non-zero before-window
	// against an unbounded ring. With a bounded ring the setting is inert.
	AllowUnbounded bool `toml:"allow_unbounded"`
	// SubscriberQueueDepth is the minimum fan-out queue depth; extractions
	// grow it to cover their whole after-window.
	SubscriberQueueDepth int `toml:"subscriber_queue_depth"`
}

// Capture configures the extraction windowing protocol.
type Capture struct {
	// WaitTimeoutSeconds bounds each wait on the subscription queue.
	WaitTimeoutSeconds int `toml:"wait_timeout_seconds"`
	// GraceMultiplier scales after_seconds into the total wait budget.
	GraceMultiplier float64 `toml:"grace_multiplier"`
	DefaultFPS      int     `toml:"default_fps"`
	FrameWidth      int     `toml:"frame_width"`
	FrameHeight     int     `toml:"frame_height"`
}

// Mux configures the container muxing backend.
type Mux struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
}

// Source configures the frame source feeding the ingest loop.
type Source struct {
	// Mode selects the source backend. "synthetic" is the only built-in;
	// real devices attach out-of-process.
	Mode             string `toml:"mode"`
	FPS              int    `toml:"fps"`
	PayloadBytes     int    `toml:"payload_bytes"`
	KeyframeInterval int    `toml:"keyframe_interval"`
	// HotplugMonitor watches the video4linux udev subsystem and surfaces
	// camera attach/detach on the status endpoint.
	HotplugMonitor bool `toml:"hotplug_monitor"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	ClipReady      bool   `toml:"clip_ready"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Hindsight.
//
// Configuration sections by subsystem:
//   - Paths: clip/log directories and API bind address
//   - Buffer: frame history capacity and fan-out queue sizing
//   - Capture: windowing timeouts and default stream geometry
//   - Mux: ffmpeg binary selection
//   - Source: frame source mode and hotplug monitoring
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Buffer        Buffer        `toml:"buffer"`
	Capture       Capture       `toml:"capture"`
	Mux           Mux           `toml:"mux"`
	Source        Source        `toml:"source"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hindsight/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath expands a leading tilde and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hindsight.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ClipsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for muxing.
func (c *Config) FFmpegBinary() string {
	if binary := strings.TrimSpace(c.Mux.FFmpegBinary); binary != "" {
		return binary
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
