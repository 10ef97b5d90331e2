package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBuffer()
	c.normalizeCapture()
	c.normalizeSource()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ClipsDir) == "" {
		c.Paths.ClipsDir = defaultClipsDir
	}
	if c.Paths.ClipsDir, err = expandPath(c.Paths.ClipsDir); err != nil {
		return fmt.Errorf("paths.clips_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeBuffer() {
	if c.Buffer.CapacityFrames < 0 {
		c.Buffer.CapacityFrames = 0
	}
	if c.Buffer.SubscriberQueueDepth <= 0 {
		c.Buffer.SubscriberQueueDepth = defaultSubscriberQueueDepth
	}
}

func (c *Config) normalizeCapture() {
	if c.Capture.WaitTimeoutSeconds <= 0 {
		c.Capture.WaitTimeoutSeconds = defaultWaitTimeoutSeconds
	}
	if c.Capture.GraceMultiplier <= 0 {
		c.Capture.GraceMultiplier = defaultGraceMultiplier
	}
	if c.Capture.DefaultFPS <= 0 {
		c.Capture.DefaultFPS = defaultFPS
	}
	if c.Capture.FrameWidth <= 0 {
		c.Capture.FrameWidth = defaultFrameWidth
	}
	if c.Capture.FrameHeight <= 0 {
		c.Capture.FrameHeight = defaultFrameHeight
	}
}

func (c *Config) normalizeSource() {
	c.Source.Mode = strings.ToLower(strings.TrimSpace(c.Source.Mode))
	if c.Source.Mode == "" {
		c.Source.Mode = defaultSourceMode
	}
	if c.Source.FPS <= 0 {
		c.Source.FPS = defaultFPS
	}
	if c.Source.PayloadBytes <= 0 {
		c.Source.PayloadBytes = defaultSourcePayloadBytes
	}
	if c.Source.KeyframeInterval < 0 {
		c.Source.KeyframeInterval = defaultKeyframeInterval
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("HINDSIGHT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
