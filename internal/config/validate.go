package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBuffer(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBuffer() error {
	if c.Buffer.CapacityFrames == 0 && !c.Buffer.AllowUnbounded {
		return errors.New("buffer.capacity_frames is 0 (unbounded); set a finite capacity or enable buffer.allow_unbounded")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.WaitTimeoutSeconds <= 0 {
		return errors.New("capture.wait_timeout_seconds must be positive")
	}
	if c.Capture.GraceMultiplier < 1 {
		return errors.New("capture.grace_multiplier must be at least 1")
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Mode {
	case "synthetic", "none":
		return nil
	default:
		return fmt.Errorf("source.mode: unsupported value %q (expected \"synthetic\" or \"none\")", c.Source.Mode)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
