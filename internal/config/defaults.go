package config

const (
	defaultClipsDir             = "~/.local/share/hindsight/clips"
	defaultLogDir               = "~/.local/share/hindsight/logs"
	defaultAPIBind              = "127.0.0.1:7509"
	defaultCapacityFrames       = 900 // 30 seconds at 30 fps
	defaultSubscriberQueueDepth = 64
	defaultWaitTimeoutSeconds   = 2
	defaultGraceMultiplier      = 2.0
	defaultFPS                  = 30
	defaultFrameWidth           = 1920
	defaultFrameHeight          = 1080
	defaultSourceMode           = "synthetic"
	defaultSourcePayloadBytes   = 512
	defaultKeyframeInterval     = 30
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ClipsDir: defaultClipsDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Buffer: Buffer{
			CapacityFrames:       defaultCapacityFrames,
			SubscriberQueueDepth: defaultSubscriberQueueDepth,
		},
		Capture: Capture{
			WaitTimeoutSeconds: defaultWaitTimeoutSeconds,
			GraceMultiplier:    defaultGraceMultiplier,
			DefaultFPS:         defaultFPS,
			FrameWidth:         defaultFrameWidth,
			FrameHeight:        defaultFrameHeight,
		},
		Source: Source{
			Mode:             defaultSourceMode,
			FPS:              defaultFPS,
			PayloadBytes:     defaultSourcePayloadBytes,
			KeyframeInterval: defaultKeyframeInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			ClipReady:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
