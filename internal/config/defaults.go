package config

const (
	defaultDataDir              = "~/.local/share/focusd"
	defaultLogDir               = "~/.local/share/focusd/logs"
	defaultSocketPath           = "~/.local/share/focusd/focusd.sock"
	defaultAwayThresholdSeconds = 3
	defaultAuditIntervalSeconds = 120
	defaultSyncIntervalSeconds  = 15
	defaultSampleIntervalMillis = 33
	defaultFFmpegBinary         = "ffmpeg"
	defaultWebcamDevice         = "/dev/video0"
	defaultScreenDisplay        = ":0.0"
	defaultFrameTimeout         = 10
	defaultJPEGQuality          = 5
	defaultScreenScaleWidth     = 1280
	defaultWebcamCaptureWidth   = 640
	defaultClassifierBaseURL    = "https://openrouter.ai/api/v1"
	defaultClassifierModel      = "google/gemini-3-flash-preview"
	defaultClassifierTimeout    = 60
	defaultDetectorBaseURL      = "http://127.0.0.1:8753"
	defaultDetectorTimeout      = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() *Config {
	return &Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Session: Session{
			AwayThresholdSeconds: defaultAwayThresholdSeconds,
			AuditIntervalSeconds: defaultAuditIntervalSeconds,
			SyncIntervalSeconds:  defaultSyncIntervalSeconds,
			SampleIntervalMillis: defaultSampleIntervalMillis,
		},
		Capture: Capture{
			FFmpegBinary:       defaultFFmpegBinary,
			WebcamDevice:       defaultWebcamDevice,
			ScreenDisplay:      defaultScreenDisplay,
			FrameTimeout:       defaultFrameTimeout,
			HotplugEnabled:     true,
			JPEGQuality:        defaultJPEGQuality,
			ScreenScaleWidth:   defaultScreenScaleWidth,
			WebcamCaptureWidth: defaultWebcamCaptureWidth,
		},
		Classifier: Classifier{
			BaseURL:        defaultClassifierBaseURL,
			Model:          defaultClassifierModel,
			TimeoutSeconds: defaultClassifierTimeout,
		},
		Detector: Detector{
			BaseURL:        defaultDetectorBaseURL,
			TimeoutSeconds: defaultDetectorTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Sessions:       true,
			Goals:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
