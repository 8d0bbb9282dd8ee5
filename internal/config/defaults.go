package config

const (
	defaultAPIBaseURL      = "https://api.telegram.org"
	defaultPollTimeout     = 30
	defaultRequestTimeout  = 10
	defaultDataDir         = "~/.local/share/vcert"
	defaultLogDir          = "~/.local/share/vcert/logs"
	defaultRenderDir       = "~/.local/share/vcert/render"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Telegram: Telegram{
			APIBaseURL:     defaultAPIBaseURL,
			PollTimeout:    defaultPollTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			RenderDir: defaultRenderDir,
		},
		Notifications: Notifications{
			SubmissionFanout: true,
			Decisions:        true,
		},
		Workflow: Workflow{
			SessionExpiryMinutes: 0,
			ShutdownTimeout:      defaultShutdownTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
