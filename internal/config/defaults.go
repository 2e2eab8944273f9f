package config

// PolicyOldestUnseen relays the oldest catalog item not yet in the ledger.
const PolicyOldestUnseen = "oldest-unseen"

// PolicyRotation cycles through pre-split local clips via the persisted cursor.
const PolicyRotation = "rotation"

// PortraitPad letterboxes the source into the portrait frame.
const PortraitPad = "pad"

// PortraitBlur overlays the source on a blurred, cropped copy of itself.
const PortraitBlur = "blur"

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: "~/.local/share/clipcast/staging",
			ClipsDir:   "~/.local/share/clipcast/clips",
			StateDir:   "~/.local/share/clipcast/state",
			LogDir:     "~/.local/share/clipcast/logs",
		},
		Source: Source{
			MimePrefix:       "video/",
			MinDownloadBytes: 64 * 1024,
		},
		Destination: Destination{
			APIBaseURL:         "https://graph.facebook.com/v18.0",
			DirectUploadMaxMiB: 50,
			Publish:            true,
			RequestTimeoutSecs: 120,
			CaptionTemplate:    "{title}",
		},
		Transform: Transform{
			FFmpegBinary:   "ffmpeg",
			FFprobeBinary:  "ffprobe",
			SegmentSeconds: 60,
			WindowSeconds:  0,
			PortraitMode:   PortraitBlur,
			Width:          1080,
			Height:         1920,
		},
		Selector: Selector{
			Policy: PolicyOldestUnseen,
		},
		State: State{
			RemoteObject: "clipcast/state.json",
			UseSSL:       true,
		},
		Retry: Retry{
			MaxRetries:   3,
			DelaySeconds: 5,
		},
		Workflow: Workflow{
			RunTimeoutMinutes: 30,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
	}
}
