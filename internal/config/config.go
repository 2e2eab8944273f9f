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

// Paths contains working-directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	ClipsDir   string `toml:"clips_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Source contains configuration for the remote content catalog. Either a
// service-account credentials file or a bearer access token authenticates
// the listing and download calls.
type Source struct {
	FolderID         string `toml:"folder_id"`
	MimePrefix       string `toml:"mime_prefix"`
	CredentialsFile  string `toml:"credentials_file"`
	AccessToken      string `toml:"access_token"`
	MinDownloadBytes int64  `toml:"min_download_bytes"`
}

// Destination contains configuration for the social video destination.
type Destination struct {
	APIBaseURL         string   `toml:"api_base_url"`
	AccountID          string   `toml:"account_id"`
	AccessToken        string   `toml:"access_token"`
	DirectUploadMaxMiB int64    `toml:"direct_upload_max_mib"`
	Publish            bool     `toml:"publish"`
	RequestTimeoutSecs int      `toml:"request_timeout"`
	CaptionTemplate    string   `toml:"caption_template"`
	Hashtags           []string `toml:"hashtags"`
}

// Transform contains configuration for clip segmentation and reframing.
type Transform struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	SegmentSeconds int    `toml:"segment_seconds"`
	WindowSeconds  int    `toml:"window_seconds"`
	PortraitMode   string `toml:"portrait_mode"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
}

// Selector contains configuration for the item selection policy.
type Selector struct {
	Policy string `toml:"policy"`
}

// State contains configuration for the durable state mirror.
type State struct {
	RemoteEndpoint string `toml:"remote_endpoint"`
	RemoteBucket   string `toml:"remote_bucket"`
	RemoteObject   string `toml:"remote_object"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
}

// Retry contains the shared retry policy settings.
type Retry struct {
	MaxRetries   int `toml:"max_retries"`
	DelaySeconds int `toml:"delay_seconds"`
}

// Workflow contains run-level timing settings.
type Workflow struct {
	RunTimeoutMinutes int `toml:"run_timeout_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for clipcast.
//
// Configuration sections by subsystem:
//   - Paths: staging, clip, state, and log directories
//   - Source: catalog folder, mime filter, credentials
//   - Destination: publish API endpoint, account, caption template
//   - Transform: ffmpeg/ffprobe, segment/window length, portrait reframing
//   - Selector: oldest-unseen vs rotation policy
//   - State: remote object-store mirror for ledger and cursor
//   - Retry: shared retry policy for fetch and publish phases
//   - Workflow: hard per-run timeout
//   - Logging: log format and level
//   - Notifications: ntfy push settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Destination   Destination   `toml:"destination"`
	Transform     Transform     `toml:"transform"`
	Selector      Selector      `toml:"selector"`
	State         State         `toml:"state"`
	Retry         Retry         `toml:"retry"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and secrets resolved from the
// environment.
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

	projectPath, err := filepath.Abs("clipcast.toml")
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

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.ClipsDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DirectUploadMaxBytes returns the direct-path size threshold in bytes.
func (c *Config) DirectUploadMaxBytes() int64 {
	return c.Destination.DirectUploadMaxMiB * 1024 * 1024
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
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
