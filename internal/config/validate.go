package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSelector(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSelector() error {
	switch c.Selector.Policy {
	case PolicyOldestUnseen, PolicyRotation:
		return nil
	default:
		return fmt.Errorf("selector.policy must be %q or %q", PolicyOldestUnseen, PolicyRotation)
	}
}

func (c *Config) validateTransform() error {
	switch c.Transform.PortraitMode {
	case PortraitPad, PortraitBlur:
	default:
		return fmt.Errorf("transform.portrait_mode must be %q or %q", PortraitPad, PortraitBlur)
	}
	if err := ensurePositiveMap(map[string]int{
		"transform.segment_seconds": c.Transform.SegmentSeconds,
		"transform.width":           c.Transform.Width,
		"transform.height":          c.Transform.Height,
	}); err != nil {
		return err
	}
	if c.Transform.WindowSeconds < 0 {
		return errors.New("transform.window_seconds must be >= 0")
	}
	if strings.TrimSpace(c.Transform.FFmpegBinary) == "" {
		return errors.New("transform.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Transform.FFprobeBinary) == "" {
		return errors.New("transform.ffprobe_binary must be set")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry.max_retries must be >= 0")
	}
	if c.Retry.DelaySeconds < 0 {
		return errors.New("retry.delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.run_timeout_minutes":  c.Workflow.RunTimeoutMinutes,
		"destination.request_timeout":   c.Destination.RequestTimeoutSecs,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateState() error {
	if c.State.RemoteEndpoint == "" {
		// Remote mirroring disabled; local state only. Allowed but the run
		// logs a durability warning.
		return nil
	}
	if c.State.RemoteBucket == "" {
		return errors.New("state.remote_bucket must be set when state.remote_endpoint is set")
	}
	if c.State.RemoteObject == "" {
		return errors.New("state.remote_object must be set when state.remote_endpoint is set")
	}
	return nil
}

// ValidateForRelay checks the fields a catalog relay run needs beyond the
// baseline. Commands that never contact the catalog or destination (config,
// ledger inspection, local split) skip this.
func (c *Config) ValidateForRelay() error {
	if c.Selector.Policy == PolicyOldestUnseen && c.Source.FolderID == "" {
		return fmt.Errorf("source.folder_id is required. Edit the config (create with 'clipcast config init')")
	}
	if c.Destination.AccountID == "" {
		return errors.New("destination.account_id is required")
	}
	if strings.TrimSpace(c.Destination.AccessToken) == "" {
		return fmt.Errorf("destination.access_token is required. Set %s or edit the config", EnvDestinationToken)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
