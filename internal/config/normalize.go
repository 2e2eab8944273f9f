package config

import (
	"os"
	"strings"
)

// Environment variables that override secret-bearing config fields so tokens
// never have to live in the config file.
const (
	EnvSourceToken      = "CLIPCAST_SOURCE_TOKEN"
	EnvDestinationToken = "CLIPCAST_DESTINATION_TOKEN"
	EnvStateAccessKey   = "CLIPCAST_STATE_ACCESS_KEY"
	EnvStateSecretKey   = "CLIPCAST_STATE_SECRET_KEY"
)

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.StagingDir,
		&c.Paths.ClipsDir,
		&c.Paths.StateDir,
		&c.Paths.LogDir,
		&c.Source.CredentialsFile,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Source.FolderID = strings.TrimSpace(c.Source.FolderID)
	c.Source.MimePrefix = strings.TrimSpace(c.Source.MimePrefix)
	c.Destination.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Destination.APIBaseURL), "/")
	c.Destination.AccountID = strings.TrimSpace(c.Destination.AccountID)
	c.Selector.Policy = strings.ToLower(strings.TrimSpace(c.Selector.Policy))
	c.Transform.PortraitMode = strings.ToLower(strings.TrimSpace(c.Transform.PortraitMode))
	c.State.RemoteEndpoint = strings.TrimSpace(c.State.RemoteEndpoint)
	c.State.RemoteBucket = strings.TrimSpace(c.State.RemoteBucket)
	c.State.RemoteObject = strings.TrimSpace(c.State.RemoteObject)

	if value := os.Getenv(EnvSourceToken); value != "" {
		c.Source.AccessToken = value
	}
	if value := os.Getenv(EnvDestinationToken); value != "" {
		c.Destination.AccessToken = value
	}
	if value := os.Getenv(EnvStateAccessKey); value != "" {
		c.State.AccessKey = value
	}
	if value := os.Getenv(EnvStateSecretKey); value != "" {
		c.State.SecretKey = value
	}
	return nil
}
