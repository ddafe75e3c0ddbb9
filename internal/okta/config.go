package okta

import (
	"errors"
	"strings"
)

// Config holds the configuration for the Okta directory client.
type Config struct {
	Domain string `json:"domain"`
	Token  string `json:"token"`
	// AppID is the client id of the Okta application whose assigned users
	// are synchronised.
	AppID string `json:"app_id"`
}

// Normalized returns a copy of the config with trimmed whitespace.
func (c Config) Normalized() Config {
	out := c
	out.Domain = strings.TrimSpace(out.Domain)
	out.Token = strings.TrimSpace(out.Token)
	out.AppID = strings.TrimSpace(out.AppID)
	return out
}

// BaseURL returns the full API base URL from the domain.
func (c Config) BaseURL() string {
	base := strings.TrimSpace(c.Domain)
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

// Validate returns an error if the config is invalid.
func (c Config) Validate() error {
	c = c.Normalized()
	if c.Domain == "" {
		return errors.New("Okta domain is required")
	}
	if c.Token == "" {
		return errors.New("Okta token is required")
	}
	if c.AppID == "" {
		return errors.New("Okta application client id is required")
	}
	return nil
}
