package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	DefaultTokenURI = "https://oauth2.googleapis.com/token"
	// FallbackCredentialsFile is used when no credentials file is configured.
	FallbackCredentialsFile = "google-credentials.json"
)

// ServiceAccount is the subset of a service account key file used to sign
// token requests.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ResolveCredentialsFile returns the configured credentials path, or the
// fallback file when it exists, or "" when neither is available.
func (c *Config) ResolveCredentialsFile() string {
	if p := strings.TrimSpace(c.CredentialsFile); p != "" {
		return p
	}
	if _, err := os.Stat(FallbackCredentialsFile); err == nil {
		return FallbackCredentialsFile
	}
	return ""
}

// LoadServiceAccount loads the resolved credentials file. It returns nil
// without error when no file is configured.
func (c *Config) LoadServiceAccount() (*ServiceAccount, error) {
	path := c.ResolveCredentialsFile()
	if path == "" {
		return nil, nil
	}
	return LoadServiceAccount(path)
}

// LoadServiceAccount reads and validates a service account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("credentials file %q does not exist", path)
		}
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return ParseServiceAccount(data)
}

// ParseServiceAccount decodes a service account key file.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if sa.ClientEmail == "" {
		return nil, fmt.Errorf("credentials: client_email is required")
	}
	if sa.PrivateKey == "" {
		return nil, fmt.Errorf("credentials: private_key is required")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = DefaultTokenURI
	}
	return &sa, nil
}
