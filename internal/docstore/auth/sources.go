package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/chirino/journal-service/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// ServiceAccountSource exchanges a signed JWT assertion for an access token.
type ServiceAccountSource struct {
	cfg    *jwt.Config
	client *http.Client
}

// NewServiceAccountSource builds a source from a loaded service account.
// A nil client uses http.DefaultClient.
func NewServiceAccountSource(sa *config.ServiceAccount, client *http.Client) (*ServiceAccountSource, error) {
	if sa == nil {
		return nil, fmt.Errorf("auth: nil service account")
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("auth: service account needs client_email and private_key")
	}
	tokenURL := sa.TokenURI
	if tokenURL == "" {
		tokenURL = config.DefaultTokenURI
	}
	return &ServiceAccountSource{
		cfg: &jwt.Config{
			Email:        sa.ClientEmail,
			PrivateKey:   []byte(sa.PrivateKey),
			PrivateKeyID: sa.PrivateKeyID,
			Scopes:       Scopes,
			TokenURL:     tokenURL,
			Audience:     tokenURL,
		},
		client: client,
	}, nil
}

func (s *ServiceAccountSource) Name() string { return "service_account" }

func (s *ServiceAccountSource) Fetch(ctx context.Context) (string, error) {
	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}
	tok, err := s.cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	return tok.AccessToken, nil
}

// MetadataTimeout bounds calls to the platform metadata server.
const MetadataTimeout = 2 * time.Second

// MetadataSource reads the default service account token from the platform
// metadata server. GCE_METADATA_HOST overrides the server address.
type MetadataSource struct {
	client *metadata.Client
}

func NewMetadataSource() *MetadataSource {
	return &MetadataSource{
		client: metadata.NewClient(&http.Client{Timeout: MetadataTimeout}),
	}
}

func (s *MetadataSource) Name() string { return "metadata" }

func (s *MetadataSource) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()
	body, err := s.client.GetWithContext(ctx, "instance/service-accounts/default/token")
	if err != nil {
		return "", fmt.Errorf("metadata server: %w", err)
	}
	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return "", fmt.Errorf("metadata server: decode token: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("metadata server: response has no access_token")
	}
	return res.AccessToken, nil
}

// StaticSource always returns the same token. The emulator accepts "owner".
type StaticSource string

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) Fetch(context.Context) (string, error) { return string(s), nil }

// FromConfig picks the source for cfg:
//   - a fixed token when an emulator host is configured
//   - a service account when a credentials file resolves
//   - the metadata server otherwise
func FromConfig(cfg *config.Config, client *http.Client) (Source, error) {
	if cfg.EmulatorHost != "" {
		return StaticSource("owner"), nil
	}
	sa, err := cfg.LoadServiceAccount()
	if err != nil {
		return nil, err
	}
	if sa != nil {
		return NewServiceAccountSource(sa, client)
	}
	return NewMetadataSource(), nil
}
