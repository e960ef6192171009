// Package auth resolves Alpaca API credentials and applies them to REST
// requests and stream handshakes.
package auth

import (
	"net/http"
	"os"

	"github.com/rickgao/alpaca-sdk/internal/config"
)

// Environment variables consulted when a credential is not set explicitly.
const (
	EnvKeyID       = "APCA_API_KEY_ID"
	EnvSecretKey   = "APCA_API_SECRET_KEY"
	EnvAccessToken = "APCA_ACCESS_TOKEN"

	// Older names still honoured as a second fallback.
	LegacyEnvKeyID     = "APCA_KEY_ID"
	LegacyEnvSecretKey = "APCA_KEY_SECRET"
)

// REST header names.
const (
	HeaderKeyID         = "APCA-API-KEY-ID"
	HeaderSecretKey     = "APCA-API-SECRET-KEY"
	HeaderAuthorization = "Authorization"
)

// Mode identifies which authentication scheme a Credentials value uses.
type Mode int

const (
	ModeNone Mode = iota
	ModeKeySecret
	ModeBearer
)

func (m Mode) String() string {
	switch m {
	case ModeKeySecret:
		return "key_secret"
	case ModeBearer:
		return "bearer"
	default:
		return "none"
	}
}

// Credentials holds a key/secret pair or an OAuth access token, never both.
type Credentials struct {
	KeyID       string
	SecretKey   string
	AccessToken string
}

// AuthMessage is the first frame sent on a stream connection.
type AuthMessage struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// FromConfig converts the config section into Credentials and fills empty
// fields from the environment.
func FromConfig(cfg config.CredentialsConfig) Credentials {
	return Credentials{
		KeyID:       cfg.KeyID,
		SecretKey:   cfg.SecretKey,
		AccessToken: cfg.AccessToken,
	}.WithEnvFallback()
}

// FromEnv reads credentials from the environment only.
func FromEnv() Credentials {
	return Credentials{}.WithEnvFallback()
}

// WithEnvFallback returns a copy with empty fields taken from the environment.
// An explicitly configured scheme is never mixed with the other one from the
// environment.
func (c Credentials) WithEnvFallback() Credentials {
	switch {
	case c.AccessToken != "":
		return c
	case c.KeyID != "" || c.SecretKey != "":
		if c.KeyID == "" {
			c.KeyID = firstEnv(EnvKeyID, LegacyEnvKeyID)
		}
		if c.SecretKey == "" {
			c.SecretKey = firstEnv(EnvSecretKey, LegacyEnvSecretKey)
		}
		return c
	}

	c.KeyID = firstEnv(EnvKeyID, LegacyEnvKeyID)
	c.SecretKey = firstEnv(EnvSecretKey, LegacyEnvSecretKey)
	c.AccessToken = os.Getenv(EnvAccessToken)
	return c
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Mode reports the authentication scheme. It does not validate.
func (c Credentials) Mode() Mode {
	switch {
	case c.AccessToken != "":
		return ModeBearer
	case c.KeyID != "" || c.SecretKey != "":
		return ModeKeySecret
	default:
		return ModeNone
	}
}

// Validate checks that exactly one scheme is fully configured.
func (c Credentials) Validate() error {
	hasToken := c.AccessToken != ""
	hasKey := c.KeyID != "" || c.SecretKey != ""

	switch {
	case hasToken && hasKey:
		return &config.ConfigurationError{Field: "credentials", Reason: "access token and key/secret are mutually exclusive"}
	case hasToken:
		return nil
	case !hasKey:
		return &config.ConfigurationError{Field: "credentials", Reason: "missing credentials (need access token or key/secret)"}
	case c.KeyID == "":
		return &config.ConfigurationError{Field: "credentials.key_id", Reason: "required with secret_key"}
	case c.SecretKey == "":
		return &config.ConfigurationError{Field: "credentials.secret_key", Reason: "required with key_id"}
	}
	return nil
}

// Apply sets the authentication headers for the configured scheme.
func (c Credentials) Apply(h http.Header) {
	if c.AccessToken != "" {
		h.Set(HeaderAuthorization, "Bearer "+c.AccessToken)
		return
	}
	h.Set(HeaderKeyID, c.KeyID)
	h.Set(HeaderSecretKey, c.SecretKey)
}

// StreamAuth builds the stream handshake message. Streams only accept
// key/secret credentials.
func (c Credentials) StreamAuth() (AuthMessage, error) {
	if c.Mode() == ModeBearer {
		return AuthMessage{}, &config.ConfigurationError{Field: "credentials", Reason: "streaming requires key/secret, access tokens are not supported"}
	}
	if err := c.Validate(); err != nil {
		return AuthMessage{}, err
	}
	return AuthMessage{
		Action: "auth",
		Key:    c.KeyID,
		Secret: c.SecretKey,
	}, nil
}

// Redacted returns the key ID with most characters masked, for logging.
func (c Credentials) Redacted() string {
	id := c.KeyID
	if c.Mode() == ModeBearer {
		id = c.AccessToken
	}
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + "****"
}
