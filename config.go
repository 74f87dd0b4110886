package oidcx

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	defaultLeeway          = 2 * time.Minute
	defaultCacheTTL        = 5 * time.Minute
	defaultCleanupInterval = 5 * time.Minute
	defaultHTTPTimeout     = 5 * time.Second
	defaultDiscoveryPath   = ".well-known/openid-configuration"
)

// VerifierConfig describes the issuer to trust and the claim values
// tokens are expected to carry.
type VerifierConfig struct {
	// Issuer is the canonical base URL of the identity provider. Tokens
	// must carry an exactly equal "iss" claim.
	Issuer string

	// Audience is the expected "aud" claim value.
	Audience string

	// ClientIDs lists acceptable "cid" claim values. Optional for access
	// tokens; ID tokens must always carry the claim.
	ClientIDs []string

	// Nonce is the expected "nonce" claim of ID tokens. When empty the
	// nonce check is skipped.
	Nonce string

	// Leeway is the symmetric clock-skew tolerance applied to the
	// "exp" and "iat" checks.
	Leeway time.Duration

	// CacheTTL bounds the staleness of cached discovery metadata and
	// signing-key sets.
	CacheTTL time.Duration

	// CleanupInterval is how often expired cache entries are swept.
	CleanupInterval time.Duration

	// DiscoveryPath is the path suffix joined to Issuer to form the
	// discovery URL.
	DiscoveryPath string

	// HTTPTimeout bounds discovery and JWKS requests. Ignored when
	// HTTPClient is set.
	HTTPTimeout time.Duration

	// HTTPClient overrides the client used for discovery and JWKS
	// requests.
	HTTPClient *http.Client
}

// normalize sets default values for optional fields.
func (c *VerifierConfig) normalize() {
	if c.Leeway <= 0 {
		c.Leeway = defaultLeeway
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = defaultCleanupInterval
	}
	if c.DiscoveryPath == "" {
		c.DiscoveryPath = defaultDiscoveryPath
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
}

// validate ensures the configuration is usable.
func (c VerifierConfig) validate() error {
	switch {
	case c.Issuer == "":
		return errors.New("issuer is required")
	case c.Audience == "":
		return errors.New("audience is required")
	}
	return nil
}

// discoveryURL joins the issuer and discovery path deterministically.
func (c VerifierConfig) discoveryURL() string {
	return strings.TrimRight(c.Issuer, "/") + "/" + strings.TrimLeft(c.DiscoveryPath, "/")
}
