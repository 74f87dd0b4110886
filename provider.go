package oidcx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/impersonate"
)

// MintFactory allows callers to override how identity tokens are
// minted.
type MintFactory func(context.Context, string, MintParams) (oauth2.TokenSource, error)

// MinterConfig defines how tokens should be minted by default.
type MinterConfig struct {
	ServiceAccount string
	IncludeEmail   bool
	Delegates      []string
	Factory        MintFactory
}

// MintParams selects the identity a token is minted for.
type MintParams struct {
	ServiceAccount string
	IncludeEmail   bool
	Delegates      []string
}

// Minter mints Google identity tokens, typically to exercise a
// Verifier against a live issuer from the CLI or integration tests.
// Token sources are cached per (audience, service account,
// includeEmail, delegates) combination and refresh themselves.
type Minter struct {
	mu       sync.RWMutex
	factory  MintFactory
	sources  map[mintKey]oauth2.TokenSource
	defaults MintParams
}

type mintKey struct {
	audience       string
	serviceAccount string
	includeEmail   bool
	delegates      string
}

// MintOption customizes the behaviour of a single IdentityToken call.
type MintOption func(*MintParams)

// WithServiceAccount overrides the service account used to mint the
// token.
func WithServiceAccount(email string) MintOption {
	return func(p *MintParams) {
		p.ServiceAccount = email
	}
}

// WithIncludeEmail controls whether the resulting token carries the
// email claim.
func WithIncludeEmail(include bool) MintOption {
	return func(p *MintParams) {
		p.IncludeEmail = include
	}
}

// WithDelegates sets the impersonation delegation chain.
func WithDelegates(delegates ...string) MintOption {
	return func(p *MintParams) {
		p.Delegates = append([]string(nil), delegates...)
	}
}

// NewMinter constructs a Minter using the supplied defaults.
func NewMinter(cfg MinterConfig) *Minter {
	factory := cfg.Factory
	if factory == nil {
		factory = defaultMintFactory
	}
	return &Minter{
		factory: factory,
		sources: make(map[mintKey]oauth2.TokenSource),
		defaults: MintParams{
			ServiceAccount: cfg.ServiceAccount,
			IncludeEmail:   cfg.IncludeEmail,
			Delegates:      append([]string(nil), cfg.Delegates...),
		},
	}
}

// IdentityToken returns an identity token for the given audience.
func (m *Minter) IdentityToken(ctx context.Context, audience string, opts ...MintOption) (string, error) {
	if strings.TrimSpace(audience) == "" {
		return "", errors.New("audience is required")
	}

	params := m.defaults
	params.Delegates = append([]string(nil), m.defaults.Delegates...)
	for _, opt := range opts {
		opt(&params)
	}

	key := mintKey{
		audience:       audience,
		serviceAccount: params.ServiceAccount,
		includeEmail:   params.IncludeEmail,
		delegates:      strings.Join(params.Delegates, ","),
	}

	source, err := m.sourceFor(ctx, key, params)
	if err != nil {
		return "", err
	}

	tok, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty token returned")
	}
	return tok.AccessToken, nil
}

func (m *Minter) sourceFor(ctx context.Context, key mintKey, params MintParams) (oauth2.TokenSource, error) {
	m.mu.RLock()
	source, ok := m.sources[key]
	m.mu.RUnlock()
	if ok {
		return source, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if source, ok = m.sources[key]; ok {
		return source, nil
	}

	// Cached sources outlive the call that created them, so later
	// refreshes must not inherit this call's cancelation.
	ts, err := m.factory(context.WithoutCancel(ctx), key.audience, params)
	if err != nil {
		return nil, err
	}
	source = oauth2.ReuseTokenSource(nil, ts)
	m.sources[key] = source
	return source, nil
}

func defaultMintFactory(ctx context.Context, audience string, params MintParams) (oauth2.TokenSource, error) {
	if params.ServiceAccount != "" {
		cfg := impersonate.IDTokenConfig{
			Audience:        audience,
			TargetPrincipal: params.ServiceAccount,
			IncludeEmail:    params.IncludeEmail,
			Delegates:       params.Delegates,
		}
		return impersonate.IDTokenSource(ctx, cfg)
	}
	return idtoken.NewTokenSource(ctx, audience)
}
