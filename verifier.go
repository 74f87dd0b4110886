// Package oidcx verifies OAuth2 access tokens and OIDC ID tokens
// issued by a single configured issuer. Signing keys are located via
// the issuer's discovery metadata and cached alongside it with a
// bounded TTL, so verification is an in-memory operation between
// refreshes. Signature verification is delegated to lestrrat-go/jwx.
package oidcx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// Verifier verifies tokens from one issuer. A single instance is safe
// for concurrent use and should be shared across requests so the
// metadata and key-set caches amortize network fetches.
type Verifier struct {
	cfg        VerifierConfig
	httpClient *http.Client

	metadata *ttlCache[metadataDocument]
	keys     *ttlCache[jwk.Set]

	now func() time.Time
}

// NewVerifier builds a verifier from the given configuration.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		}
	}

	return &Verifier{
		cfg:        cfg,
		httpClient: client,
		metadata:   newTTLCache[metadataDocument](cfg.CacheTTL, cfg.CleanupInterval),
		keys:       newTTLCache[jwk.Set](cfg.CacheTTL, cfg.CleanupInterval),
		now:        time.Now,
	}, nil
}

// VerifyAccessToken verifies an access token and returns its claims.
// The client-id check only runs when the token carries a "cid" claim
// and acceptable client ids are configured.
func (v *Verifier) VerifyAccessToken(ctx context.Context, raw string) (*VerifiedToken, error) {
	claims, err := v.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := v.runChecks(claims, accessTokenChecks); err != nil {
		return nil, err
	}
	return &VerifiedToken{Claims: claims}, nil
}

// VerifyIDToken verifies an ID token and returns its claims. ID tokens
// must carry a "cid" claim, and the nonce check runs when an expected
// nonce is configured.
func (v *Verifier) VerifyIDToken(ctx context.Context, raw string) (*VerifiedToken, error) {
	claims, err := v.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := v.runChecks(claims, idTokenChecks); err != nil {
		return nil, err
	}
	return &VerifiedToken{Claims: claims}, nil
}

// decode turns a raw token into its claims map: structural check,
// discovery metadata, key set, then delegated signature verification.
func (v *Verifier) decode(ctx context.Context, raw string) (map[string]any, error) {
	header, err := checkTokenStructure(raw)
	if err != nil {
		return nil, err
	}

	jwksURI, err := v.jwksURI(ctx)
	if err != nil {
		return nil, err
	}

	set, err := v.keySetForKID(ctx, jwksURI, header.KeyID)
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(raw),
		jws.WithKeySet(set, jws.WithInferAlgorithmFromKey(true), jws.WithRequireKid(true)),
	)
	if err != nil {
		return nil, newError(ErrCodeSignature, err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, newError(ErrCodeMalformedToken, fmt.Errorf("parse payload JSON: %w", err))
	}
	return claims, nil
}

func (v *Verifier) jwksURI(ctx context.Context) (string, error) {
	discoveryURL := v.cfg.discoveryURL()
	doc, err := v.metadata.get(ctx, discoveryURL, func(ctx context.Context) (metadataDocument, error) {
		return fetchMetadata(ctx, v.httpClient, discoveryURL)
	})
	if err != nil {
		return "", err
	}
	if doc.JWKSURI == "" {
		return "", newError(ErrCodeMetadataShape, fmt.Errorf("document from %s has no jwks_uri", discoveryURL))
	}
	return doc.JWKSURI, nil
}

// Warmup populates the metadata and key-set caches so the first
// verification call does not pay for the fetches.
func (v *Verifier) Warmup(ctx context.Context) error {
	jwksURI, err := v.jwksURI(ctx)
	if err != nil {
		return err
	}
	_, err = v.keys.get(ctx, jwksURI, func(ctx context.Context) (jwk.Set, error) {
		return v.fetchKeySet(ctx, jwksURI)
	})
	return err
}

// Close stops the background cache sweepers.
func (v *Verifier) Close() {
	v.metadata.close()
	v.keys.close()
}
