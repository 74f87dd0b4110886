package oidcx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// metadataDocument is the subset of the issuer's published OIDC
// discovery metadata the verifier consumes. jwks_uri is the only
// required field; the endpoints are surfaced for host services that
// build OAuth2 flows from the same discovery response.
type metadataDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

func fetchMetadata(ctx context.Context, client *http.Client, url string) (metadataDocument, error) {
	var doc metadataDocument

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return doc, newError(ErrCodeMetadataFetch, fmt.Errorf("create discovery request: %w", err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return doc, newError(ErrCodeMetadataFetch, fmt.Errorf("fetch %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return doc, newError(ErrCodeMetadataFetch, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return doc, newError(ErrCodeMetadataFetch, fmt.Errorf("decode discovery document: %w", err))
	}
	return doc, nil
}
