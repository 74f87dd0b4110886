package oidcx

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

func (v *Verifier) fetchKeySet(ctx context.Context, jwksURI string) (jwk.Set, error) {
	set, err := jwk.Fetch(ctx, jwksURI, jwk.WithHTTPClient(v.httpClient))
	if err != nil {
		return nil, newError(ErrCodeKeySetFetch, fmt.Errorf("fetch %s: %w", jwksURI, err))
	}
	return set, nil
}

// keySetForKID returns a key set expected to contain kid. A cached set
// only observes upstream rotation when its TTL lapses; when a live set
// does not know the kid, one forced refresh runs before the signature
// check is allowed to fail, so tokens signed with a freshly rotated
// key are not rejected for the remainder of the TTL window.
func (v *Verifier) keySetForKID(ctx context.Context, jwksURI, kid string) (jwk.Set, error) {
	set, err := v.keys.get(ctx, jwksURI, func(ctx context.Context) (jwk.Set, error) {
		return v.fetchKeySet(ctx, jwksURI)
	})
	if err != nil {
		return nil, err
	}
	if _, ok := set.LookupKeyID(kid); ok {
		return set, nil
	}

	v.keys.invalidate(jwksURI)
	set, err = v.keys.get(ctx, jwksURI, func(ctx context.Context) (jwk.Set, error) {
		return v.fetchKeySet(ctx, jwksURI)
	})
	if err != nil {
		return nil, err
	}
	// Still absent after a refresh: let the signature check report it.
	return set, nil
}
