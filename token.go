package oidcx

import "time"

// VerifiedToken wraps the claims of a token that passed signature and
// claim validation. Claims holds the raw decoded payload; accessors
// cover the claims the verifier itself consumes.
type VerifiedToken struct {
	Claims map[string]any
}

// StringClaim returns the named claim when it is a string, else "".
func (t *VerifiedToken) StringClaim(name string) string {
	s, _ := t.Claims[name].(string)
	return s
}

// Subject returns the "sub" claim.
func (t *VerifiedToken) Subject() string { return t.StringClaim("sub") }

// Issuer returns the "iss" claim.
func (t *VerifiedToken) Issuer() string { return t.StringClaim("iss") }

// ClientID returns the "cid" claim.
func (t *VerifiedToken) ClientID() string { return t.StringClaim("cid") }

// Nonce returns the "nonce" claim.
func (t *VerifiedToken) Nonce() string { return t.StringClaim("nonce") }

// Audience normalizes the "aud" claim to a list regardless of whether
// the token carried a string, a list, or a map of named audiences.
func (t *VerifiedToken) Audience() []string {
	switch aud := t.Claims["aud"].(type) {
	case string:
		return []string{aud}
	case []any:
		out := make([]string, 0, len(aud))
		for _, item := range aud {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(aud))
		for _, item := range aud {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ExpiresAt returns the "exp" claim as UTC time, zero when absent.
func (t *VerifiedToken) ExpiresAt() time.Time { return t.timeClaim("exp") }

// IssuedAt returns the "iat" claim as UTC time, zero when absent.
func (t *VerifiedToken) IssuedAt() time.Time { return t.timeClaim("iat") }

func (t *VerifiedToken) timeClaim(name string) time.Time {
	seconds, err := numericClaim(t.Claims, name)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
