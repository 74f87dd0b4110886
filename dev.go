package oidcx

// DevBypassClaims holds attributes used when issuing a synthetic
// verified token in dev mode.
type DevBypassClaims struct {
	Subject  string
	Issuer   string
	Audience string
	ClientID string
}

// ToCallerToken converts the dev bypass configuration into a caller
// token that skips verification.
func (d DevBypassClaims) ToCallerToken() CallerToken {
	claims := map[string]any{
		"sub": d.Subject,
		"iss": d.Issuer,
		"aud": d.Audience,
	}
	if d.ClientID != "" {
		claims["cid"] = d.ClientID
	}
	return CallerToken{
		Token:     &VerifiedToken{Claims: claims},
		DevBypass: true,
	}
}

// DefaultDevBypassClaims returns a baseline set of claims suitable for
// local development.
func DefaultDevBypassClaims(audience string) DevBypassClaims {
	aud := audience
	if aud == "" {
		aud = "https://dev.local"
	}
	return DevBypassClaims{
		Subject:  "dev-bypass",
		Issuer:   "oidcx.dev",
		Audience: aud,
	}
}
