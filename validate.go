package oidcx

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// claimCheck is one stage of the validation pipeline. The first stage
// to fail aborts the remaining checks.
type claimCheck func(*Verifier, map[string]any) error

var accessTokenChecks = []claimCheck{
	(*Verifier).checkIssuer,
	(*Verifier).checkAudience,
	(*Verifier).checkOptionalClientID,
	(*Verifier).checkExpiry,
	(*Verifier).checkIssuedAt,
}

var idTokenChecks = []claimCheck{
	(*Verifier).checkIssuer,
	(*Verifier).checkAudience,
	(*Verifier).checkRequiredClientID,
	(*Verifier).checkExpiry,
	(*Verifier).checkIssuedAt,
	(*Verifier).checkNonce,
}

func (v *Verifier) runChecks(claims map[string]any, checks []claimCheck) error {
	for _, check := range checks {
		if err := check(v, claims); err != nil {
			return err
		}
	}
	return nil
}

// checkIssuer requires exact string equality; no trailing-slash
// normalization is applied.
func (v *Verifier) checkIssuer(claims map[string]any) error {
	iss, ok := claims["iss"].(string)
	if !ok {
		return newClaimError(ErrCodeUnsupportedClaim, "iss", fmt.Errorf("iss is %T, want string", claims["iss"]))
	}
	if iss != v.cfg.Issuer {
		return newClaimError(ErrCodeInvalidIssuer, "iss", fmt.Errorf("issuer %q, want %q", iss, v.cfg.Issuer))
	}
	return nil
}

// checkAudience accepts a single string, a list of strings, or a map
// whose values are strings; the expected audience must equal the
// string, be a list member, or equal any map value.
func (v *Verifier) checkAudience(claims map[string]any) error {
	switch aud := claims["aud"].(type) {
	case string:
		if aud == v.cfg.Audience {
			return nil
		}
	case []any:
		for _, item := range aud {
			if s, ok := item.(string); ok && s == v.cfg.Audience {
				return nil
			}
		}
	case map[string]any:
		for _, item := range aud {
			if s, ok := item.(string); ok && s == v.cfg.Audience {
				return nil
			}
		}
	default:
		return newClaimError(ErrCodeUnsupportedClaim, "aud", fmt.Errorf("aud is %T, want string, list, or map", claims["aud"]))
	}
	return newClaimError(ErrCodeInvalidAudience, "aud", fmt.Errorf("audience %q not present", v.cfg.Audience))
}

// checkOptionalClientID validates "cid" only when the token carries
// the claim and acceptable client ids are configured.
func (v *Verifier) checkOptionalClientID(claims map[string]any) error {
	if len(v.cfg.ClientIDs) == 0 {
		return nil
	}
	raw, ok := claims["cid"]
	if !ok {
		return nil
	}
	return v.matchClientID(raw)
}

// checkRequiredClientID requires the "cid" claim on ID tokens. The
// value comparison only runs when acceptable client ids are
// configured.
func (v *Verifier) checkRequiredClientID(claims map[string]any) error {
	raw, ok := claims["cid"]
	if !ok {
		return newClaimError(ErrCodeInvalidClientID, "cid", errors.New("cid claim is missing"))
	}
	if len(v.cfg.ClientIDs) == 0 {
		if _, ok := raw.(string); !ok {
			return newClaimError(ErrCodeUnsupportedClaim, "cid", fmt.Errorf("cid is %T, want string", raw))
		}
		return nil
	}
	return v.matchClientID(raw)
}

func (v *Verifier) matchClientID(raw any) error {
	cid, ok := raw.(string)
	if !ok {
		return newClaimError(ErrCodeUnsupportedClaim, "cid", fmt.Errorf("cid is %T, want string", raw))
	}
	for _, allowed := range v.cfg.ClientIDs {
		if cid == allowed {
			return nil
		}
	}
	return newClaimError(ErrCodeInvalidClientID, "cid", fmt.Errorf("client id %q not accepted", cid))
}

// checkExpiry widens the valid window by the leeway, tolerating this
// clock running ahead of the issuer's. exp == now-leeway still passes.
func (v *Verifier) checkExpiry(claims map[string]any) error {
	exp, err := numericClaim(claims, "exp")
	if err != nil {
		return err
	}
	if exp < v.now().UTC().Unix()-int64(v.cfg.Leeway.Seconds()) {
		return newClaimError(ErrCodeExpired, "exp", fmt.Errorf("expired at %s", time.Unix(exp, 0).UTC().Format(time.RFC3339)))
	}
	return nil
}

// checkIssuedAt tolerates this clock lagging behind the issuer's.
// iat == now+leeway still passes.
func (v *Verifier) checkIssuedAt(claims map[string]any) error {
	iat, err := numericClaim(claims, "iat")
	if err != nil {
		return err
	}
	if iat > v.now().UTC().Unix()+int64(v.cfg.Leeway.Seconds()) {
		return newClaimError(ErrCodeIssuedInFuture, "iat", fmt.Errorf("issued at %s", time.Unix(iat, 0).UTC().Format(time.RFC3339)))
	}
	return nil
}

// checkNonce runs only when an expected nonce is configured; an
// unconfigured expectation skips the check entirely.
func (v *Verifier) checkNonce(claims map[string]any) error {
	if v.cfg.Nonce == "" {
		return nil
	}
	raw, ok := claims["nonce"]
	if !ok {
		return newClaimError(ErrCodeInvalidNonce, "nonce", errors.New("nonce claim is missing"))
	}
	nonce, ok := raw.(string)
	if !ok {
		return newClaimError(ErrCodeUnsupportedClaim, "nonce", fmt.Errorf("nonce is %T, want string", raw))
	}
	if nonce != v.cfg.Nonce {
		return newClaimError(ErrCodeInvalidNonce, "nonce", errors.New("nonce mismatch"))
	}
	return nil
}

// numericClaim reads a Unix-seconds claim. JSON decoding yields
// float64; int forms appear in synthetic claims built in code.
func numericClaim(claims map[string]any, name string) (int64, error) {
	switch value := claims[name].(type) {
	case float64:
		return int64(value), nil
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case json.Number:
		n, err := value.Int64()
		if err != nil {
			return 0, newClaimError(ErrCodeUnsupportedClaim, name, err)
		}
		return n, nil
	default:
		return 0, newClaimError(ErrCodeUnsupportedClaim, name, fmt.Errorf("%s is %T, want number", name, value))
	}
}
