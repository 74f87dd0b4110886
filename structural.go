package oidcx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// tokenShape matches the compact serialization of a JWT: three
// dot-separated segments of URL-safe base64 characters.
var tokenShape = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

type tokenHeader struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid"`
}

// checkTokenStructure rejects tokens that cannot possibly verify
// before any network call is made. It returns the decoded header so
// the caller can look up the signing key by kid.
func checkTokenStructure(raw string) (tokenHeader, error) {
	var header tokenHeader

	if raw == "" {
		return header, newError(ErrCodeMalformedToken, errors.New("token is empty"))
	}
	if !tokenShape.MatchString(raw) {
		return header, newError(ErrCodeMalformedToken, errors.New("token is not a three-segment compact JWT"))
	}

	segment := raw[:strings.IndexByte(raw, '.')]
	if mod := len(segment) % 4; mod != 0 {
		segment += strings.Repeat("=", 4-mod)
	}
	decoded, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		return header, newError(ErrCodeMalformedToken, fmt.Errorf("decode header segment: %w", err))
	}
	if err := json.Unmarshal(decoded, &header); err != nil {
		return header, newError(ErrCodeMalformedToken, fmt.Errorf("parse header JSON: %w", err))
	}

	if header.Algorithm == "" {
		return header, newError(ErrCodeMalformedToken, errors.New("header missing alg"))
	}
	if header.KeyID == "" {
		return header, newError(ErrCodeMalformedToken, errors.New("header missing kid"))
	}
	if header.Algorithm != "RS256" {
		return header, newError(ErrCodeMalformedToken, fmt.Errorf("algorithm %q not allowed, want RS256", header.Algorithm))
	}
	return header, nil
}
