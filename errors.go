package oidcx

import "fmt"

// ErrorCode represents verifier error categories.
type ErrorCode string

const (
	ErrCodeMalformedToken   ErrorCode = "malformed_token"
	ErrCodeMetadataFetch    ErrorCode = "metadata_fetch_failed"
	ErrCodeMetadataShape    ErrorCode = "metadata_missing_jwks_uri"
	ErrCodeKeySetFetch      ErrorCode = "jwks_unavailable"
	ErrCodeSignature        ErrorCode = "signature_invalid"
	ErrCodeInvalidIssuer    ErrorCode = "invalid_issuer"
	ErrCodeInvalidAudience  ErrorCode = "invalid_audience"
	ErrCodeInvalidClientID  ErrorCode = "invalid_client_id"
	ErrCodeExpired          ErrorCode = "token_expired"
	ErrCodeIssuedInFuture   ErrorCode = "token_issued_in_future"
	ErrCodeInvalidNonce     ErrorCode = "invalid_nonce"
	ErrCodeUnsupportedClaim ErrorCode = "unsupported_claim_type"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeMalformedToken:   "Malformed token",
	ErrCodeMetadataFetch:    "Discovery metadata unavailable",
	ErrCodeMetadataShape:    "Discovery metadata missing jwks_uri",
	ErrCodeKeySetFetch:      "JWKS unavailable",
	ErrCodeSignature:        "Signature verification failed",
	ErrCodeInvalidIssuer:    "Invalid issuer",
	ErrCodeInvalidAudience:  "Invalid audience",
	ErrCodeInvalidClientID:  "Invalid client id",
	ErrCodeExpired:          "Token expired",
	ErrCodeIssuedInFuture:   "Token issued in the future",
	ErrCodeInvalidNonce:     "Invalid nonce",
	ErrCodeUnsupportedClaim: "Unsupported claim value type",
}

// Error wraps verifier errors with a stable code and message.
// Claim names the offending claim for claim-validation failures.
type Error struct {
	Code    ErrorCode
	Claim   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Claim != "" {
		base = fmt.Sprintf("%s (claim %q)", base, e.Claim)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func newClaimError(code ErrorCode, claim string, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Claim: claim, Message: msg, Err: err}
}
