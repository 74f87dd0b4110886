package oidcx

import "context"

type callerTokenKey struct{}

// CallerToken represents the verified caller stored during token
// verification.
type CallerToken struct {
	Token     *VerifiedToken
	DevBypass bool
}

// BindCallerToken stores the verified caller inside the context for
// downstream consumers.
func BindCallerToken(ctx context.Context, caller CallerToken) context.Context {
	return context.WithValue(ctx, callerTokenKey{}, caller)
}

// CallerTokenFromContext retrieves the caller previously stored in the
// context.
func CallerTokenFromContext(ctx context.Context) (CallerToken, bool) {
	if ctx == nil {
		return CallerToken{}, false
	}
	value := ctx.Value(callerTokenKey{})
	if value == nil {
		return CallerToken{}, false
	}
	caller, ok := value.(CallerToken)
	return caller, ok
}
