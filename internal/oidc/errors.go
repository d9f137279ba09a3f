package oidc

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the terminal failure causes of the login flow so
// that logs and tests can tell "provider down" from "token invalid".
type ErrorKind string

const (
	// ProviderUnreachable covers network errors and timeouts talking to the
	// identity provider. The user retries by starting a fresh login.
	ProviderUnreachable ErrorKind = "provider_unreachable"
	// TokenExchangeFailed covers a rejected, expired or malformed
	// authorization code exchange.
	TokenExchangeFailed ErrorKind = "token_exchange_failed"
	InvalidSignature    ErrorKind = "invalid_signature"
	ExpiredToken        ErrorKind = "expired_token"
	NonceMismatch       ErrorKind = "nonce_mismatch"
	IssuerMismatch      ErrorKind = "issuer_mismatch"
	AudienceMismatch    ErrorKind = "audience_mismatch"
)

// AuthError is a terminal login-flow failure. The kind is logged server-side;
// clients only ever see a generic error indicator.
type AuthError struct {
	Kind  ErrorKind
	cause error
}

func NewAuthError(kind ErrorKind, cause error) *AuthError {
	return &AuthError{Kind: kind, cause: cause}
}

func (e *AuthError) Error() string {
	if e.cause == nil {
		return string(e.Kind)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

// Is makes errors.Is(err, &AuthError{Kind: k}) match on the kind alone.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// KindOf returns the failure kind of err, or an empty kind when err is not an
// AuthError.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}

	return ""
}
