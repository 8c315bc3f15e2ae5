// Package auth validates bearer tokens and describes the caller as a Principal.
// Handlers read the Principal from the request and hand it to services as an
// explicit argument.
package auth

import (
	"context"
	"slices"
	"time"
)

// Scopes understood by the composite API.
const (
	ScopeRead  = "product:read"
	ScopeWrite = "product:write"
)

// Principal is the authenticated caller, or the anonymous caller when auth is off.
type Principal struct {
	Subject       string
	Scopes        []string
	Issuer        string
	Audience      []string
	ExpiresAt     time.Time
	Authenticated bool
}

// Anonymous is used when a request carries no token and auth is not enforced.
func Anonymous() Principal {
	return Principal{Subject: "anonymous"}
}

func (p Principal) HasScope(scope string) bool {
	return slices.Contains(p.Scopes, scope)
}

// LogAttrs renders the authorization info for structured logs.
func (p Principal) LogAttrs() []any {
	if !p.Authenticated {
		return []any{"subject", p.Subject, "authenticated", false}
	}
	return []any{
		"subject", p.Subject,
		"scopes", p.Scopes,
		"issuer", p.Issuer,
		"audience", p.Audience,
		"expires_at", p.ExpiresAt,
		"authenticated", true,
	}
}

type principalKey struct{}

// WithPrincipal stores the caller in ctx. Only middleware should call it.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by the middleware, or Anonymous.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous()
}
