// Package auth carries the authenticated caller through a request.
package auth

import "context"

// ServiceAuthority is granted to callers presenting the shared API key.
const ServiceAuthority = "ROLE_SERVICE"

// Principal is an authenticated caller.
type Principal struct {
	Name        string
	Authorities []string
}

// ServicePrincipal is the identity established by a valid API key.
func ServicePrincipal() Principal {
	return Principal{
		Name:        "service-user",
		Authorities: []string{ServiceAuthority},
	}
}

// HasAuthority reports whether p was granted authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
