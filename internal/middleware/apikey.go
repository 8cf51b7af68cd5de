package middleware

import (
	"crypto/sha256"
	"crypto/subtle"

	"productos/internal/auth"
	"productos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PrincipalLocalsKey is the fiber.Ctx Locals key holding the auth.Principal.
const PrincipalLocalsKey = "principal"

// APIKeyAuth attaches the service principal to requests whose header carries
// secret. It never rejects: requests without a valid key continue
// unauthenticated. An empty secret matches nothing.
func APIKeyAuth(header, secret string) fiber.Handler {
	want := sha256.Sum256([]byte(secret))
	enabled := secret != ""

	return func(c *fiber.Ctx) error {
		got := sha256.Sum256([]byte(c.Get(header)))
		if enabled && subtle.ConstantTimeCompare(got[:], want[:]) == 1 {
			p := auth.ServicePrincipal()
			c.Locals(PrincipalLocalsKey, p)
			c.SetUserContext(auth.WithPrincipal(c.UserContext(), p))
		}
		return c.Next()
	}
}

// Principal returns the principal attached by APIKeyAuth.
func Principal(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(PrincipalLocalsKey).(auth.Principal)
	return p, ok
}

// RequireService rejects requests that carry no principal with the service
// authority.
func RequireService() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := Principal(c)
		if !ok || !p.HasAuthority(auth.ServiceAuthority) {
			return response.NewError(fiber.StatusUnauthorized, "No autorizado", "Se requiere una API key válida")
		}
		return c.Next()
	}
}
