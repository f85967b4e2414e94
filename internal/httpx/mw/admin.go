// Package mw contains HTTP middleware for the admin area.
package mw

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
)

// CookieName is the cookie carrying the shared admin token.
const CookieName = "admin_token"

// ValidToken reports whether got equals want in constant time.
// An empty want never matches.
func ValidToken(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// IsAdmin reports whether the request carries the admin cookie.
func IsAdmin(c *fiber.Ctx, token string) bool {
	return ValidToken(c.Cookies(CookieName), token)
}

// RequireAdmin rejects requests without a valid admin cookie with a JSON 403.
func RequireAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c, token) {
			return kit.Forbidden("未授权，请先登录")
		}
		return c.Next()
	}
}

// SetAdminCookie issues the token as an HTTP-only cookie with no expiry.
func SetAdminCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}
