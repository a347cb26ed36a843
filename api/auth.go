package api

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/users"
)

// principalKey is the fiber.Ctx Locals key the authenticated user is stored
// under.
const principalKey = "rolechat_principal"

// requireUser authenticates the request via HTTP Basic auth against the user
// store and stashes the principal in the request locals. Missing or bad
// credentials end the request with 401; the body never distinguishes an
// unknown user from a wrong password.
func (s *Server) requireUser(c *fiber.Ctx) error {
	username, password, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
	if !ok {
		c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="rolechat"`)
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "authentication required"})
	}

	user, err := s.users.Authenticate(c.Context(), username, password)
	if err != nil {
		s.logger.Debug("authentication failed",
			zap.String("username", username),
		)
		c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="rolechat"`)
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid credentials"})
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// requireRole gates a route group to principals holding one of the allowed
// roles. Must run after requireUser.
func (s *Server) requireRole(allowed ...rbac.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := s.principal(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "authentication required"})
		}

		for _, role := range allowed {
			if user.Role == role {
				return c.Next()
			}
		}

		s.logger.Warn("forbidden request",
			zap.String("username", user.Username),
			zap.String("role", string(user.Role)),
			zap.String("path", c.Path()),
		)
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "not authorized"})
	}
}

// principal returns the authenticated user set by requireUser, or nil.
func (s *Server) principal(c *fiber.Ctx) *users.User {
	user, _ := c.Locals(principalKey).(*users.User)
	return user
}

// parseBasicAuth decodes an "Authorization: Basic ..." header value.
func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	return username, password, ok
}
