package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// Roles carried in the identity token.
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

const codeForbidden = "FORBIDDEN"

// RequireUser rejects requests without a resolved user identifier.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("user_id").(uint); ok && id > 0 {
			return c.Next()
		}
		return utils.SendErrorWithCode(c, fiber.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
	}
}

// RequireRole admits callers whose role, after alias resolution, is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if resolved := resolveRole(role); resolved != "" {
			allowed[resolved] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[resolveRole(role)]; !ok {
			return utils.SendErrorWithCode(c, fiber.StatusForbidden, codeForbidden, "insufficient permissions", nil)
		}
		return c.Next()
	}
}

func resolveRole(role string) string {
	return roleAliases[strings.ToLower(strings.TrimSpace(role))]
}
