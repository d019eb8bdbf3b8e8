package middleware

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

const (
	codeUnauthorized = "UNAUTHORIZED"
	bearerPrefix     = "bearer "
	// tokenLeeway absorbs clock drift between the identity provider and this service.
	tokenLeeway = 30 * time.Second
)

var errUnsupportedSubject = errors.New("unsupported subject")

// roleAliases maps the role names issued by the school platform onto engine roles.
var roleAliases = map[string]string{
	RoleStudent: RoleStudent,
	"siswa":     RoleStudent,
	RoleTutor:   RoleTutor,
	"teacher":   RoleTutor,
	"guru":      RoleTutor,
	RoleAdmin:   RoleAdmin,
}

// JWTProtected validates HMAC bearer tokens and stores the caller identity
// under the user_id and user_role locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(tokenLeeway),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendErrorWithCode(c, fiber.StatusUnauthorized, codeUnauthorized, "authorization header missing", nil)
		}
		if len(authorization) <= len(bearerPrefix) || !strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
			return utils.SendErrorWithCode(c, fiber.StatusUnauthorized, codeUnauthorized, "invalid authorization header", nil)
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(authorization[len(bearerPrefix):]), claims, keyFunc)
		if err != nil || !token.Valid {
			return utils.SendErrorWithCode(c, fiber.StatusUnauthorized, codeUnauthorized, "invalid token", nil)
		}

		if userID := extractUserIDFromClaims(claims); userID != nil {
			c.Locals("user_id", *userID)
		}
		if role := extractUserRoleFromClaims(claims); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	for _, key := range []string{"sub", "user_id", "student_id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		if id, err := parseSubject(value); err == nil && id > 0 {
			return &id
		}
	}
	return nil
}

func parseSubject(value interface{}) (uint, error) {
	var raw string
	switch v := value.(type) {
	case float64:
		if v < 0 || v != float64(uint64(v)) {
			return 0, errUnsupportedSubject
		}
		return uint(v), nil
	case json.Number:
		raw = v.String()
	case string:
		raw = v
	default:
		return 0, errUnsupportedSubject
	}

	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

// extractUserRoleFromClaims returns the first known engine role found in the
// role or roles claim. Unknown roles resolve to an empty string.
func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	var candidates []string
	if role, ok := claims["role"].(string); ok {
		candidates = append(candidates, role)
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, item := range roles {
			if role, ok := item.(string); ok {
				candidates = append(candidates, role)
			}
		}
	}

	for _, candidate := range candidates {
		if role := resolveRole(candidate); role != "" {
			return role
		}
	}
	return ""
}
