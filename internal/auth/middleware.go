package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalsOperatorID is the fiber locals key holding the authenticated operator.
const LocalsOperatorID = "operator_id"

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

// JWTMiddleware accepts HS256 access tokens that name an operator and stores
// the operator id in locals. Tokens without an operator are rejected.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	keyFunc := func(_ *jwt.Token) (interface{}, error) { return secretBytes, nil }

	return func(c *fiber.Ctx) error {
		token := parseBearer(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}
		if strings.TrimSpace(claims.OperatorID) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token names no operator")
		}

		c.Locals(LocalsOperatorID, claims.OperatorID)
		return c.Next()
	}
}

// OperatorID returns the operator set by JWTMiddleware, or "".
func OperatorID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsOperatorID).(string)
	return id
}
