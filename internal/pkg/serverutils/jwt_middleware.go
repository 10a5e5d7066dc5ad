package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDKey = "user_id"

// JwtMiddleware requires a valid HS256 bearer token and stores its user_id
// claim in ctx.Locals. Tokens are issued elsewhere; this service only
// verifies them.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := parseBearer(ctx, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		ctx.Locals(UserIDKey, claims[UserIDKey])
		return ctx.Next()
	}
}

// OptionalJwtMiddleware accepts anonymous requests but still rejects a
// token that is present and invalid.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Get(fiber.HeaderAuthorization) == "" {
			return ctx.Next()
		}
		claims, err := parseBearer(ctx, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		ctx.Locals(UserIDKey, claims[UserIDKey])
		return ctx.Next()
	}
}

// UserID returns the authenticated user id or "" for anonymous requests.
func UserID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(UserIDKey).(string)
	return id
}

type authError string

func (e authError) Error() string { return string(e) }

func parseBearer(ctx *fiber.Ctx, secret string) (jwt.MapClaims, error) {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, authError("Missing token")
	}
	return ParseToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
}

// ParseToken verifies an HS256 token. The websocket stream passes its token
// in the query string, so this is exported separately from the middlewares.
func ParseToken(tokenStr, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, authError("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authError("Invalid claims")
	}
	return claims, nil
}
