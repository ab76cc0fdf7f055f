package auth

import (
	"fmt"
	"strings"

	"vehicle-admin/internal/config"
	"vehicle-admin/internal/permission"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey      = "user_id"
	CtxUserNameKey    = "user_name"
	CtxUserRoleKey    = "user_role"
	CtxPermissionsKey = "permissions"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization format must be 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		// file tokens share the secret but carry an audience and no user
		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok || claims.UserID == 0 || len(claims.Audience) > 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Token could not be decoded")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserNameKey, claims.Name)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxPermissionsKey, claims.Permissions)

		return c.Next()
	}
}

// RequirePermission lets the request through when the token grants code.
func RequirePermission(code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		perms, ok := c.Locals(CtxPermissionsKey).([]string)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Permission information missing")
		}
		if !permission.Has(perms, code) {
			return fiber.NewError(fiber.StatusForbidden, "You are not allowed to do this ("+code+")")
		}
		return c.Next()
	}
}

// Actor is the authenticated user of a request.
type Actor struct {
	ID          uint
	Name        string
	Role        string
	Permissions []string
}

func CurrentUser(c *fiber.Ctx) (Actor, error) {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "User information missing")
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	role, _ := c.Locals(CtxUserRoleKey).(string)
	perms, _ := c.Locals(CtxPermissionsKey).([]string)
	return Actor{ID: id, Name: name, Role: role, Permissions: perms}, nil
}

// RequireAnyPermission lets the request through when the token grants one of codes.
func RequireAnyPermission(codes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		perms, ok := c.Locals(CtxPermissionsKey).([]string)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Permission information missing")
		}
		for _, code := range codes {
			if permission.Has(perms, code) {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to do this ("+strings.Join(codes, " or ")+")")
	}
}
