package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lubritrack/lubritrack/internal/pkg/usercontext"
)

// StaffContextMiddleware resolves the acting staff member and tenant for every
// request. The identity arrives from the authentication layer in trusted
// headers; this subsystem does not perform authentication itself.
func StaffContextMiddleware(c *fiber.Ctx) error {
	userID := parseUintHeader(c, "X-User-ID")
	tenantID := parseUintHeader(c, "X-Tenant-ID")
	if userID == 0 || tenantID == 0 {
		usercontext.Set(c, usercontext.StaffContext{})
		return c.Next()
	}

	role := strings.ToLower(strings.TrimSpace(c.Get("X-User-Role")))
	usercontext.Set(c, usercontext.StaffContext{
		UserID:          userID,
		TenantID:        tenantID,
		IsAuthenticated: true,
		IsAdmin:         role == "admin",
	})
	return c.Next()
}

// RequireStaff rejects requests without an authenticated staff context.
func RequireStaff(c *fiber.Ctx) error {
	if !usercontext.Get(c).IsAuthenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "staff identity headers are missing",
		})
	}
	return c.Next()
}

// RequireAdmin rejects requests whose staff member lacks the admin role.
func RequireAdmin(c *fiber.Ctx) error {
	sc := usercontext.Get(c)
	if !sc.IsAuthenticated || !sc.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin role required",
		})
	}
	return c.Next()
}

func parseUintHeader(c *fiber.Ctx, key string) uint {
	raw := strings.TrimSpace(c.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}
