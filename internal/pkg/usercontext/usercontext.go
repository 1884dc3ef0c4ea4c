package usercontext

import "github.com/gofiber/fiber/v2"

const contextKey = "STAFF_CONTEXT"

// StaffContext represents the authenticated staff member acting on a request.
// Authentication itself happens upstream; this subsystem trusts the supplied
// identity as already authorized for the tenant.
type StaffContext struct {
	UserID          uint `json:"user_id"`
	TenantID        uint `json:"tenant_id"`
	IsAuthenticated bool `json:"is_authenticated"`
	IsAdmin         bool `json:"is_admin"`
}

// Set stores the staff context on the request.
func Set(c *fiber.Ctx, sc StaffContext) {
	c.Locals(contextKey, sc)
}

// Get retrieves the staff context from fiber context.
// Returns an anonymous context if none is set.
func Get(c *fiber.Ctx) StaffContext {
	if ctx := c.Locals(contextKey); ctx != nil {
		return ctx.(StaffContext)
	}
	return StaffContext{}
}

// GetUserID returns the acting staff member's ID, or 0 if unauthenticated.
func GetUserID(c *fiber.Ctx) uint {
	return Get(c).UserID
}

// GetTenantID returns the tenant the request acts on, or 0 if unauthenticated.
func GetTenantID(c *fiber.Ctx) uint {
	return Get(c).TenantID
}

// IsAdmin checks if the current staff member has the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	return Get(c).IsAdmin
}
