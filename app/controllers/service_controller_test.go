package controllers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/lubritrack/lubritrack/internal/pkg/usercontext"
)

func newStaffApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.StaffContext{UserID: 7, TenantID: 1, IsAuthenticated: true})
		return c.Next()
	})
	app.Patch("/services/:id", HandleUpdateServiceDetail)
	app.Post("/services/:id/complete", HandleCompleteService)
	return app
}

func TestDetailHandlersRejectOversizedFields(t *testing.T) {
	app := newStaffApp()
	payload := fmt.Sprintf(`{"client_name":%q}`, strings.Repeat("x", 151))

	tests := []struct {
		method string
		path   string
	}{
		{fiber.MethodPatch, "/services/5"},
		{fiber.MethodPost, "/services/5/complete"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
}

func TestDetailHandlersRejectInvalidJSON(t *testing.T) {
	app := newStaffApp()

	req := httptest.NewRequest(fiber.MethodPatch, "/services/5", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
