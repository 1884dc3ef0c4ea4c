package controllers

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/lubritrack/lubritrack/internal/pkg/lifecycle"
	"github.com/lubritrack/lubritrack/internal/pkg/quota"
)

func TestServiceErrorStatusQuotaExceeded(t *testing.T) {
	err := &lifecycle.QuotaError{Availability: quota.Availability{
		Allowed:   false,
		Remaining: 0,
		Reason:    quota.ReasonTrialLimit,
	}}

	status, body := serviceErrorStatus(err)

	assert.Equal(t, fiber.StatusPaymentRequired, status)
	assert.Equal(t, "quota_exceeded", body["error"])
	assert.Equal(t, 0, body["remaining"])
	assert.Equal(t, quota.ReasonTrialLimit, body["reason"])
}

func TestServiceErrorStatusMapping(t *testing.T) {
	invalid := validator.New().Struct(struct {
		Name string `validate:"required"`
	}{})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"inactive tenant", lifecycle.ErrTenantInactive, fiber.StatusForbidden, "tenant_inactive"},
		{"invalid transition", lifecycle.ErrInvalidStateTransition, fiber.StatusConflict, "invalid_state_transition"},
		{"wrapped transition", fmt.Errorf("complete service 7: %w", lifecycle.ErrInvalidStateTransition), fiber.StatusConflict, "invalid_state_transition"},
		{"not found", gorm.ErrRecordNotFound, fiber.StatusNotFound, "not_found"},
		{"model validation", fmt.Errorf("validate service record: %w", invalid), fiber.StatusUnprocessableEntity, "validation_failed"},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serviceErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestParseIDParam(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/items/42", fiber.StatusOK},
		{"/items/0", fiber.StatusBadRequest},
		{"/items/abc", fiber.StatusBadRequest},
		{"/items/-5", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil))
		assert.NoError(t, err)
		assert.Equal(t, tt.wantStatus, resp.StatusCode)
	}
}
