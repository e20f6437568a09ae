// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"errors"

	"tally/internal/models"
	"tally/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetTenants handles GET /tenants
func (s *Server) GetTenants(c *fiber.Ctx) error {
	tenants, err := s.tenantRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(tenants)
}

// CreateTenant handles POST /tenants
func (s *Server) CreateTenant(c *fiber.Ctx) error {
	var req struct {
		CompanyName string `json:"company_name"`
		Slug        string `json:"slug"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.CompanyName == "" || req.Slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Company name and slug are required"))
	}

	if err := validation.ValidateTenantSlug(req.Slug); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	tenant := &models.Tenant{
		CompanyName: req.CompanyName,
		Slug:        req.Slug,
	}

	if err := s.tenantRepo.Create(c.Context(), tenant); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "VALIDATION_ERROR" {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tenant)
}
