// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"errors"

	"tally/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /posts
// The tenant is selected via the X-Tenant-ID header; anonymous callers may
// browse, and authenticated callers additionally get their upvoted flag.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	tenantID, err := s.tenantHeader(c)
	if err != nil {
		return nil
	}
	if tenantID == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("X-Tenant-ID header is required"))
	}

	pagination := parsePagination(c, 100)

	var currentUserID uint
	if user := s.optionalUser(c); user != nil {
		currentUserID = user.ID
	}

	posts, err := s.postRepo.List(c.Context(), *tenantID, pagination.Limit, pagination.Offset, currentUserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(posts)
}

// CreatePost handles POST /posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user := s.currentUser(c)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		TenantID    uint   `json:"tenant_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Title == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is required"))
	}

	// Resolve the target tenant: header first, then body, then the
	// caller's own tenant.  Whatever wins must match the caller.
	targetTenant := user.TenantID
	headerTenant, err := s.tenantHeader(c)
	if err != nil {
		return nil
	}
	if headerTenant != nil {
		targetTenant = *headerTenant
	} else if req.TenantID != 0 {
		targetTenant = req.TenantID
	}

	if targetTenant != user.TenantID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Cannot create posts in another tenant"))
	}

	post := &models.Post{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusPlanned,
		UserID:      user.ID,
		TenantID:    targetTenant,
	}

	if err := s.postRepo.Create(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpvotePost handles POST /posts/:id/upvote
// Upvoting is idempotent: repeating the call neither errors nor double-counts.
func (s *Server) UpvotePost(c *fiber.Ctx) error {
	user := s.currentUser(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Upvotes are always scoped to the caller's own tenant; posts outside it
	// are invisible
	tenantID := user.TenantID
	if _, err := s.postRepo.GetByID(c.Context(), postID, tenantID, user.ID); err != nil {
		return respondRepoError(c, err)
	}

	// Repeat calls hand back the row the first call created
	upvote, err := s.upvoteRepo.Upvote(c.Context(), user.ID, postID, tenantID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(upvote)
}

// UpdatePostStatus handles PUT /posts/:id/status (admin only)
func (s *Server) UpdatePostStatus(c *fiber.Ctx) error {
	user := s.currentUser(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	status := models.PostStatus(req.Status)
	if !status.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Status must be one of: planned, in_progress, completed"))
	}

	// Admins only manage posts within their own tenant
	post, err := s.postRepo.GetByID(c.Context(), postID, user.TenantID, user.ID)
	if err != nil {
		return respondRepoError(c, err)
	}

	if err := s.postRepo.UpdateStatus(c.Context(), post, status); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(post)
}

// respondRepoError maps repository error codes onto HTTP statuses.
func respondRepoError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}
