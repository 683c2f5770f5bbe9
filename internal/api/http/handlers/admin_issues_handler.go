package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shreyansh2708-git/samadhan/internal/api/dto"
	"github.com/shreyansh2708-git/samadhan/internal/auth"
	"github.com/shreyansh2708-git/samadhan/internal/domain"
	"github.com/shreyansh2708-git/samadhan/internal/service"
	apperrors "github.com/shreyansh2708-git/samadhan/pkg/util"
)

// AdminIssuesHandler manages admin issue endpoints.
type AdminIssuesHandler struct {
	service *service.IssueService
}

// NewAdminIssuesHandler constructs handler.
func NewAdminIssuesHandler(issueService *service.IssueService) *AdminIssuesHandler {
	return &AdminIssuesHandler{service: issueService}
}

// ListIssues GET /admin/issues.
func (h *AdminIssuesHandler) ListIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issues, err := h.service.ListIssues(c.UserContext(), principal.Session, parseQuerySpec(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponses(issues)})
}

// GetIssue GET /admin/issues/:id.
func (h *AdminIssuesHandler) GetIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.service.GetIssue(c.UserContext(), principal.Session, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// UpdateStatus POST /admin/issues/:id/status.
func (h *AdminIssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.Transition(c.UserContext(), principal.Session, c.Params("id"), domain.IssueStatus(req.Status), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// Reopen POST /admin/issues/:id/reopen.
func (h *AdminIssuesHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.Reopen(c.UserContext(), principal.Session, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// UpdatePriority POST /admin/issues/:id/priority.
func (h *AdminIssuesHandler) UpdatePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.Reprioritize(c.UserContext(), principal.Session, c.Params("id"), domain.IssuePriority(req.Priority))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// Assign POST /admin/issues/:id/assign.
func (h *AdminIssuesHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.Reassign(c.UserContext(), principal.Session, c.Params("id"), req.Assignee)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// GetHistory GET /admin/issues/:id/history.
func (h *AdminIssuesHandler) GetHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.service.History(c.UserContext(), principal.Session, c.Params("id"), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromHistory(entries)})
}

// Stats GET /admin/issues/stats.
func (h *AdminIssuesHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	summary, err := h.service.Stats(c.UserContext(), principal.Session)
	if err != nil {
		return err
	}
	resp := dto.StatsResponse{
		Total:      summary.Total,
		Escalated:  summary.Escalated,
		ByStatus:   make(map[string]int, len(summary.ByStatus)),
		ByPriority: make(map[string]int, len(summary.ByPriority)),
	}
	for status, count := range summary.ByStatus {
		resp.ByStatus[string(status)] = count
	}
	for priority, count := range summary.ByPriority {
		resp.ByPriority[string(priority)] = count
	}
	return c.JSON(fiber.Map{"data": resp})
}
