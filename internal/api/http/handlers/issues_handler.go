package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shreyansh2708-git/samadhan/internal/api/dto"
	"github.com/shreyansh2708-git/samadhan/internal/auth"
	"github.com/shreyansh2708-git/samadhan/internal/domain"
	"github.com/shreyansh2708-git/samadhan/internal/query"
	"github.com/shreyansh2708-git/samadhan/internal/service"
	apperrors "github.com/shreyansh2708-git/samadhan/pkg/util"
)

// IssuesHandler manages citizen issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    domain.IssuePriority(req.Priority),
		Severity:    req.Severity,
		Location: domain.Location{
			Address:   req.Address,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
		Tags: req.Tags,
	}
	issue, err := h.service.CreateIssue(c.UserContext(), principal.Session, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
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

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
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

// UpdateIssue PATCH /issues/:id.
func (h *IssuesHandler) UpdateIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.UpdateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if req.Address != nil || req.Latitude != nil || req.Longitude != nil {
		location := domain.Location{Latitude: req.Latitude, Longitude: req.Longitude}
		if req.Address != nil {
			location.Address = *req.Address
		}
		input.Location = &location
	}
	issue, err := h.service.UpdateDetails(c.UserContext(), principal.Session, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// GetHistory GET /issues/:id/history.
func (h *IssuesHandler) GetHistory(c *fiber.Ctx) error {
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

func parseQuerySpec(c *fiber.Ctx) query.Spec {
	return query.Spec{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Sort:     query.SortKey(c.Query("sort")),
		Owner:    c.Query("owner"),
	}
}

func issueResponses(issues []domain.Issue) []dto.IssueResponse {
	items := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, dto.FromIssue(&issues[i]))
	}
	return items
}
