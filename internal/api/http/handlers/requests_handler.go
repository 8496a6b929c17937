package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/townhall-portal/internal/api/dto"
	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/service"
	"github.com/spec-kit/townhall-portal/internal/validation"
	apperrors "github.com/spec-kit/townhall-portal/pkg/util/errorutil"
)

const msgRequestSubmitted = "Request submitted successfully!"

// RequestIntake records and lists service requests.
type RequestIntake interface {
	SubmitRequest(ctx context.Context, in service.SubmissionInput) (*service.SubmissionResult, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.ServiceRequest, error)
}

// RequestsHandler manages service request endpoints.
type RequestsHandler struct {
	intake RequestIntake
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(intake RequestIntake) *RequestsHandler {
	return &RequestsHandler{intake: intake}
}

// Submit handles POST /api/submit-request.
func (h *RequestsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile := req.ToProfile()
	category := req.Category()

	v := validation.New()
	v.Profile(profile)
	v.Request(category, req.Subcategory, req.Description)
	if err := v.Err(); err != nil {
		return err
	}

	res, err := h.intake.SubmitRequest(c.UserContext(), service.SubmissionInput{
		Profile:     profile,
		Category:    category,
		Subcategory: req.Subcategory,
		Description: req.Description,
	})
	if err != nil {
		return translateError(err)
	}

	return c.Status(http.StatusCreated).JSON(dto.SubmitRequestResponse{
		Success:   true,
		Message:   msgRequestSubmitted,
		RequestID: res.TrackingCode,
	})
}

// ListMine handles GET /api/requests.
func (h *RequestsHandler) ListMine(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	requests, err := h.intake.ListForUser(c.UserContext(), user.ID)
	if err != nil {
		return translateError(err)
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for _, req := range requests {
		items = append(items, dto.NewRequestSummary(req))
	}
	return c.JSON(dto.RequestListResponse{Success: true, Requests: items})
}

// Categories handles GET /api/requests/categories.
func (h *RequestsHandler) Categories(c *fiber.Ctx) error {
	categories := domain.Categories()
	entries := make([]dto.CategoryEntry, 0, len(categories))
	for _, category := range categories {
		entries = append(entries, dto.CategoryEntry{
			RequestType:   string(category),
			Subcategories: category.Subcategories(),
		})
	}
	return c.JSON(dto.CategoriesResponse{Success: true, Categories: entries})
}
