package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/townhall-portal/internal/domain"
)

// SubmitRequestRequest payload for a service request. No password is involved.
type SubmitRequestRequest struct {
	ProfileFields
	RequestType string `json:"requestType"`
	Subcategory string `json:"subcategory"`
	Description string `json:"description"`
}

// Category returns the normalized request type.
func (r SubmitRequestRequest) Category() domain.RequestCategory {
	return domain.RequestCategory(strings.ToLower(strings.TrimSpace(r.RequestType)))
}

// SubmitRequestResponse acknowledges a stored request.
type SubmitRequestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// RequestSummary is one of the caller's requests.
type RequestSummary struct {
	RequestID   string    `json:"requestId"`
	RequestType string    `json:"requestType"`
	Subcategory string    `json:"subcategory"`
	Description string    `json:"description"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// NewRequestSummary maps a stored request.
func NewRequestSummary(req domain.ServiceRequest) RequestSummary {
	return RequestSummary{
		RequestID:   req.TrackingCode(),
		RequestType: string(req.Category),
		Subcategory: req.Subcategory,
		Description: req.Description,
		SubmittedAt: req.SubmittedAt,
	}
}

// RequestListResponse lists the caller's requests.
type RequestListResponse struct {
	Success  bool             `json:"success"`
	Requests []RequestSummary `json:"requests"`
}

// CategoryEntry is one request type and its subcategories.
type CategoryEntry struct {
	RequestType   string   `json:"requestType"`
	Subcategories []string `json:"subcategories"`
}

// CategoriesResponse is the request catalog.
type CategoriesResponse struct {
	Success    bool            `json:"success"`
	Categories []CategoryEntry `json:"categories"`
}
