package domain

import (
	"fmt"
	"slices"
	"time"
)

// TrackingPrefix precedes the store-assigned request id in tracking codes.
const TrackingPrefix = "REQ-"

// RequestCategory enumerates the kinds of inquiry the town hall accepts.
type RequestCategory string

const (
	RequestCategoryGeneral         RequestCategory = "general"
	RequestCategoryID              RequestCategory = "id"
	RequestCategoryPassport        RequestCategory = "passport"
	RequestCategoryResidencePermit RequestCategory = "trp"
)

var subcategories = map[RequestCategory][]string{
	RequestCategoryGeneral:         {"Opening hours", "Fees", "Contact", "Other"},
	RequestCategoryID:              {"Lost ID", "Damaged ID", "Expired ID/Renewal", "Change of details", "First-time application", "Other"},
	RequestCategoryPassport:        {"Lost passport", "Expired passport/Renewal", "Change of details", "First-time application", "Other"},
	RequestCategoryResidencePermit: {"Application", "Extension", "Change of status", "Other"},
}

// Categories lists categories in display order.
func Categories() []RequestCategory {
	return []RequestCategory{
		RequestCategoryGeneral,
		RequestCategoryID,
		RequestCategoryPassport,
		RequestCategoryResidencePermit,
	}
}

// Valid reports whether c is a known category.
func (c RequestCategory) Valid() bool {
	_, ok := subcategories[c]
	return ok
}

// Subcategories returns a copy of the allowed subcategories for c.
func (c RequestCategory) Subcategories() []string {
	return slices.Clone(subcategories[c])
}

// AllowsSubcategory reports whether sub belongs to c.
func (c RequestCategory) AllowsSubcategory(sub string) bool {
	return slices.Contains(subcategories[c], sub)
}

// ServiceRequest is one citizen inquiry. Immutable once stored.
type ServiceRequest struct {
	ID          int64
	UserID      int64
	Category    RequestCategory
	Subcategory string
	Description string
	SubmittedAt time.Time
}

// TrackingCode formats a store id as the human-facing code.
func TrackingCode(id int64) string {
	return fmt.Sprintf("%s%d", TrackingPrefix, id)
}

// TrackingCode returns the request's human-facing code.
func (r *ServiceRequest) TrackingCode() string {
	return TrackingCode(r.ID)
}
