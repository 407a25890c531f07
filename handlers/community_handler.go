package handlers

import (
	"net/http"

	"nyaydarpan-backend/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultReviewLimit = 20
	maxReviewLimit     = 100
)

// CommunityHandler handles HTTP requests for community insights
type CommunityHandler struct {
	community service.CommunityProvider
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(community service.CommunityProvider) *CommunityHandler {
	return &CommunityHandler{community: community}
}

// CompanyReviewsRequest represents the request body for community insights
type CompanyReviewsRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Limit       int    `json:"limit" binding:"omitempty,min=1,max=100"`
}

// CompanyReviews handles POST /api/company-reviews
func (h *CommunityHandler) CompanyReviews(c *gin.Context) {
	var req CompanyReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultReviewLimit
	}
	limit = min(limit, maxReviewLimit)

	insights, err := h.community.Insights(c.Request.Context(), req.CompanyName, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    insights,
	})
}
