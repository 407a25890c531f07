package handlers

import (
	"net/http"

	"nyaydarpan-backend/config"
	"nyaydarpan-backend/models"
	"nyaydarpan-backend/service"

	"github.com/gin-gonic/gin"
)

// KarmaHandler handles HTTP requests for Karma Checks
type KarmaHandler struct {
	karma  service.KarmaChecker
	policy config.ScoringPolicy
}

// NewKarmaHandler creates a new Karma Check handler
func NewKarmaHandler(karma service.KarmaChecker, policy config.ScoringPolicy) *KarmaHandler {
	return &KarmaHandler{
		karma:  karma,
		policy: policy,
	}
}

// KarmaCheckRequest represents the request body for a Karma Check
type KarmaCheckRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Limit       *int   `json:"limit"`
	Context     string `json:"context"`
}

// KarmaCheck handles POST /api/karma-check
func (h *KarmaHandler) KarmaCheck(c *gin.Context) {
	var req KarmaCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	limit := h.karma.DefaultLimit()
	if req.Limit != nil {
		limit = *req.Limit
	}

	score, err := h.karma.CheckCounterparty(c.Request.Context(), req.CompanyName, req.Context, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    score,
	})
}

// RiskIndicators handles GET /api/risk-indicators
func (h *KarmaHandler) RiskIndicators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"policy": h.policy,
			"recommendations": gin.H{
				"high":    service.Recommendations(models.RiskHigh),
				"medium":  service.Recommendations(models.RiskMedium),
				"low":     service.Recommendations(models.RiskLow),
				"unknown": service.Recommendations(models.RiskUnknown),
			},
		},
	})
}
