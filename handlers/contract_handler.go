package handlers

import (
	"context"
	"net/http"

	"nyaydarpan-backend/models"
	"nyaydarpan-backend/service"

	"github.com/gin-gonic/gin"
)

// ContractAnalyzer produces analysis reports for contracts
type ContractAnalyzer interface {
	Analyze(ctx context.Context, req service.AnalysisRequest) (*models.AnalysisReport, error)
}

// ContractHandler handles HTTP requests for contract analysis
type ContractHandler struct {
	analysis ContractAnalyzer
}

// NewContractHandler creates a new contract handler
func NewContractHandler(analysis ContractAnalyzer) *ContractHandler {
	return &ContractHandler{analysis: analysis}
}

// AnalyzeContractRequest represents the request body for contract analysis
type AnalyzeContractRequest struct {
	ContractText     string `json:"contract_text" binding:"required"`
	AnalysisType     string `json:"analysis_type"`
	CounterpartyName string `json:"counterparty_name"`
}

// AnalyzeContract handles POST /api/analyze-contract
func (h *ContractHandler) AnalyzeContract(c *gin.Context) {
	var req AnalyzeContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	report, err := h.analysis.Analyze(c.Request.Context(), service.AnalysisRequest{
		ContractText:     req.ContractText,
		AnalysisType:     models.AnalysisType(req.AnalysisType),
		CounterpartyName: req.CounterpartyName,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}
