package handler

import (
	"net/http"
	"strconv"

	"github.com/carryhub/carry-service/internal/service"
	"github.com/gin-gonic/gin"
)

type BlacklistHandler struct {
	svc *service.BlacklistService
}

func NewBlacklistHandler(svc *service.BlacklistService) *BlacklistHandler {
	return &BlacklistHandler{svc: svc}
}

type blockRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
	Reason      string `json:"reason"`
	BlockedBy   string `json:"blocked_by" binding:"required"`
}

func (h *BlacklistHandler) Add(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	entry, err := h.svc.Add(c.Request.Context(), req.RequesterID, req.Reason, req.BlockedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *BlacklistHandler) Remove(c *gin.Context) {
	requesterID := c.Param("requesterId")
	if requesterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requester id"})
		return
	}
	if err := h.svc.Remove(c.Request.Context(), requesterID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BlacklistHandler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}

type ProofHandler struct {
	svc *service.ProofService
}

func NewProofHandler(svc *service.ProofService) *ProofHandler {
	return &ProofHandler{svc: svc}
}

func (h *ProofHandler) Recent(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	proofs, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proofs": proofs, "total": len(proofs)})
}
