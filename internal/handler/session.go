package handler

import (
	"net/http"
	"strconv"

	"github.com/carryhub/carry-service/internal/errs"
	"github.com/carryhub/carry-service/internal/kafka"
	"github.com/carryhub/carry-service/internal/model"
	"github.com/carryhub/carry-service/internal/service"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	svc      *service.SessionService
	producer kafka.TicketEventProducer
}

func NewSessionHandler(svc *service.SessionService, producer kafka.TicketEventProducer) *SessionHandler {
	return &SessionHandler{svc: svc, producer: producer}
}

type openSessionRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

func (h *SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sess, err := h.svc.Open(c.Request.Context(), req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceSessionEvent(c.Request.Context(), kafka.EventSessionOpened, sess)
	c.JSON(http.StatusCreated, sess)
}

// Close закрывает текущую открытую сессию и возвращает её статистику.
func (h *SessionHandler) Close(c *gin.Context) {
	sess, err := h.svc.Current(c.Request.Context())
	if err != nil {
		if err == errs.ErrSessionClosed {
			c.JSON(http.StatusConflict, gin.H{"error": errs.ErrSessionNotOpen.Error()})
			return
		}
		respondError(c, err)
		return
	}
	stats, err := h.svc.Close(c.Request.Context(), sess.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	sess.Status = model.SessionStatusClosed
	h.producer.ProduceSessionEvent(c.Request.Context(), kafka.EventSessionClosed, sess)
	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID, "stats": stats})
}

// Current — открытая сессия; 200 с session: null, когда сессии нет
// (отсутствие открытой сессии — не ошибка для читающего).
func (h *SessionHandler) Current(c *gin.Context) {
	sess, err := h.svc.Current(c.Request.Context())
	if err != nil {
		if err == errs.ErrSessionClosed {
			c.JSON(http.StatusOK, gin.H{"session": nil})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (h *SessionHandler) Stats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
