package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/carryhub/carry-service/internal/availability"
	"github.com/carryhub/carry-service/internal/errs"
	"github.com/carryhub/carry-service/internal/kafka"
	"github.com/carryhub/carry-service/internal/service"
	"github.com/gin-gonic/gin"
)

// TicketHandler — транспортный слой над жизненным циклом тикета: бинды
// запросов, вызов сервисов, маппинг ошибок ядра в HTTP-коды, best-effort
// события в Kafka.
type TicketHandler struct {
	svc      *service.TicketService
	queue    *service.QueueService
	producer kafka.TicketEventProducer
}

func NewTicketHandler(svc *service.TicketService, queue *service.QueueService, producer kafka.TicketEventProducer) *TicketHandler {
	return &TicketHandler{svc: svc, queue: queue, producer: producer}
}

type createTicketRequest struct {
	RequesterID       string  `json:"requester_id" binding:"required"`
	PlayerName        string  `json:"player_name" binding:"required"`
	Level             *int    `json:"level" binding:"required"`
	Mode              string  `json:"mode" binding:"required"`
	TimezoneOffset    float64 `json:"timezone_offset"`
	AvailabilityStart string  `json:"availability_start"`
	AvailabilityEnd   string  `json:"availability_end"`
	PrivateServer     *bool   `json:"private_server"`
	CanChat           *bool   `json:"can_chat"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if *req.Level < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "level must be >= 0"})
		return
	}

	window := availability.Parse(req.AvailabilityStart, req.AvailabilityEnd, req.TimezoneOffset, time.Now())
	in := service.CreateTicketInput{
		RequesterID:    req.RequesterID,
		PlayerName:     req.PlayerName,
		Level:          *req.Level,
		Mode:           req.Mode,
		Timezone:       availability.TimezoneDisplay(req.TimezoneOffset),
		TimezoneOffset: req.TimezoneOffset,
		Availability:   window,
		PrivateServer:  req.PrivateServer == nil || *req.PrivateServer,
		CanChat:        req.CanChat == nil || *req.CanChat,
	}
	ticket, position, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketCreated, ticket)
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket, "queue_position": position})
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// List — очередь ожидающих тикетов в порядке обслуживания.
func (h *TicketHandler) List(c *gin.Context) {
	mode := c.Query("mode")
	availableNow := c.Query("available_now") == "true"
	tickets, err := h.queue.Waiting(c.Request.Context(), mode, availableNow)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "total": len(tickets)})
}

func (h *TicketHandler) Position(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	pos, err := h.queue.Position(c.Request.Context(), t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": t.ID, "mode": t.Mode, "position": pos})
}

func (h *TicketHandler) Compatible(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	matches, err := h.queue.Compatible(c.Request.Context(), t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": t, "compatible": matches, "total": len(matches)})
}

type claimRequest struct {
	HelperID string `json:"helper_id" binding:"required"`
}

func (h *TicketHandler) Claim(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Claim(c.Request.Context(), id, req.HelperID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketClaimed, t)
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Unclaim(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.Unclaim(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketUnclaimed, t)
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Start(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.Start(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type cohelperRequest struct {
	CohelperID string `json:"cohelper_id" binding:"required"`
}

func (h *TicketHandler) AddCohelper(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req cohelperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.AddCohelper(c.Request.Context(), id, req.CohelperID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type mergeRequest struct {
	SourceID uint64 `json:"source_id" binding:"required"`
}

// Merge вливает source в тикет из пути (target).
func (h *TicketHandler) Merge(c *gin.Context) {
	targetID, ok := ticketID(c)
	if !ok {
		return
	}
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	target, err := h.svc.Merge(c.Request.Context(), req.SourceID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if source, err := h.svc.GetByID(c.Request.Context(), req.SourceID); err == nil {
		h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketMerged, source)
	}
	c.JSON(http.StatusOK, target)
}

type completeRequest struct {
	CompletedBy   string `json:"completed_by" binding:"required"`
	ScreenshotURL string `json:"screenshot_url"`
}

func (h *TicketHandler) Complete(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, proof, err := h.svc.Complete(c.Request.Context(), id, req.CompletedBy, req.ScreenshotURL)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketCompleted, t)
	c.JSON(http.StatusOK, gin.H{"ticket": t, "proof": proof})
}

type closeRequest struct {
	Reason string `json:"reason"`
}

func (h *TicketHandler) Close(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Close(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketClosed, t)
	c.JSON(http.StatusOK, t)
}

type updateAvailabilityRequest struct {
	Start          string  `json:"start" binding:"required"`
	End            string  `json:"end"`
	TimezoneOffset float64 `json:"timezone_offset"`
}

func (h *TicketHandler) UpdateAvailability(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req updateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var window availability.Window
	if req.End != "" {
		window = availability.Parse(req.Start, req.End, req.TimezoneOffset, time.Now())
	} else {
		window = availability.ParseInput(req.Start, req.TimezoneOffset, time.Now())
	}
	t, err := h.svc.UpdateAvailability(c.Request.Context(), id, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func ticketID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError мапит ошибки ядра в HTTP-коды; ядро ошибок не глотает,
// рендеринг — забота транспорта.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrTicketNotFound), errors.Is(err, errs.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyClaimed),
		errors.Is(err, errs.ErrInvalidState),
		errors.Is(err, errs.ErrSessionAlreadyOpen),
		errors.Is(err, errs.ErrSessionNotOpen),
		errors.Is(err, errs.ErrActiveTicketExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrSelfMerge),
		errors.Is(err, errs.ErrModeMismatch),
		errors.Is(err, errs.ErrSameAsMainHelper),
		errors.Is(err, errs.ErrUnknownMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrSessionClosed),
		errors.Is(err, errs.ErrBlacklisted),
		errors.Is(err, errs.ErrLevelTooLow):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
