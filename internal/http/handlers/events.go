package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/collegeevents/internal/config"
	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type EventsService interface {
	CreateEvent(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	GetAllEvents(ctx context.Context) ([]event.Event, error)
	ListApprovedEvents(ctx context.Context) ([]event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	ApproveEvent(ctx context.Context, id string) (event.Event, error)
	UpdateEvent(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type EventsHandler struct {
	svc EventsService
}

func NewEventsHandler(svc EventsService) *EventsHandler {
	return &EventsHandler{svc: svc}
}

func (h *EventsHandler) FacultyHello(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Hello, Faculty!")
}

// CreateEvent answers 200 rather than 201; existing clients expect it.
func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if userID, ok := middlewares.UserIDFromContext(ctx); ok {
		req.CreatedBy = userID
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.svc.CreateEvent(cctx, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create event")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EventsHandler) ListAllEvents(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	events, err := h.svc.GetAllEvents(cctx)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list events")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, events)
}

func (h *EventsHandler) ListApprovedEvents(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	events, err := h.svc.ListApprovedEvents(cctx)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list events")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, events)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.svc.GetEvent(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch event")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EventsHandler) ApproveEvent(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.svc.ApproveEvent(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not approve event")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.svc.UpdateEvent(cctx, ctx.Param("id"), req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not update event")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.DeleteEvent(cctx, ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err, "Could not delete event")
		return
	}

	ctx.Status(http.StatusNoContent)
}
