package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/geocoder89/collegeevents/internal/config"
	"github.com/geocoder89/collegeevents/internal/domain/registration"
	"github.com/geocoder89/collegeevents/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type RegistrationsService interface {
	Register(ctx context.Context, studentID, eventID string) (registration.Registration, error)
	RecordAttendance(ctx context.Context, registrationID string) (registration.Registration, error)
	IssueCertificate(ctx context.Context, registrationID string) (registration.Registration, error)
	SubmitOwnFeedback(ctx context.Context, studentID, registrationID, text string) (registration.Registration, error)
	SubmitFeedbackForEvent(ctx context.Context, studentID, eventID, text string) (registration.Registration, error)
	ListForStudent(ctx context.Context, studentID string) ([]registration.WithEvent, error)
	ListForEvent(ctx context.Context, eventID string) ([]registration.Participant, error)
	ExportParticipantsCSV(ctx context.Context, eventID string, w io.Writer) error
}

type RegistrationHandler struct {
	svc RegistrationsService
}

func NewRegistrationHandler(svc RegistrationsService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func callerID(ctx *gin.Context) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return "", false
	}
	return userID, true
}

func (h *RegistrationHandler) Register(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	reg, err := h.svc.Register(cctx, userID, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not register for event")
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

func (h *RegistrationHandler) RecordAttendance(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	reg, err := h.svc.RecordAttendance(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not record attendance")
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

func (h *RegistrationHandler) IssueCertificate(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	reg, err := h.svc.IssueCertificate(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not issue certificate")
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// SubmitFeedback updates feedback on the caller's own registration.
func (h *RegistrationHandler) SubmitFeedback(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req registration.FeedbackRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	reg, err := h.svc.SubmitOwnFeedback(cctx, userID, ctx.Param("id"), req.Feedback)
	if err != nil {
		RespondDomainError(ctx, err, "Could not submit feedback")
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

func (h *RegistrationHandler) SubmitFeedbackForEvent(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req registration.FeedbackRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	reg, err := h.svc.SubmitFeedbackForEvent(cctx, userID, ctx.Param("id"), req.Feedback)
	if err != nil {
		RespondDomainError(ctx, err, "Could not submit feedback")
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

func (h *RegistrationHandler) ListMine(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	regs, err := h.svc.ListForStudent(cctx, userID)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list registrations")
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

func (h *RegistrationHandler) ListForEvent(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	regs, err := h.svc.ListForEvent(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not list registrations")
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// ExportParticipants renders into a buffer first so a failure halfway
// through still produces a proper JSON error.
func (h *RegistrationHandler) ExportParticipants(ctx *gin.Context) {
	eventID := ctx.Param("id")

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := h.svc.ExportParticipantsCSV(cctx, eventID, &buf); err != nil {
		RespondDomainError(ctx, err, "Could not export participants")
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="participants-`+eventID+`.csv"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
