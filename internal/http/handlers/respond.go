package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/collegeevents/internal/apperr"
	"github.com/geocoder89/collegeevents/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondDomainError maps apperr kinds onto HTTP statuses. Anything that is
// not a domain error is logged and hidden behind fallback.
func RespondDomainError(ctx *gin.Context, err error, fallback string) {
	appErr, ok := apperr.As(err)
	if !ok {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondInternal(ctx, fallback)
		return
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		RespondError(ctx, http.StatusBadRequest, "invalid_request", appErr.Message, validationDetails(appErr))
	case apperr.KindNotFound:
		RespondNotFound(ctx, appErr.Message)
	case apperr.KindDuplicate:
		RespondConflict(ctx, "duplicate", appErr.Message)
	case apperr.KindPrecondition:
		RespondError(ctx, http.StatusUnprocessableEntity, "precondition_failed", appErr.Message, nil)
	case apperr.KindForbidden:
		RespondError(ctx, http.StatusForbidden, "forbidden", appErr.Message, nil)
	default:
		RespondInternal(ctx, fallback)
	}
}

// validationDetails exposes field paths when the service rejected a payload
// with validator tags.
func validationDetails(e *apperr.Error) interface{} {
	if e.Err == nil {
		return nil
	}
	return parseBindError(e.Err, nil)
}
