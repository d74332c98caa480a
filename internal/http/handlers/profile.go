package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/collegeevents/internal/config"
	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/geocoder89/collegeevents/internal/security"
	"github.com/gin-gonic/gin"
)

// UserAccount is what self-service profile changes need from the store.
type UserAccount interface {
	Update(ctx context.Context, id string, fn func(*user.User) error) (user.User, error)
}

type ProfileHandler struct {
	users UserAccount
	now   func() time.Time
}

func NewProfileHandler(users UserAccount) *ProfileHandler {
	return &ProfileHandler{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (h *ProfileHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, userID, func(u *user.User) error {
		u.Name = strings.TrimSpace(req.Name)
		u.UpdatedAt = h.now()
		return nil
	})
	if err != nil {
		RespondDomainError(ctx, err, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// UpdateEmail keeps the issued token valid: tokens are bound to the user id.
func (h *ProfileHandler) UpdateEmail(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req user.UpdateEmailRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, userID, func(u *user.User) error {
		if security.CheckPassword(u.PasswordHash, req.CurrentPassword) != nil {
			return user.ErrWrongPassword
		}
		u.Email = strings.TrimSpace(req.Email)
		u.UpdatedAt = h.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondDomainError(ctx, err, "Could not update email")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) UpdatePassword(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req user.UpdatePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		RespondInternal(ctx, "Could not update password")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	_, err = h.users.Update(cctx, userID, func(u *user.User) error {
		if security.CheckPassword(u.PasswordHash, req.CurrentPassword) != nil {
			return user.ErrWrongPassword
		}
		u.PasswordHash = hash
		u.UpdatedAt = h.now()
		return nil
	})
	if err != nil {
		RespondDomainError(ctx, err, "Could not update password")
		return
	}

	ctx.Status(http.StatusNoContent)
}
