package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/collegeevents/internal/config"
	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserAdmin interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateRole(ctx context.Context, id, role string) (user.User, error)
	Update(ctx context.Context, id string, fn func(*user.User) error) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UserAdmin
	now   func() time.Time
}

func NewUsersHandler(users UserAdmin) *UsersHandler {
	return &UsersHandler{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) UpdateRole(ctx *gin.Context) {
	var req user.UpdateRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.UpdateRole(cctx, ctx.Param("id"), req.Role)
	if err != nil {
		RespondDomainError(ctx, err, "Could not update role")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	var req user.AdminUpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, ctx.Param("id"), func(u *user.User) error {
		u.Apply(req, h.now())
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondDomainError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// DeleteUser also removes the user's registrations.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	adminID, ok := callerID(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if id == adminID {
		RespondDomainError(ctx, user.ErrDeleteSelf, "Could not delete user")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		RespondDomainError(ctx, err, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
