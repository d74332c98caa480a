package user

import (
	"strings"
	"time"

	"github.com/geocoder89/collegeevents/internal/apperr"
)

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound         = apperr.NotFound("user not found")
	ErrEmailAlreadyUsed = apperr.Duplicate("email is already in use")
	ErrDeleteSelf       = apperr.Precondition("admins cannot delete their own account")
	ErrWrongPassword    = apperr.Forbidden("current password is incorrect")
)

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student faculty admin"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

// UpdateEmailRequest re-confirms the password because the email is the
// login identifier.
type UpdateEmailRequest struct {
	Email           string `json:"email" binding:"required,email"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// AdminUpdateRequest changes only the fields that are present.
type AdminUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=120"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=student faculty admin"`
}

// Apply copies the present fields of req onto u.
func (u *User) Apply(req AdminUpdateRequest, now time.Time) {
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	u.UpdatedAt = now
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}
