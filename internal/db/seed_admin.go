package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/collegeevents/internal/config"
	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/geocoder89/collegeevents/internal/security"
)

// AdminStore is satisfied by both the memory and postgres users repos.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	UpdateRole(ctx context.Context, id, role string) (user.User, error)
}

// EnsureAdminUser creates the configured admin account on first boot. An
// existing account with that email is promoted to admin if needed.
func EnsureAdminUser(ctx context.Context, users AdminStore, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		if existing.Role != cfg.AdminRole {
			if _, err := users.UpdateRole(ctx, existing.ID, cfg.AdminRole); err != nil {
				return err
			}
			log.Info("promoted existing user to admin", "user_id", existing.ID)
		}
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u, err := users.Create(ctx, cfg.AdminEmail, hash, cfg.AdminName, cfg.AdminRole)
	if err != nil {
		// another instance won the race
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			return nil
		}
		return err
	}

	log.Info("seeded admin user", "user_id", u.ID, "email", u.Email)
	return nil
}
