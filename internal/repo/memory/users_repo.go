package memory

import (
	"context"
	"strings"
	"time"

	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(_ context.Context, email, passwordHash, name, role string) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.db.users[u.ID] = u
	r.db.userOrder = append(r.db.userOrder, u.ID)
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]user.User, 0, len(r.db.userOrder))
	for _, id := range r.db.userOrder {
		out = append(out, r.db.users[id])
	}
	return out, nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id, role string) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	r.db.users[id] = u
	return u, nil
}

// Update applies fn under the write lock. Email uniqueness is checked
// against every other user before the change is kept.
func (r *UsersRepo) Update(_ context.Context, id string, fn func(*user.User) error) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if err := fn(&u); err != nil {
		return user.User{}, err
	}

	for otherID, other := range r.db.users {
		if otherID != id && strings.EqualFold(other.Email, u.Email) {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
	}

	r.db.users[id] = u
	return u, nil
}

// Delete removes the user and their registrations.
func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.db.users, id)
	r.db.userOrder = removeID(r.db.userOrder, id)

	kept := r.db.regOrder[:0]
	for _, regID := range r.db.regOrder {
		if r.db.regs[regID].StudentID == id {
			delete(r.db.regs, regID)
			continue
		}
		kept = append(kept, regID)
	}
	r.db.regOrder = kept

	return nil
}
