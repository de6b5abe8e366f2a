package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	now := time.Now().UTC()
	if !ok {
		user.CreatedAt = now
		if user.Username != "" && r.takenLocked(user.ID, user.Username) {
			return ErrUsernameTaken
		}
	} else {
		user.CreatedAt = existing.CreatedAt
		user.Username = coalesce(user.Username, existing.Username)
		user.Email = coalesce(user.Email, existing.Email)
		user.FullName = coalesce(user.FullName, existing.FullName)
		user.PictureURL = coalesce(user.PictureURL, existing.PictureURL)
	}
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username != "" && strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) SetUsername(ctx context.Context, userID, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if r.takenLocked(userID, username) {
		return ErrUsernameTaken
	}
	user.Username = username
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

func (r *MemoryRepo) takenLocked(userID, username string) bool {
	for id, u := range r.users {
		if id != userID && strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
