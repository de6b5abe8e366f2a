package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,29}$`)

// Names that collide with fixed routes under /portfolios.
var reservedUsernames = map[string]struct{}{
	"stats": {},
	"theme": {},
	"me":    {},
}

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// NormalizeUsername lower-cases and validates a username.
func NormalizeUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("%w: username must be 3-30 characters of a-z, 0-9, _ or -", ErrInvalidInput)
	}
	if _, reserved := reservedUsernames[username]; reserved {
		return "", fmt.Errorf("%w: username %q is reserved", ErrInvalidInput, username)
	}
	return username, nil
}

// EnsureFromIdentity records the caller on first sight and returns the stored profile.
func (s *Service) EnsureFromIdentity(ctx context.Context, identity User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(identity.ID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	existing, err := s.Repo.GetByID(ctx, identity.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if identity.Username != "" {
		if username, err := NormalizeUsername(identity.Username); err == nil {
			identity.Username = username
		} else {
			identity.Username = ""
		}
	}
	if err := s.Repo.Upsert(ctx, identity); err != nil {
		if !errors.Is(err, ErrUsernameTaken) {
			return User{}, err
		}
		identity.Username = ""
		if err := s.Repo.Upsert(ctx, identity); err != nil {
			return User{}, err
		}
	}
	return s.Repo.GetByID(ctx, identity.ID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// GetByUsername looks up the owner of a public portfolio.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByUsername(ctx, username)
}

// UpdateProfile applies a profile change for an existing user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if update.Username != nil {
		username, err := NormalizeUsername(*update.Username)
		if err != nil {
			return User{}, err
		}
		if username != user.Username {
			if err := s.Repo.SetUsername(ctx, userID, username); err != nil {
				return User{}, err
			}
		}
	}
	if update.FullName != nil || update.PictureURL != nil {
		patch := User{ID: userID}
		if update.FullName != nil {
			patch.FullName = strings.TrimSpace(*update.FullName)
		}
		if update.PictureURL != nil {
			patch.PictureURL = strings.TrimSpace(*update.PictureURL)
		}
		if err := s.Repo.Upsert(ctx, patch); err != nil {
			return User{}, err
		}
	}
	return s.Repo.GetByID(ctx, userID)
}
