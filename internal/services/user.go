package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// UserStore is the persistence surface the user service needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	UpdateProfile(ctx context.Context, id, username, bio string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
}

// FollowStore is the persistence surface for follow edges
type FollowStore interface {
	Create(ctx context.Context, followerID, followeeID string) error
	Delete(ctx context.Context, followerID, followeeID string) error
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	Followers(ctx context.Context, userID string) ([]models.User, error)
	Following(ctx context.Context, userID string) ([]models.User, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

// UserService handles identity and social-graph business logic
type UserService struct {
	users   UserStore
	follows FollowStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore, follows FollowStore) *UserService {
	return &UserService{users: users, follows: follows}
}

// Register creates a new account. Email is lowercase-normalized; duplicate
// email or username fails with the matching conflict error.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	emailTaken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return nil, apperr.ErrEmailExists
	}

	usernameTaken, err := s.users.UsernameTaken(ctx, username, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameTaken {
		return nil, apperr.ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the account. Unknown email and bad
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if _, ok := apperr.From(err); ok {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperr.ErrAccountDeactivated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Get loads a user with follower/following counts
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.FollowerCount, err = s.follows.CountFollowers(ctx, id); err != nil {
		return nil, err
	}
	if user.FollowingCount, err = s.follows.CountFollowing(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes username and bio, rejecting a taken username
func (s *UserService) UpdateProfile(ctx context.Context, userID, username, bio string) (*models.User, error) {
	taken, err := s.users.UsernameTaken(ctx, username, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, apperr.ErrUsernameExists
	}
	return s.users.UpdateProfile(ctx, userID, username, bio)
}

// ChangePassword verifies the current password before rehashing
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperr.New(400, "INVALID_CURRENT_PASSWORD", "Current password is incorrect.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// Deactivate clears the active flag; subsequent authenticated requests fail
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	return s.users.Deactivate(ctx, userID)
}

// Follow adds a follow edge from follower to followee
func (s *UserService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperr.ErrCannotFollowSelf
	}
	if _, err := s.users.GetByID(ctx, followeeID); err != nil {
		return err
	}

	exists, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.ErrAlreadyFollowing
	}
	return s.follows.Create(ctx, followerID, followeeID)
}

// Unfollow removes a follow edge from follower to followee
func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperr.ErrCannotUnfollowSelf
	}

	exists, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.ErrNotFollowing
	}
	return s.follows.Delete(ctx, followerID, followeeID)
}

// Followers lists the users following the given user
func (s *UserService) Followers(ctx context.Context, userID string) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, userID)
}

// Following lists the users the given user follows
func (s *UserService) Following(ctx context.Context, userID string) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, userID)
}
