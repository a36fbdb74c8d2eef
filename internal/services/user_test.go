package services

import (
	"context"
	"strings"
	"testing"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (s *fakeUserStore) EmailTaken(_ context.Context, email string) (bool, error) {
	for _, user := range s.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	for _, user := range s.users {
		if user.Username == username && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id, username, bio string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	user.Username = username
	user.Bio = bio
	cp := *user
	return &cp, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.users[id].PasswordHash = passwordHash
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, id string) error {
	return nil
}

func (s *fakeUserStore) Deactivate(_ context.Context, id string) error {
	s.users[id].IsActive = false
	return nil
}

type edge struct{ follower, followee string }

type fakeFollowStore struct {
	edges map[edge]bool
}

func newFakeFollowStore() *fakeFollowStore {
	return &fakeFollowStore{edges: make(map[edge]bool)}
}

func (s *fakeFollowStore) Create(_ context.Context, followerID, followeeID string) error {
	s.edges[edge{followerID, followeeID}] = true
	return nil
}

func (s *fakeFollowStore) Delete(_ context.Context, followerID, followeeID string) error {
	delete(s.edges, edge{followerID, followeeID})
	return nil
}

func (s *fakeFollowStore) Exists(_ context.Context, followerID, followeeID string) (bool, error) {
	return s.edges[edge{followerID, followeeID}], nil
}

func (s *fakeFollowStore) Followers(_ context.Context, userID string) ([]models.User, error) {
	var out []models.User
	for e := range s.edges {
		if e.followee == userID {
			out = append(out, models.User{ID: e.follower})
		}
	}
	return out, nil
}

func (s *fakeFollowStore) Following(_ context.Context, userID string) ([]models.User, error) {
	var out []models.User
	for e := range s.edges {
		if e.follower == userID {
			out = append(out, models.User{ID: e.followee})
		}
	}
	return out, nil
}

func (s *fakeFollowStore) CountFollowers(_ context.Context, userID string) (int, error) {
	n := 0
	for e := range s.edges {
		if e.followee == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeFollowStore) CountFollowing(_ context.Context, userID string) (int, error) {
	n := 0
	for e := range s.edges {
		if e.follower == userID {
			n++
		}
	}
	return n, nil
}

func newUserService() (*UserService, *fakeUserStore, *fakeFollowStore) {
	users := newFakeUserStore()
	follows := newFakeFollowStore()
	return NewUserService(users, follows), users, follows
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()

	user, err := svc.Register(context.Background(), "chef1", "Chef1@Example.COM", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, "chef1@example.com", user.Email, "email is lowercase-normalized")
	require.True(t, user.IsActive)
	require.NotEqual(t, "secret-pass", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-pass")))
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()

	_, err := svc.Register(context.Background(), "chef1", "chef@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "chef2", "CHEF@example.com", "secret-pass")
	require.ErrorIs(t, err, apperr.ErrEmailExists)
}

func TestUserService_RegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()

	_, err := svc.Register(context.Background(), "chef1", "first@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "chef1", "second@example.com", "secret-pass")
	require.ErrorIs(t, err, apperr.ErrUsernameExists)
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	registered, err := svc.Register(context.Background(), "chef1", "chef@example.com", "secret-pass")
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "chef@example.com", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
}

func TestUserService_LoginFailures(t *testing.T) {
	t.Parallel()

	svc, users, _ := newUserService()
	user, err := svc.Register(context.Background(), "chef1", "chef@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "chef@example.com", "wrong-pass")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	// Unknown email is indistinguishable from a bad password
	_, err = svc.Login(context.Background(), "nobody@example.com", "secret-pass")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	require.NoError(t, users.Deactivate(context.Background(), user.ID))
	_, err = svc.Login(context.Background(), "chef@example.com", "secret-pass")
	require.ErrorIs(t, err, apperr.ErrAccountDeactivated)
}

func TestUserService_FollowSelf(t *testing.T) {
	t.Parallel()

	svc, _, follows := newUserService()
	user, err := svc.Register(context.Background(), "chef1", "chef@example.com", "secret-pass")
	require.NoError(t, err)

	err = svc.Follow(context.Background(), user.ID, user.ID)
	require.ErrorIs(t, err, apperr.ErrCannotFollowSelf)
	require.Empty(t, follows.edges)

	err = svc.Unfollow(context.Background(), user.ID, user.ID)
	require.ErrorIs(t, err, apperr.ErrCannotUnfollowSelf)
}

func TestUserService_FollowRoundtrip(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	alice, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)
	bob, err := svc.Register(context.Background(), "bob", "bob@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Follow(context.Background(), alice.ID, bob.ID))

	err = svc.Follow(context.Background(), alice.ID, bob.ID)
	require.ErrorIs(t, err, apperr.ErrAlreadyFollowing)

	got, err := svc.Get(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.FollowerCount)
	require.Equal(t, 0, got.FollowingCount)

	require.NoError(t, svc.Unfollow(context.Background(), alice.ID, bob.ID))

	err = svc.Unfollow(context.Background(), alice.ID, bob.ID)
	require.ErrorIs(t, err, apperr.ErrNotFollowing)

	got, err = svc.Get(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.FollowerCount)
}

func TestUserService_FollowUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	alice, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)

	err = svc.Follow(context.Background(), alice.ID, "no-such-user")
	require.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUserService_UpdateProfileUsernameTaken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	alice, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "bob", "bob@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), alice.ID, "bob", "new bio")
	require.ErrorIs(t, err, apperr.ErrUsernameExists)

	// Keeping your own username is allowed
	updated, err := svc.UpdateProfile(context.Background(), alice.ID, "alice", "new bio")
	require.NoError(t, err)
	require.Equal(t, "new bio", updated.Bio)
}

func TestUserService_ChangePassword(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	user, err := svc.Register(context.Background(), "chef1", "chef@example.com", "secret-pass")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "wrong-pass", "next-pass")
	appErr, ok := apperr.From(err)
	require.True(t, ok)
	require.Equal(t, "INVALID_CURRENT_PASSWORD", appErr.Code)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "secret-pass", "next-pass"))

	_, err = svc.Login(context.Background(), "chef@example.com", "next-pass")
	require.NoError(t, err)
}

func TestUserService_FollowListings(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	alice, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret-pass")
	require.NoError(t, err)
	bob, err := svc.Register(context.Background(), "bob", "bob@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Follow(context.Background(), alice.ID, bob.ID))

	followers, err := svc.Followers(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	require.Equal(t, alice.ID, followers[0].ID)

	following, err := svc.Following(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, bob.ID, following[0].ID)

	_, err = svc.Followers(context.Background(), "no-such-user")
	require.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUserService_RegisterTrimsEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	user, err := svc.Register(context.Background(), "chef1", "  chef@example.com  ", "secret-pass")
	require.NoError(t, err)
	require.False(t, strings.Contains(user.Email, " "))
}
