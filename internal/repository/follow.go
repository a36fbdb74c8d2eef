package repository

import (
	"context"
	"fmt"
	"time"

	"recipe-share-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowRepository handles database operations for follow edges. An edge is
// a single row (follower_id, followee_id), queried from both directions, so
// follow and unfollow are each one atomic write.
type FollowRepository struct {
	db *pgxpool.Pool
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts a follow edge
func (r *FollowRepository) Create(ctx context.Context, followerID, followeeID string) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, followerID, followeeID, time.Now()); err != nil {
		return fmt.Errorf("failed to create follow edge: %w", err)
	}
	return nil
}

// Delete removes a follow edge
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	if _, err := r.db.Exec(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to delete follow edge: %w", err)
	}
	return nil
}

// Exists checks whether follower currently follows followee
func (r *FollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, followerID, followeeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	return exists, nil
}

// Followers lists the users following the given user
func (r *FollowRepository) Followers(ctx context.Context, userID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.bio, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
	`
	return r.listEdgeUsers(ctx, query, userID)
}

// Following lists the users the given user follows
func (r *FollowRepository) Following(ctx context.Context, userID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.bio, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`
	return r.listEdgeUsers(ctx, query, userID)
}

func (r *FollowRepository) listEdgeUsers(ctx context.Context, query, userID string) ([]models.User, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow edges: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Bio, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow edge user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follow edges: %w", err)
	}
	return users, nil
}

// CountFollowers counts users following the given user
func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	return r.countEdges(ctx, `SELECT count(*) FROM follows WHERE followee_id = $1`, userID)
}

// CountFollowing counts users the given user follows
func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	return r.countEdges(ctx, `SELECT count(*) FROM follows WHERE follower_id = $1`, userID)
}

func (r *FollowRepository) countEdges(ctx context.Context, query, userID string) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count follow edges: %w", err)
	}
	return count, nil
}
