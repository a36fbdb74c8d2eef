package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecipeRepository handles database operations for recipes and their
// engagement state. Likes live in a recipe_likes membership table so add and
// remove are single atomic statements keyed by intended target state.
type RecipeRepository struct {
	db *pgxpool.Pool
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create creates a new recipe
func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	ingredients, instructions, err := marshalLists(recipe)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO recipes (id, author_id, title, description, ingredients, instructions, is_public, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		recipe.ID, recipe.AuthorID, recipe.Title, recipe.Description,
		ingredients, instructions, recipe.IsPublic, recipe.Views,
		recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe by ID, including its current like count
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	query := `
		SELECT r.id, r.author_id, r.title, r.description, r.ingredients, r.instructions,
		       r.is_public, r.views, r.created_at, r.updated_at,
		       (SELECT count(*) FROM recipe_likes l WHERE l.recipe_id = r.id)
		FROM recipes r
		WHERE r.id = $1
	`
	var recipe models.Recipe
	var ingredients, instructions []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&recipe.ID, &recipe.AuthorID, &recipe.Title, &recipe.Description,
		&ingredients, &instructions, &recipe.IsPublic, &recipe.Views,
		&recipe.CreatedAt, &recipe.UpdatedAt, &recipe.LikesCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if err := json.Unmarshal(ingredients, &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	if err := json.Unmarshal(instructions, &recipe.Instructions); err != nil {
		return nil, fmt.Errorf("failed to decode instructions: %w", err)
	}
	return &recipe, nil
}

// Update replaces the author-owned content fields of a recipe
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	ingredients, instructions, err := marshalLists(recipe)
	if err != nil {
		return err
	}

	query := `
		UPDATE recipes
		SET title = $1, description = $2, ingredients = $3, instructions = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query,
		recipe.Title, recipe.Description, ingredients, instructions, time.Now(), recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrRecipeNotFound
	}
	return nil
}

// UpdateInstructions replaces only the instruction list
func (r *RecipeRepository) UpdateInstructions(ctx context.Context, id string, instructions []models.Instruction) error {
	data, err := json.Marshal(instructions)
	if err != nil {
		return fmt.Errorf("failed to encode instructions: %w", err)
	}

	query := `UPDATE recipes SET instructions = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, data, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update instructions: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrRecipeNotFound
	}
	return nil
}

// Delete deletes a recipe and its engagement rows
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM recipes WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrRecipeNotFound
	}
	return nil
}

// SetPublic marks a recipe as published. The transition is one-way.
func (r *RecipeRepository) SetPublic(ctx context.Context, id string) error {
	query := `UPDATE recipes SET is_public = true, updated_at = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to publish recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrRecipeNotFound
	}
	return nil
}

// AddLike adds userID to the recipe's like set. Reports whether the set changed.
func (r *RecipeRepository) AddLike(ctx context.Context, recipeID, userID string) (bool, error) {
	query := `
		INSERT INTO recipe_likes (recipe_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (recipe_id, user_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, recipeID, userID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveLike removes userID from the recipe's like set. Reports whether the set changed.
func (r *RecipeRepository) RemoveLike(ctx context.Context, recipeID, userID string) (bool, error) {
	query := `DELETE FROM recipe_likes WHERE recipe_id = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query, recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// HasLiked checks membership of userID in the recipe's like set
func (r *RecipeRepository) HasLiked(ctx context.Context, recipeID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM recipe_likes WHERE recipe_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, recipeID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

// CountLikes returns the size of the recipe's like set
func (r *RecipeRepository) CountLikes(ctx context.Context, recipeID string) (int, error) {
	query := `SELECT count(*) FROM recipe_likes WHERE recipe_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, recipeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// AddComment appends a comment
func (r *RecipeRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO recipe_comments (id, recipe_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		comment.ID, comment.RecipeID, comment.UserID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// GetComment retrieves a comment by ID. A missing comment returns (nil, nil)
// so removal of an absent comment stays a no-op.
func (r *RecipeRepository) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	query := `
		SELECT c.id, c.recipe_id, c.user_id, u.username, c.text, c.created_at
		FROM recipe_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`
	var comment models.Comment
	err := r.db.QueryRow(ctx, query, commentID).Scan(
		&comment.ID, &comment.RecipeID, &comment.UserID, &comment.Username,
		&comment.Text, &comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// DeleteComment removes a comment by exact ID
func (r *RecipeRepository) DeleteComment(ctx context.Context, commentID string) error {
	query := `DELETE FROM recipe_comments WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// ListComments returns a recipe's comments in insertion order
func (r *RecipeRepository) ListComments(ctx context.Context, recipeID string) ([]models.Comment, error) {
	query := `
		SELECT c.id, c.recipe_id, c.user_id, u.username, c.text, c.created_at
		FROM recipe_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.recipe_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := r.db.Query(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID, &comment.RecipeID, &comment.UserID, &comment.Username,
			&comment.Text, &comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// IncrementViews applies an unconditional +1 to the view counter
func (r *RecipeRepository) IncrementViews(ctx context.Context, recipeID string) error {
	query := `UPDATE recipes SET views = views + 1 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, recipeID); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func marshalLists(recipe *models.Recipe) (ingredients, instructions []byte, err error) {
	ingredients, err = json.Marshal(recipe.Ingredients)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode ingredients: %w", err)
	}
	instructions, err = json.Marshal(recipe.Instructions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode instructions: %w", err)
	}
	return ingredients, instructions, nil
}
