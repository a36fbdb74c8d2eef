package services

import (
	"context"
	"sort"
	"time"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"

	"github.com/google/uuid"
)

// RecipeStore is the persistence surface the recipe service needs
type RecipeStore interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	UpdateInstructions(ctx context.Context, id string, instructions []models.Instruction) error
	Delete(ctx context.Context, id string) error
	SetPublic(ctx context.Context, id string) error
	AddLike(ctx context.Context, recipeID, userID string) (bool, error)
	RemoveLike(ctx context.Context, recipeID, userID string) (bool, error)
	HasLiked(ctx context.Context, recipeID, userID string) (bool, error)
	CountLikes(ctx context.Context, recipeID string) (int, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	ListComments(ctx context.Context, recipeID string) ([]models.Comment, error)
	IncrementViews(ctx context.Context, recipeID string) error
}

// RecipeService handles recipe content and engagement mutations
type RecipeService struct {
	recipes RecipeStore
}

// NewRecipeService creates a new recipe service
func NewRecipeService(recipes RecipeStore) *RecipeService {
	return &RecipeService{recipes: recipes}
}

// RecipeInput is the author-owned content of a recipe
type RecipeInput struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Ingredients  []models.Ingredient  `json:"ingredients"`
	Instructions []models.Instruction `json:"instructions"`
	IsPublic     bool                 `json:"is_public"`
}

// validateInstructions enforces that step indices are unique and form the
// contiguous range 1..N. Violations reject the whole update.
func validateInstructions(instructions []models.Instruction) error {
	if len(instructions) == 0 {
		return apperr.Validation("Recipe must have at least one instruction.")
	}
	steps := make([]int, len(instructions))
	for i, inst := range instructions {
		steps[i] = inst.Step
	}
	sort.Ints(steps)
	for i, step := range steps {
		if step != i+1 {
			return apperr.ErrInvalidInstructionSequence
		}
	}
	return nil
}

// Create creates a recipe owned by authorID
func (s *RecipeService) Create(ctx context.Context, authorID string, input RecipeInput) (*models.Recipe, error) {
	if err := validateInstructions(input.Instructions); err != nil {
		return nil, err
	}
	if len(input.Ingredients) == 0 {
		return nil, apperr.Validation("Recipe must have at least one ingredient.")
	}

	now := time.Now()
	recipe := &models.Recipe{
		ID:           uuid.New().String(),
		AuthorID:     authorID,
		Title:        input.Title,
		Description:  input.Description,
		Ingredients:  input.Ingredients,
		Instructions: sortedByStep(input.Instructions),
		IsPublic:     input.IsPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Get returns a recipe visible to viewerID (public, or owned by the viewer),
// increments its view counter, and reports whether the viewer has liked it.
// Every fetch increments views; there is no per-viewer deduplication.
func (s *RecipeService) Get(ctx context.Context, recipeID, viewerID string) (*models.Recipe, bool, error) {
	recipe, err := s.visibleRecipe(ctx, recipeID, viewerID)
	if err != nil {
		return nil, false, err
	}

	if err := s.recipes.IncrementViews(ctx, recipeID); err != nil {
		return nil, false, err
	}
	recipe.Views++

	liked := false
	if viewerID != "" {
		if liked, err = s.recipes.HasLiked(ctx, recipeID, viewerID); err != nil {
			return nil, false, err
		}
	}
	return recipe, liked, nil
}

// Update replaces a recipe's content fields. Only the author may update.
func (s *RecipeService) Update(ctx context.Context, recipeID, callerID string, input RecipeInput) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeOwner(recipe.AuthorID, callerID); err != nil {
		return nil, err
	}
	if err := validateInstructions(input.Instructions); err != nil {
		return nil, err
	}

	recipe.Title = input.Title
	recipe.Description = input.Description
	recipe.Ingredients = input.Ingredients
	recipe.Instructions = sortedByStep(input.Instructions)
	recipe.UpdatedAt = time.Now()

	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// SetInstructions replaces only the instruction list, atomically: an invalid
// sequence rejects the whole update and the stored list is untouched.
func (s *RecipeService) SetInstructions(ctx context.Context, recipeID, callerID string, instructions []models.Instruction) error {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := AuthorizeOwner(recipe.AuthorID, callerID); err != nil {
		return err
	}
	if err := validateInstructions(instructions); err != nil {
		return err
	}
	return s.recipes.UpdateInstructions(ctx, recipeID, sortedByStep(instructions))
}

// Delete removes a recipe. Only the author may delete.
func (s *RecipeService) Delete(ctx context.Context, recipeID, callerID string) error {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := AuthorizeOwner(recipe.AuthorID, callerID); err != nil {
		return err
	}
	return s.recipes.Delete(ctx, recipeID)
}

// Publish flips a draft to public. The transition is one-way and
// author-triggered; publishing an already-public recipe is a no-op.
func (s *RecipeService) Publish(ctx context.Context, recipeID, callerID string) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeOwner(recipe.AuthorID, callerID); err != nil {
		return nil, err
	}
	if !recipe.IsPublic {
		if err := s.recipes.SetPublic(ctx, recipeID); err != nil {
			return nil, err
		}
		recipe.IsPublic = true
	}
	return recipe, nil
}

// ToggleLike flips callerID's membership in the recipe's like set. The
// liked/unliked outcome is decided from a membership read immediately before
// the write; two racing toggles from the same user may each report an
// outcome the eventual state does not reflect.
func (s *RecipeService) ToggleLike(ctx context.Context, recipeID, callerID string) (liked bool, likesCount int, recipe *models.Recipe, err error) {
	recipe, err = s.visibleRecipe(ctx, recipeID, callerID)
	if err != nil {
		return false, 0, nil, err
	}

	hasLiked, err := s.recipes.HasLiked(ctx, recipeID, callerID)
	if err != nil {
		return false, 0, nil, err
	}
	if hasLiked {
		_, err = s.recipes.RemoveLike(ctx, recipeID, callerID)
	} else {
		_, err = s.recipes.AddLike(ctx, recipeID, callerID)
	}
	if err != nil {
		return false, 0, nil, err
	}

	likesCount, err = s.recipes.CountLikes(ctx, recipeID)
	if err != nil {
		return false, 0, nil, err
	}
	return !hasLiked, likesCount, recipe, nil
}

// AddComment appends a comment in insertion order
func (s *RecipeService) AddComment(ctx context.Context, recipeID, callerID, text string) (*models.Comment, *models.Recipe, error) {
	recipe, err := s.visibleRecipe(ctx, recipeID, callerID)
	if err != nil {
		return nil, nil, err
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		UserID:    callerID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.recipes.AddComment(ctx, comment); err != nil {
		return nil, nil, err
	}
	return comment, recipe, nil
}

// RemoveComment removes a comment by exact ID. An absent comment is a no-op.
// The comment's author and the recipe's author may both remove it.
func (s *RecipeService) RemoveComment(ctx context.Context, recipeID, callerID, commentID string) error {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}

	comment, err := s.recipes.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil || comment.RecipeID != recipeID {
		return nil
	}
	if comment.UserID != callerID && recipe.AuthorID != callerID {
		return apperr.ErrUnauthorized
	}
	return s.recipes.DeleteComment(ctx, commentID)
}

// Comments lists a recipe's comments in insertion order
func (s *RecipeService) Comments(ctx context.Context, recipeID, viewerID string) ([]models.Comment, error) {
	if _, err := s.visibleRecipe(ctx, recipeID, viewerID); err != nil {
		return nil, err
	}
	return s.recipes.ListComments(ctx, recipeID)
}

// visibleRecipe loads a recipe and hides drafts from everyone but the author
func (s *RecipeService) visibleRecipe(ctx context.Context, recipeID, viewerID string) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.IsPublic && recipe.AuthorID != viewerID {
		return nil, apperr.ErrRecipeNotFound
	}
	return recipe, nil
}

func sortedByStep(instructions []models.Instruction) []models.Instruction {
	sorted := make([]models.Instruction, len(instructions))
	copy(sorted, instructions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Step < sorted[j].Step })
	return sorted
}
