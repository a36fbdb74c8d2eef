package models

import "time"

// User represents a registered account
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Bio            string     `json:"bio"`
	IsActive       bool       `json:"is_active"`
	FollowerCount  int        `json:"follower_count"`
	FollowingCount int        `json:"following_count"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Ingredient is a single entry in a recipe's ingredient list
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// Instruction is a single step of a recipe. Step numbers are 1-based and
// must form the contiguous range 1..N across the whole list.
type Instruction struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
}

// Recipe represents a published or draft recipe
type Recipe struct {
	ID           string        `json:"id"`
	AuthorID     string        `json:"author_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []Instruction `json:"instructions"`
	IsPublic     bool          `json:"is_public"`
	Views        int64         `json:"views"`
	LikesCount   int           `json:"likes_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Comment is an append-ordered comment on a recipe
type Comment struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationType enumerates what a notification refers to
type NotificationType string

const (
	NotificationLike       NotificationType = "like"
	NotificationComment    NotificationType = "comment"
	NotificationFollow     NotificationType = "follow"
	NotificationRecipe     NotificationType = "recipe"
	NotificationCollection NotificationType = "collection"
)

// Notification is a persisted social event addressed to one user
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	SenderID    string           `json:"sender_id"`
	Type        NotificationType `json:"type"`
	EntityID    string           `json:"entity_id"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
