package models

// Event types published to Kafka.
const (
	EventRecipeCreated     = "recipe.created"
	EventRecipePublished   = "recipe.published"
	EventRecipeDeleted     = "recipe.deleted"
	EventRecipeLiked       = "recipe.liked"
	EventRecipeUnliked     = "recipe.unliked"
	EventRecipeFavorited   = "recipe.favorited"
	EventRecipeUnfavorited = "recipe.unfavorited"
	EventCommentCreated    = "comment.created"
	EventCommentDeleted    = "comment.deleted"
)

// Event is a domain event published after a successful mutation.
type Event struct {
	EventID   string `json:"event_id"`             // EventID is a unique identifier for the event.
	Type      string `json:"type"`                 // Type is one of the Event* constants.
	Timestamp int64  `json:"timestamp"`            // Timestamp is the Unix time (seconds) of the mutation.
	ActorID   string `json:"actor_id"`             // ActorID is the user who performed the mutation.
	RecipeID  string `json:"recipe_id"`            // RecipeID is the affected recipe.
	Slug      string `json:"slug"`                 // Slug is the recipe slug at the time of the event.
	CommentID string `json:"comment_id,omitempty"` // CommentID is set for comment events.
	Total     *int   `json:"total,omitempty"`      // Total is the fresh like/favorite count for toggle events.
}
