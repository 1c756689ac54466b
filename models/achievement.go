package models

// Achievement types.
const (
	AchievementTypeMilestone = "milestone"
	AchievementTypeBadge     = "achievement"
)

// Achievement is a derived badge. It is recomputed from the check-in history
// on every view and never persisted; Date reflects computation time.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}
