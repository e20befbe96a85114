package discovery

import (
	"time"

	"ephemeral-photo-backend/internal/models"
)

// Assemble turns a snapshot of posts into display-ready feed items.
// Expired posts are dropped and the display strings are derived from now
// on every call, never cached.
func Assemble(posts []models.Post, now time.Time) []models.FeedItem {
	live := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if IsLive(post, now) {
			live = append(live, post)
		}
	}
	sortNewestFirst(live)

	items := make([]models.FeedItem, 0, len(live))
	for _, post := range live {
		items = append(items, models.FeedItem{
			Post:      post,
			ExpiresIn: FormatRemaining(Remaining(now, post.ExpiresAt)),
			Age:       FormatAge(now.Sub(post.CreatedAt)),
		})
	}
	return items
}
