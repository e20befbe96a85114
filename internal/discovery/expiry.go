// Package discovery holds the read-time logic behind the feed and the
// Discover screen: post expiry, tag normalization and aggregation, tag
// filtering and search resolution. Everything here is pure and works on
// the snapshot it is given.
package discovery

import (
	"fmt"
	"time"

	"ephemeral-photo-backend/internal/models"
)

// TTL is how long a post stays visible after creation
const TTL = 24 * time.Hour

// ExpiresAt returns the expiry timestamp for a post created at createdAt
func ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(TTL)
}

// Remaining returns the time left until expiresAt; negative once expired
func Remaining(now, expiresAt time.Time) time.Duration {
	return expiresAt.Sub(now)
}

// IsLive reports whether the post is still visible at now
func IsLive(post models.Post, now time.Time) bool {
	return now.Before(post.ExpiresAt)
}

// FormatRemaining renders a remaining duration as "5h left", "12m left" or "Expired".
// Values are floored, so 119 minutes reads "1h left".
func FormatRemaining(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh left", int64(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%dm left", int64(d/time.Minute))
	default:
		return "Expired"
	}
}

// FormatAge renders elapsed time as "Just now", "3m ago", "2h ago" or "1d ago"
func FormatAge(elapsed time.Duration) string {
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int64(elapsed/time.Minute))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int64(elapsed/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int64(elapsed/(24*time.Hour)))
	}
}
