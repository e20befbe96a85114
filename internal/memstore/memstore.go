// Package memstore keeps users, posts and replies in memory. It backs the
// "memory" database driver for local runs and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"
	"ephemeral-photo-backend/internal/repository"
)

// Store implements the post, user and reply stores over maps
type Store struct {
	mu            sync.RWMutex
	users         map[string]models.User
	profiles      map[string]models.UserProfile
	posts         map[string]models.Post
	replies       []models.Reply
	notifications []models.Notification
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		profiles: make(map[string]models.UserProfile),
		posts:    make(map[string]models.Post),
	}
}

// Posts returns the post store view
func (s *Store) Posts() *Posts { return &Posts{s} }

// Users returns the user store view
func (s *Store) Users() *Users { return &Users{s} }

// Replies returns the reply store view
func (s *Store) Replies() *Replies { return &Replies{s} }

// Posts is the in-memory post store
type Posts struct{ s *Store }

// Create stores a copy of post
func (p *Posts) Create(_ context.Context, post *models.Post) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, exists := p.s.posts[post.ID]; exists {
		return fmt.Errorf("post %s already exists", post.ID)
	}
	stored := *post
	stored.Tags = append([]string(nil), post.Tags...)
	p.s.posts[post.ID] = stored
	return nil
}

// GetByID returns a post with the owner's display name filled in
func (p *Posts) GetByID(_ context.Context, id string) (*models.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	post, ok := p.s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	post = p.s.decorate(post)
	return &post, nil
}

// ListAll returns every post including expired ones
func (p *Posts) ListAll(_ context.Context) ([]models.Post, error) {
	return p.s.filterPosts(func(models.Post) bool { return true }), nil
}

// ListLive returns posts live at now
func (p *Posts) ListLive(_ context.Context, now time.Time) ([]models.Post, error) {
	return p.s.filterPosts(func(post models.Post) bool { return discovery.IsLive(post, now) }), nil
}

// ListByOwner returns the posts of one user
func (p *Posts) ListByOwner(_ context.Context, ownerID string) ([]models.Post, error) {
	return p.s.filterPosts(func(post models.Post) bool { return post.OwnerID == ownerID }), nil
}

// UpdateContent changes caption and tags; expiry is left alone
func (p *Posts) UpdateContent(_ context.Context, id, ownerID, caption string, tags []string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[id]
	if !ok || post.OwnerID != ownerID {
		return fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	post.Caption = caption
	post.Tags = append([]string(nil), tags...)
	p.s.posts[id] = post
	return nil
}

// Delete removes a post with its replies and their notifications
func (p *Posts) Delete(_ context.Context, id, ownerID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[id]
	if !ok || post.OwnerID != ownerID {
		return fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	delete(p.s.posts, id)

	replies := p.s.replies[:0]
	for _, r := range p.s.replies {
		if r.PostID != id {
			replies = append(replies, r)
		}
	}
	p.s.replies = replies

	notifications := p.s.notifications[:0]
	for _, n := range p.s.notifications {
		if n.PostID != id {
			notifications = append(notifications, n)
		}
	}
	p.s.notifications = notifications
	return nil
}

// Users is the in-memory user store
type Users struct{ s *Store }

// Create stores a user and an empty profile
func (u *Users) Create(_ context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, exists := u.s.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	u.s.users[user.ID] = *user
	if _, exists := u.s.profiles[user.ID]; !exists {
		u.s.profiles[user.ID] = models.UserProfile{UID: user.ID, FavoriteTags: []string{}}
	}
	return nil
}

// GetProfile returns a copy of the profile, or an empty one
func (u *Users) GetProfile(_ context.Context, uid string) (*models.UserProfile, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	profile, ok := u.s.profiles[uid]
	if !ok {
		return &models.UserProfile{UID: uid, FavoriteTags: []string{}}, nil
	}
	profile.FavoriteTags = append([]string{}, profile.FavoriteTags...)
	return &profile, nil
}

// UpsertProfile stores a copy of profile
func (u *Users) UpsertProfile(_ context.Context, profile *models.UserProfile) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	stored := *profile
	stored.FavoriteTags = append([]string{}, profile.FavoriteTags...)
	u.s.profiles[profile.UID] = stored
	return nil
}

// Replies is the in-memory reply and notification store
type Replies struct{ s *Store }

// Create stores a reply with its notification
func (r *Replies) Create(_ context.Context, reply *models.Reply, notification *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[reply.PostID]; !ok {
		return fmt.Errorf("post %s: %w", reply.PostID, repository.ErrNotFound)
	}
	r.s.replies = append(r.s.replies, *reply)
	r.s.notifications = append(r.s.notifications, *notification)
	return nil
}

// ListByPost returns replies to a post, oldest first, optionally only those involving participant
func (r *Replies) ListByPost(_ context.Context, postID, participant string) ([]models.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]models.Reply, 0)
	for _, reply := range r.s.replies {
		if reply.PostID != postID {
			continue
		}
		if participant != "" && reply.SenderID != participant && reply.RecipientID != participant {
			continue
		}
		result = append(result, reply)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ListNotifications returns the newest notifications of a recipient
func (r *Replies) ListNotifications(_ context.Context, recipientID string, limit int) ([]models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]models.Notification, 0)
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountUnseen counts a recipient's unseen notifications
func (r *Replies) CountUnseen(_ context.Context, recipientID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.Seen {
			count++
		}
	}
	return count, nil
}

// MarkSeen flips a notification to seen for its recipient
func (r *Replies) MarkSeen(_ context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].RecipientID == recipientID {
			r.s.notifications[i].Seen = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
}

func (s *Store) filterPosts(keep func(models.Post) bool) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if keep(post) {
			result = append(result, s.decorate(post))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// decorate fills the owner name and copies tags; callers hold s.mu
func (s *Store) decorate(post models.Post) models.Post {
	post.OwnerName = repository.UnknownOwner
	if profile, ok := s.profiles[post.OwnerID]; ok && profile.DisplayName != "" {
		post.OwnerName = profile.DisplayName
	}
	post.Tags = append([]string{}, post.Tags...)
	return post
}
