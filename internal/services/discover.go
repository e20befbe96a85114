package services

import (
	"context"
	"fmt"
	"time"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"
)

// DiscoverService serves the tag chips, tag filtering and search
type DiscoverService struct {
	posts PostStore
	users UserStore
	now   func() time.Time
}

// NewDiscoverService creates a new discover service
func NewDiscoverService(posts PostStore, users UserStore) *DiscoverService {
	return &DiscoverService{
		posts: posts,
		users: users,
		now:   time.Now,
	}
}

// TagsResponse lists the caller's favorites, every tag in use, and the chip order
type TagsResponse struct {
	Favorites []string `json:"favorites"`
	Tags      []string `json:"tags"`
	Chips     []string `json:"chips"`
}

// SearchResult is the outcome of a free-text search
type SearchResult struct {
	Query       string            `json:"query"`
	ResolvedTag string            `json:"resolved_tag"`
	Items       []models.FeedItem `json:"items"`
}

// Tags returns the tag universe with the caller's favorites listed first
func (s *DiscoverService) Tags(ctx context.Context, uid string) (*TagsResponse, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	profile, err := s.users.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	universe := discovery.AggregateTags(posts)
	favorites := discovery.NormalizeTags(profile.FavoriteTags)

	return &TagsResponse{
		Favorites: favorites,
		Tags:      universe,
		Chips:     discovery.ChipOrder(favorites, universe),
	}, nil
}

// ByTag returns live posts carrying tag
func (s *DiscoverService) ByTag(ctx context.Context, tag string, mode discovery.MatchMode) ([]models.FeedItem, error) {
	now := s.now()
	posts, err := s.posts.ListLive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	return discovery.Assemble(discovery.FilterWithMode(posts, tag, now, mode), now), nil
}

// Search resolves a free-text query to a tag and returns the live posts
// carrying it. A query that matches nothing yields an empty list.
func (s *DiscoverService) Search(ctx context.Context, query string) (*SearchResult, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	now := s.now()
	resolved := discovery.ResolveSearch(query, discovery.AggregateTags(posts))

	result := &SearchResult{
		Query:       query,
		ResolvedTag: resolved,
		Items:       []models.FeedItem{},
	}
	if resolved == "" {
		return result, nil
	}

	result.Items = discovery.Assemble(discovery.Filter(posts, resolved, now), now)
	return result, nil
}
