package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/memstore"
	"ephemeral-photo-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 7, 14, 18, 0, 0, 0, time.UTC)

type fakeMedia struct {
	err  error
	keys []string
}

func (m *fakeMedia) PresignUpload(_ context.Context, key, contentType string) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://upload.example/" + key + "?sig=1", "https://cdn.example/" + key, nil
}

type recordingFeed struct {
	mu      sync.Mutex
	changes []models.Change
	err     error
}

func (f *recordingFeed) Publish(_ context.Context, change models.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, change)
	return nil
}

func (f *recordingFeed) Subscribe(context.Context) (<-chan models.Change, error) {
	return nil, errors.New("not supported")
}

func (f *recordingFeed) kinds() []models.ChangeKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]models.ChangeKind, 0, len(f.changes))
	for _, c := range f.changes {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seedPost stores a post created createdAgo before testNow
func seedPost(t *testing.T, store *memstore.Store, ownerID string, createdAgo time.Duration, tags ...string) models.Post {
	t.Helper()
	created := testNow.Add(-createdAgo)
	post := models.Post{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Caption:   "seeded",
		Tags:      tags,
		MediaRef:  "https://cdn.example/seed.jpg",
		CreatedAt: created,
		ExpiresAt: discovery.ExpiresAt(created),
	}
	require.NoError(t, store.Posts().Create(context.Background(), &post))
	return post
}
