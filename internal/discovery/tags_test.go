package discovery

import (
	"math/rand"
	"testing"

	"ephemeral-photo-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "trim lowercase dedupe",
			raw:  []string{"  Art ", "art", "ART", "music"},
			want: []string{"art", "music"},
		},
		{
			name: "drops empties",
			raw:  []string{"", "   ", "sun"},
			want: []string{"sun"},
		},
		{
			name: "caps after dedupe",
			raw:  []string{"a", "A", "b", "c", "d", "e", "f", "g"},
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "nil input",
			raw:  nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.raw)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestNormalizeTags_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"  Art ", "art", "ART", "music"},
		{"X", "y", " Z ", "x", "w", "v", "u", "t"},
		{"", "  "},
		{"Sunset", "sunset ", "BEACH", "beach", "Surf"},
	}

	for _, in := range inputs {
		once := NormalizeTags(in)
		assert.Equal(t, once, NormalizeTags(once))
	}
}

func TestAggregateTags(t *testing.T) {
	posts := []models.Post{
		{ID: "1", Tags: []string{"music", "Live"}},
		{ID: "2", Tags: []string{"art", " MUSIC "}},
		{ID: "3", Tags: nil},
		{ID: "4", Tags: []string{"", "zine"}},
	}

	assert.Equal(t, []string{"art", "live", "music", "zine"}, AggregateTags(posts))
}

func TestAggregateTags_OrderIndependent(t *testing.T) {
	posts := []models.Post{
		{ID: "1", Tags: []string{"music", "live"}},
		{ID: "2", Tags: []string{"art"}},
		{ID: "3", Tags: []string{"museum", "Art"}},
		{ID: "4", Tags: []string{"food"}},
		{ID: "5"},
	}
	want := AggregateTags(posts)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Post(nil), posts...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		require.Equal(t, want, AggregateTags(shuffled))
	}
}

func TestAggregateTags_Empty(t *testing.T) {
	got := AggregateTags(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChipOrder(t *testing.T) {
	favorites := []string{"Music", "food"}
	universe := []string{"art", "food", "live", "music"}

	got := ChipOrder(favorites, universe)

	assert.Equal(t, []string{"music", "food", "art", "live"}, got)
}

func TestChipOrder_NoFavorites(t *testing.T) {
	universe := []string{"art", "live"}
	assert.Equal(t, universe, ChipOrder(nil, universe))
}

func TestResolveSearch(t *testing.T) {
	universe := []string{"art", "museum", "music"}

	tests := []struct {
		name string
		term string
		want string
	}{
		{name: "exact match", term: "music", want: "music"},
		{name: "exact match after cleanup", term: "  ART ", want: "art"},
		{name: "first substring in sorted order", term: "mu", want: "museum"},
		{name: "no match falls back to term", term: "Jazz", want: "jazz"},
		{name: "blank term", term: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSearch(tt.term, universe))
		})
	}
}
