package discovery

import (
	"sort"
	"strings"

	"ephemeral-photo-backend/internal/models"
)

// MaxTags is the maximum number of tags kept on a post or profile
const MaxTags = 5

// NormalizeTags trims and lowercases raw tags, drops empties and duplicates,
// and keeps at most MaxTags of them in first-seen order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, min(len(raw), MaxTags))

	for _, tag := range raw {
		tag = canonical(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
		if len(result) == MaxTags {
			break
		}
	}

	return result
}

// AggregateTags returns the sorted set of distinct tags used by any post,
// expired or not. Stored tags are lowercased again rather than trusted.
func AggregateTags(posts []models.Post) []string {
	seen := make(map[string]bool)
	for _, post := range posts {
		for _, tag := range post.Tags {
			if tag = canonical(tag); tag != "" {
				seen[tag] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for tag := range seen {
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}

// ChipOrder lists favorites first and then the rest of the universe,
// skipping anything already listed.
func ChipOrder(favorites, universe []string) []string {
	favorites = NormalizeTags(favorites)

	listed := make(map[string]bool, len(favorites))
	result := make([]string, 0, len(favorites)+len(universe))
	for _, tag := range favorites {
		listed[tag] = true
		result = append(result, tag)
	}

	for _, tag := range universe {
		tag = canonical(tag)
		if tag == "" || listed[tag] {
			continue
		}
		listed[tag] = true
		result = append(result, tag)
	}

	return result
}

// ResolveSearch maps a free-text search term onto a known tag: an exact
// match wins, then the first tag in universe order containing the term,
// and otherwise the cleaned term itself.
func ResolveSearch(term string, universe []string) string {
	term = canonical(term)
	if term == "" {
		return ""
	}

	for _, tag := range universe {
		if canonical(tag) == term {
			return term
		}
	}

	for _, tag := range universe {
		if tag = canonical(tag); strings.Contains(tag, term) {
			return tag
		}
	}

	return term
}

func canonical(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
