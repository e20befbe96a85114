package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// SuggestionKind selects what the model is asked to write
type SuggestionKind string

const (
	SuggestCaptions SuggestionKind = "captions"
	SuggestTags     SuggestionKind = "tags"
	SuggestReplies  SuggestionKind = "replies"
)

const (
	maxSuggestions    = 5
	maxContextLength  = 500
	maxSuggestionText = 150
)

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

var prompts = map[SuggestionKind]string{
	SuggestCaptions: `Write 5 short, catchy captions (under 100 characters each) for a photo that disappears after 24 hours.
Photo context: %s
Respond only with a JSON array of objects like [{"text": "..."}].`,
	SuggestTags: `Suggest 5 one-word lowercase hashtags without the # sign for a photo.
Photo context: %s
Respond only with a JSON array of objects like [{"text": "..."}].`,
	SuggestReplies: `Suggest 3 friendly, short replies (under 80 characters each) to this post.
Post: %s
Respond only with a JSON array of objects like [{"text": "..."}].`,
}

var fallbackSuggestions = map[SuggestionKind][]string{
	SuggestCaptions: {
		"Here today, gone tomorrow ✨",
		"Catch it while it lasts",
		"24 hours of this view",
		"Moments like this don't wait",
		"Blink and you'll miss it",
	},
	SuggestTags: {"photooftheday", "mood", "today", "vibes", "snapshot"},
	SuggestReplies: {
		"Love this! 😍",
		"Where was this taken?",
		"This made my day",
	},
}

// SuggestionService asks a completion model for captions, tags and replies
// and falls back to canned lists when the model is unavailable or its
// answer cannot be used.
type SuggestionService struct {
	completer Completer
}

// NewSuggestionService creates a new suggestion service. A nil completer
// always serves the canned lists.
func NewSuggestionService(completer Completer) *SuggestionService {
	return &SuggestionService{completer: completer}
}

// SuggestRequest carries the text the suggestions should relate to
type SuggestRequest struct {
	Context string `json:"context"`
}

// SuggestResponse lists suggestions and whether the canned list was used
type SuggestResponse struct {
	Suggestions []models.Suggestion `json:"suggestions"`
	Fallback    bool                `json:"fallback"`
}

// ParseSuggestionKind validates a kind from the URL
func ParseSuggestionKind(s string) (SuggestionKind, error) {
	kind := SuggestionKind(strings.ToLower(s))
	if _, ok := prompts[kind]; !ok {
		return "", fmt.Errorf("%w: unknown suggestion kind %q", ErrInvalidInput, s)
	}
	return kind, nil
}

// Suggest returns suggestions of the given kind. Model failures are logged
// and answered from the canned list; they never reach the caller.
func (s *SuggestionService) Suggest(ctx context.Context, kind SuggestionKind, contextText string) (*SuggestResponse, error) {
	template, ok := prompts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown suggestion kind %q", ErrInvalidInput, kind)
	}

	if s.completer == nil {
		return fallbackResponse(kind), nil
	}

	prompt := fmt.Sprintf(template, truncateRunes(strings.TrimSpace(contextText), maxContextLength))
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Suggestion request failed, using fallback")
		return fallbackResponse(kind), nil
	}

	suggestions, err := parseSuggestions(raw)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Unusable suggestion response, using fallback")
		return fallbackResponse(kind), nil
	}

	if kind == SuggestTags {
		suggestions = normalizeTagSuggestions(suggestions)
		if len(suggestions) == 0 {
			return fallbackResponse(kind), nil
		}
	}

	return &SuggestResponse{Suggestions: suggestions}, nil
}

// parseSuggestions accepts a JSON array of {"text": ...} objects or plain
// strings, optionally wrapped in a markdown code fence.
func parseSuggestions(raw string) ([]models.Suggestion, error) {
	raw = strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}

	suggestions := make([]models.Suggestion, 0, len(items))
	for _, item := range items {
		text := suggestionText(item)
		if text == "" {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{Text: truncateRunes(text, maxSuggestionText)})
		if len(suggestions) == maxSuggestions {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, fmt.Errorf("response contains no suggestions")
	}
	return suggestions, nil
}

func suggestionText(item json.RawMessage) string {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var obj map[string]any
	if err := json.Unmarshal(item, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"text", "caption", "tag", "reply"} {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func normalizeTagSuggestions(suggestions []models.Suggestion) []models.Suggestion {
	raw := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		raw = append(raw, strings.TrimPrefix(strings.TrimSpace(s.Text), "#"))
	}

	tags := discovery.NormalizeTags(raw)
	result := make([]models.Suggestion, 0, len(tags))
	for _, tag := range tags {
		result = append(result, models.Suggestion{Text: tag})
	}
	return result
}

func fallbackResponse(kind SuggestionKind) *SuggestResponse {
	texts := fallbackSuggestions[kind]
	suggestions := make([]models.Suggestion, 0, len(texts))
	for _, text := range texts {
		suggestions = append(suggestions, models.Suggestion{Text: text})
	}
	return &SuggestResponse{Suggestions: suggestions, Fallback: true}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
