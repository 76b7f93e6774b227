package cluster

import (
	"strconv"
	"strings"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// Normalize converts a free-form engagement count ("1.2K", "2.6M", "1,234",
// "340") into an integer. Thousands separators and surrounding whitespace
// are stripped; a trailing K or M scales the numeric prefix. Anything that
// still fails to parse yields 0 — normalization never reports an error.
// Normalizing an already-normalized integer returns the same integer.
func Normalize(raw string) int {
	clean := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")))
	if clean == "" {
		return 0
	}

	multiplier := 1.0
	switch clean[len(clean)-1] {
	case 'K':
		multiplier = 1_000
		clean = clean[:len(clean)-1]
	case 'M':
		multiplier = 1_000_000
		clean = clean[:len(clean)-1]
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}

// NormalizeValue handles the looser shapes a metric can arrive in when it
// comes straight out of decoded JSON: absent (nil), a native number, or a
// string.
func NormalizeValue(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		return Normalize(val)
	case models.Metric:
		return Normalize(string(val))
	default:
		return 0
	}
}

// Engagement sums a post's normalized likes, retweets, and replies.
func Engagement(p models.RawPost) int {
	return Normalize(string(p.Metrics.Likes)) +
		Normalize(string(p.Metrics.Retweets)) +
		Normalize(string(p.Metrics.Replies))
}

// TotalEngagement sums Engagement across a set of posts.
func TotalEngagement(posts []models.RawPost) int {
	total := 0
	for _, p := range posts {
		total += Engagement(p)
	}
	return total
}
