package cluster

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]{4,}`)

// stopWords are high-frequency tokens that carry no topical signal for
// attribution matching.
var stopWords = map[string]struct{}{
	"with":  {},
	"from":  {},
	"this":  {},
	"that":  {},
	"have":  {},
	"will":  {},
	"they":  {},
	"about": {},
	"their": {},
	"into":  {},
	"after": {},
}

// Keywords derives the set of significant tokens from an event's title and
// subtitle: lowercase alphanumeric runs of length >= 4 with stop words
// removed. The result is a set — deterministic and order-independent.
func Keywords(title, subtitle string) map[string]struct{} {
	text := strings.ToLower(title + " " + subtitle)

	keywords := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(text, -1) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		keywords[token] = struct{}{}
	}
	return keywords
}
