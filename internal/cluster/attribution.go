package cluster

import (
	"sort"
	"strings"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// Attribution thresholds.
const (
	maxMatchingPosts   = 25
	minAttributedFloor = 10
	unconditionalTop   = 15

	keywordHitWeight = 10
)

type rankedPost struct {
	post        models.RawPost
	keywordHits int
	combined    int
}

// SelectPosts maps a candidate event back onto the original batch and
// returns the ordered, deduplicated set of posts judged to support it.
// Every persisted event gets deterministic provenance this way, even when
// the summarization service supplies no attribution of its own.
//
// Posts are ranked by 10*keywordHits + engagement (stable, so ties keep
// batch order). The top 25 with at least one keyword hit are taken first,
// deduplicated by (author, time, text); if that leaves fewer than
// min(10, |batch|) posts, the rank order is scanned further regardless of
// hits until the floor is met. If nothing at all was selected, the top 15
// by combined score are returned unconditionally.
func SelectPosts(ev models.CandidateEvent, posts []models.RawPost) []models.RawPost {
	keywords := Keywords(ev.Title, ev.Subtitle)

	ranked := make([]rankedPost, 0, len(posts))
	for _, p := range posts {
		text := strings.ToLower(p.Text)
		hits := 0
		for kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		ranked = append(ranked, rankedPost{
			post:        p,
			keywordHits: hits,
			combined:    keywordHitWeight*hits + Engagement(p),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].combined > ranked[j].combined
	})

	selected := make([]models.RawPost, 0, maxMatchingPosts)
	seen := make(map[models.PostIdentity]struct{})

	matched := 0
	for _, r := range ranked {
		if r.keywordHits == 0 {
			continue
		}
		matched++
		if matched > maxMatchingPosts {
			break
		}
		key := r.post.Identity()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		selected = append(selected, r.post)
	}

	// Pad to the coverage floor from the full rank order, hits or not.
	floor := minAttributedFloor
	if len(ranked) < floor {
		floor = len(ranked)
	}
	if len(selected) < floor {
		for _, r := range ranked {
			key := r.post.Identity()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			selected = append(selected, r.post)
			if len(selected) >= floor {
				break
			}
		}
	}

	if len(selected) > 0 {
		return selected
	}

	// Degenerate case: empty keyword set and an empty floor. Fall back to
	// the top posts by combined score without any conditions.
	n := unconditionalTop
	if len(ranked) < n {
		n = len(ranked)
	}
	top := make([]models.RawPost, 0, n)
	for _, r := range ranked[:n] {
		top = append(top, r.post)
	}
	return top
}
