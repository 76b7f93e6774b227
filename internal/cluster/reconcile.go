package cluster

import "github.com/pulsefeed/pulsefeed/internal/models"

// ReconcileScore combines the score the summarization service reported with
// the engagement sum of the posts actually attributed to the event. The
// service may under-report or omit its score, so the persisted value is
// never allowed below the verifiable engagement of the attached posts; a
// malformed raw score normalizes to 0 and is superseded whenever the
// engagement sum is positive.
func ReconcileScore(rawScore models.Metric, attributed []models.RawPost) int {
	reported := Normalize(string(rawScore))
	measured := TotalEngagement(attributed)

	if measured > reported {
		return measured
	}
	return reported
}
