package core

import (
	"math"
	"sort"
)

// RankUnknown is the sentinel rank key for candidates whose duration (or the
// target duration) is unknown. It is strictly greater than any real
// second-difference, so such entries sort last but stay usable.
const RankUnknown = math.MaxInt32

// Rank scores candidates by duration proximity and returns them in ascending
// rank-key order. The sort is stable: ties and sentinel entries keep their
// aggregation order. Pure function, no I/O; duplicate locators pass through
// untouched.
func Rank(entries []CandidateEntry, targetDurationSecs int) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(entries))
	for i, entry := range entries {
		scored[i] = ScoredCandidate{
			CandidateEntry: entry,
			RankKey:        rankKey(entry, targetDurationSecs),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RankKey < scored[j].RankKey
	})

	return scored
}

func rankKey(entry CandidateEntry, targetDurationSecs int) int {
	if targetDurationSecs <= 0 || entry.DurationSecs <= 0 {
		return RankUnknown
	}

	diff := entry.DurationSecs - targetDurationSecs
	if diff < 0 {
		diff = -diff
	}
	return diff
}
