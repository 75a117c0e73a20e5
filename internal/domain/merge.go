package domain

// MergeSummaries combines a freshly computed summary with the previously
// persisted one for the same (user, date) key.
//
// The fresh summary is treated as a cumulative snapshot for the day: for every
// scalar total and per-app entry only the positive delta over the existing
// value is added, so repeated analysis runs over overlapping usage windows
// never double-count. An apparent decrease contributes nothing; apps present
// only in the existing maps are retained unchanged. A nil existing summary
// short-circuits to the fresh one.
func MergeSummaries(existing *ProductivitySummary, fresh ProductivitySummary) ProductivitySummary {
	if existing == nil {
		return fresh
	}

	merged := ProductivitySummary{
		UserID:               fresh.UserID,
		Email:                fresh.Email,
		Date:                 fresh.Date,
		ProductiveContent:    mergeContent(existing.ProductiveContent, fresh.ProductiveContent),
		NonProductiveContent: mergeContent(existing.NonProductiveContent, fresh.NonProductiveContent),
		TotalProductiveTime:  mergeTotal(existing.TotalProductiveTime, fresh.TotalProductiveTime),
		TotalNonProductive:   mergeTotal(existing.TotalNonProductive, fresh.TotalNonProductive),
		OverallTotalUsage:    mergeTotal(existing.OverallTotalUsage, fresh.OverallTotalUsage),
		MostVisitedTab:       fresh.MostVisitedTab,
	}
	if merged.MostVisitedTab == "" {
		merged.MostVisitedTab = existing.MostVisitedTab
	}

	merged.FocusScore = percentOf(merged.TotalProductiveTime, merged.OverallTotalUsage)
	merged.MaxProductiveApp = maxEntry(merged.ProductiveContent)
	merged.MostUsedApp = maxEntry(unionContent(merged.ProductiveContent, merged.NonProductiveContent))
	merged.DistractionApps = copyContent(merged.NonProductiveContent)
	return merged
}

func mergeTotal(existing, fresh int) int {
	delta := fresh - existing
	if delta < 0 {
		delta = 0
	}
	return existing + delta
}

func mergeContent(existing, fresh map[string]int) map[string]int {
	merged := copyContent(existing)
	for app, duration := range fresh {
		current, ok := merged[app]
		if !ok {
			merged[app] = duration
			continue
		}
		merged[app] = mergeTotal(current, duration)
	}
	return merged
}

// unionContent overlays b on top of a without delta logic.
func unionContent(a, b map[string]int) map[string]int {
	out := copyContent(a)
	for app, duration := range b {
		out[app] = duration
	}
	return out
}

func copyContent(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for app, duration := range src {
		out[app] = duration
	}
	return out
}

// maxEntry returns the key with the largest value, breaking ties by the
// lexicographically smaller key so the result is deterministic across map
// iteration orders. Empty maps yield "".
func maxEntry(content map[string]int) string {
	best := ""
	bestDuration := -1
	for app, duration := range content {
		if duration > bestDuration || (duration == bestDuration && app < best) {
			best = app
			bestDuration = duration
		}
	}
	return best
}
