package domain

// BuildProductivitySummary folds classified activities into the persistable
// per-day summary. Focused activity durations accumulate into the productive
// content map, distracted ones into the non-productive map; derived fields
// are recomputed from the maps.
func BuildProductivitySummary(userID, email, date string, activities []Activity, mostVisitedTab string) ProductivitySummary {
	summary := ProductivitySummary{
		UserID:               userID,
		Email:                email,
		Date:                 date,
		ProductiveContent:    make(map[string]int),
		NonProductiveContent: make(map[string]int),
		MostVisitedTab:       mostVisitedTab,
	}

	for _, act := range activities {
		if act.Duration <= 0 || act.AppName == "" {
			continue
		}
		if act.Label == LabelFocused {
			summary.ProductiveContent[act.AppName] += act.Duration
			summary.TotalProductiveTime += act.Duration
		} else {
			summary.NonProductiveContent[act.AppName] += act.Duration
			summary.TotalNonProductive += act.Duration
		}
	}

	summary.OverallTotalUsage = summary.TotalProductiveTime + summary.TotalNonProductive
	summary.FocusScore = percentOf(summary.TotalProductiveTime, summary.OverallTotalUsage)
	summary.MaxProductiveApp = maxEntry(summary.ProductiveContent)
	summary.MostUsedApp = maxEntry(unionContent(summary.ProductiveContent, summary.NonProductiveContent))
	summary.DistractionApps = copyContent(summary.NonProductiveContent)
	return summary
}
