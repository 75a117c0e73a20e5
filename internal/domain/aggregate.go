package domain

import (
	"math"
	"sort"
)

// category names used by the label-level aggregation strategy.
const (
	CategoryProductivity  = "Productivity"
	CategoryEntertainment = "Entertainment"
)

type categoryAccumulator struct {
	category      string
	totalDuration int
	activityCount int
	apps          []string
	appSeen       map[string]struct{}
	confidenceSum float64
}

func newCategoryAccumulator(category string) *categoryAccumulator {
	return &categoryAccumulator{
		category: category,
		appSeen:  make(map[string]struct{}),
	}
}

func (a *categoryAccumulator) add(act Activity) {
	a.totalDuration += act.Duration
	a.activityCount++
	if _, ok := a.appSeen[act.AppName]; !ok {
		a.appSeen[act.AppName] = struct{}{}
		a.apps = append(a.apps, act.AppName)
	}
	a.confidenceSum += act.Confidence
}

func (a *categoryAccumulator) summary() CategorySummary {
	avg := 0.0
	if a.activityCount > 0 {
		avg = a.confidenceSum / float64(a.activityCount)
	}
	return CategorySummary{
		Category:      a.category,
		TotalDuration: a.totalDuration,
		ActivityCount: a.activityCount,
		Apps:          a.apps,
		AvgConfidence: avg,
	}
}

// CategorizeByLabel groups activities into at most two categories: one
// "Productivity" bucket for focused activities and one "Entertainment" bucket
// for distracted ones. Empty groups are never emitted.
func CategorizeByLabel(activities []Activity) (focus, distraction []CategorySummary) {
	var focused, distracted *categoryAccumulator

	for _, act := range activities {
		if act.Label == LabelFocused {
			if focused == nil {
				focused = newCategoryAccumulator(CategoryProductivity)
			}
			focused.add(act)
		} else {
			if distracted == nil {
				distracted = newCategoryAccumulator(CategoryEntertainment)
			}
			distracted.add(act)
		}
	}

	if focused != nil {
		focus = append(focus, focused.summary())
	}
	if distracted != nil {
		distraction = append(distraction, distracted.summary())
	}
	return focus, distraction
}

// CategorizeByApp groups activities per distinct app within each label and
// returns the per-app summaries sorted descending by total duration.
func CategorizeByApp(activities []Activity) (focus, distraction []CategorySummary) {
	focusAccs := make(map[string]*categoryAccumulator)
	distractionAccs := make(map[string]*categoryAccumulator)
	var focusOrder, distractionOrder []string

	for _, act := range activities {
		accs, order := focusAccs, &focusOrder
		if act.Label != LabelFocused {
			accs, order = distractionAccs, &distractionOrder
		}
		acc, ok := accs[act.AppName]
		if !ok {
			acc = newCategoryAccumulator(act.AppName)
			accs[act.AppName] = acc
			*order = append(*order, act.AppName)
		}
		acc.add(act)
	}

	collect := func(accs map[string]*categoryAccumulator, order []string) []CategorySummary {
		if len(order) == 0 {
			return nil
		}
		out := make([]CategorySummary, 0, len(order))
		for _, app := range order {
			out = append(out, accs[app].summary())
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalDuration > out[j].TotalDuration
		})
		return out
	}

	return collect(focusAccs, focusOrder), collect(distractionAccs, distractionOrder)
}

// GenerateSummary computes summary statistics over the classified activities.
// The productivity score is the integer percentage of total tracked time spent
// focused; minute values truncate fractional seconds. The most-common app per
// label is picked by activity frequency, ties broken by first encounter.
func GenerateSummary(activities []Activity) FocusSummary {
	var focusedDuration, distractedDuration int
	focusedCounts := make(map[string]int)
	distractedCounts := make(map[string]int)
	var focusedOrder, distractedOrder []string

	for _, act := range activities {
		if act.Label == LabelFocused {
			focusedDuration += act.Duration
			if focusedCounts[act.AppName] == 0 {
				focusedOrder = append(focusedOrder, act.AppName)
			}
			focusedCounts[act.AppName]++
		} else {
			distractedDuration += act.Duration
			if distractedCounts[act.AppName] == 0 {
				distractedOrder = append(distractedOrder, act.AppName)
			}
			distractedCounts[act.AppName]++
		}
	}

	totalDuration := focusedDuration + distractedDuration
	score := percentOf(focusedDuration, totalDuration)

	return FocusSummary{
		ProductivityScore:         score,
		FocusedDurationMinutes:    focusedDuration / 60,
		DistractedDurationMinutes: distractedDuration / 60,
		TotalDurationMinutes:      totalDuration / 60,
		MostFocusedApp:            mostCommon(focusedCounts, focusedOrder),
		MostDistractingApp:        mostCommon(distractedCounts, distractedOrder),
		FocusPercentage:           score,
	}
}

// percentOf returns part as a rounded integer percentage of total, 0 when
// total is zero.
func percentOf(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func mostCommon(counts map[string]int, order []string) string {
	best := "None"
	bestCount := 0
	for _, app := range order {
		if counts[app] > bestCount {
			best = app
			bestCount = counts[app]
		}
	}
	return best
}
