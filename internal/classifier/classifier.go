package classifier

import (
	"example.com/focus/internal/domain"
	"example.com/focus/internal/ingest"
	"example.com/focus/internal/observability"
)

// Classifier applies a rule set to raw usage records. Records are processed
// independently in input order; there is no cross-record interaction.
type Classifier struct {
	rules *RuleSet
}

// New wraps a rule set.
func New(rules *RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// ClassifyRecords produces one Activity per usable record. Records with an
// empty app name or non-positive duration are dropped without error.
func (c *Classifier) ClassifyRecords(records []ingest.Record) []domain.Activity {
	activities := make([]domain.Activity, 0, len(records))
	for _, rec := range records {
		if rec.AppName == "" || rec.Duration <= 0 {
			continue
		}
		res := c.rules.Classify(rec.AppName, rec.AppName, rec.Duration)
		activities = append(activities, domain.Activity{
			AppName:    rec.AppName,
			TabTitle:   rec.AppName,
			Duration:   rec.Duration,
			Label:      res.Label,
			Confidence: res.Confidence,
			Reason:     res.Reason,
		})
	}
	return activities
}

// ClassifyTab classifies a browser tab by its derived label and title.
func (c *Classifier) ClassifyTab(tab ingest.TabRecord) (domain.Activity, bool) {
	if tab.Duration <= 0 {
		return domain.Activity{}, false
	}
	name := ingest.TabAppName(tab)
	title := tab.Title
	if title == "" {
		title = name
	}
	res := c.rules.Classify(name, title, tab.Duration)
	return domain.Activity{
		AppName:    name,
		TabTitle:   title,
		Duration:   tab.Duration,
		Label:      res.Label,
		Confidence: res.Confidence,
		Reason:     res.Reason,
	}, true
}

// ClassifyUsage classifies a full usage bundle: app records use the app name
// as tab title (matching historic tracker behaviour), tab records keep their
// real title so browsing rules can see it.
func (c *Classifier) ClassifyUsage(usage ingest.Usage) []domain.Activity {
	activities := c.ClassifyRecords(usage.Apps)
	for _, tab := range usage.Tabs {
		if act, ok := c.ClassifyTab(tab); ok {
			activities = append(activities, act)
		}
	}
	for _, act := range activities {
		observability.RecordClassification(string(act.Label))
	}
	return activities
}
