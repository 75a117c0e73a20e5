// Package ingest normalizes heterogeneous raw usage payloads into uniform
// records before classification. Malformed entries are skipped, never fatal.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one normalized app-usage observation.
type Record struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Date     string `json:"date"`
	AppName  string `json:"app_name"`
	Duration int    `json:"duration"`
}

// TabRecord is one normalized browser-tab observation.
type TabRecord struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Date     string `json:"date"`
	Domain   string `json:"domain"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// Usage bundles the day's normalized app and tab records for one user.
type Usage struct {
	Apps []Record
	Tabs []TabRecord
}

// Empty reports whether no usable records are present.
func (u Usage) Empty() bool {
	return len(u.Apps) == 0 && len(u.Tabs) == 0
}

// Records returns app records plus tab records converted to synthetic
// browser app entries, preserving input order.
func (u Usage) Records() []Record {
	out := make([]Record, 0, len(u.Apps)+len(u.Tabs))
	out = append(out, u.Apps...)
	for _, tab := range u.Tabs {
		out = append(out, Record{
			UserID:   tab.UserID,
			Email:    tab.Email,
			Date:     tab.Date,
			AppName:  TabAppName(tab),
			Duration: tab.Duration,
		})
	}
	return out
}

// TabAppName derives the synthetic app label for a browser tab: the domain
// when present, otherwise the title, otherwise the literal "Browser".
func TabAppName(tab TabRecord) string {
	switch {
	case tab.Domain != "" && tab.Domain != "unknown":
		return "Browser - " + tab.Domain
	case tab.Title != "":
		return "Browser - " + tab.Title
	default:
		return "Browser"
	}
}

// rawAppEntry tolerates the several field spellings trackers have used.
type rawAppEntry struct {
	UserID   json.RawMessage `json:"userId"`
	Email    string          `json:"email"`
	Date     string          `json:"date"`
	AppName  string          `json:"appName"`
	App      string          `json:"app"`
	Name     string          `json:"name"`
	Duration float64         `json:"duration"`
}

type rawTabEntry struct {
	UserID   json.RawMessage `json:"userId"`
	Email    string          `json:"email"`
	Date     string          `json:"date"`
	Domain   string          `json:"domain"`
	Title    string          `json:"title"`
	Duration float64         `json:"duration"`
}

// Filter restricts normalization to a target user/email/date. Comparisons
// are stringified so a numeric and a string identifier still match. Zero
// values match everything.
type Filter struct {
	UserID string
	Email  string
	Date   string
}

func (f Filter) matches(userID json.RawMessage, email, date string) bool {
	if f.UserID != "" {
		if id := stringify(userID); id != "" && id != f.UserID {
			return false
		}
	}
	if f.Email != "" && email != "" && email != f.Email {
		return false
	}
	if f.Date != "" && date != "" && date != f.Date {
		return false
	}
	return true
}

// stringify renders a raw JSON scalar as its bare string form, so "42" and
// 42 compare equal.
func stringify(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

// NormalizeAppUsage accepts app usage either as a list of entry objects or
// as a map of appName -> duration, producing uniform records. Entries with
// an empty name or non-positive duration are dropped silently.
func NormalizeAppUsage(raw json.RawMessage, filter Filter) []Record {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err == nil {
		out := make([]Record, 0, len(entries))
		for _, item := range entries {
			var entry rawAppEntry
			if err := json.Unmarshal(item, &entry); err != nil {
				continue
			}
			name := firstNonEmpty(entry.AppName, entry.App, entry.Name)
			duration := int(entry.Duration)
			if name == "" || duration <= 0 {
				continue
			}
			if !filter.matches(entry.UserID, entry.Email, entry.Date) {
				continue
			}
			out = append(out, Record{
				UserID:   coalesce(stringify(entry.UserID), filter.UserID),
				Email:    coalesce(entry.Email, filter.Email),
				Date:     coalesce(entry.Date, filter.Date),
				AppName:  name,
				Duration: duration,
			})
		}
		return out
	}

	var byName map[string]float64
	if err := json.Unmarshal(raw, &byName); err == nil {
		out := make([]Record, 0, len(byName))
		for name, duration := range byName {
			if name == "" || int(duration) <= 0 {
				continue
			}
			out = append(out, Record{
				UserID:   filter.UserID,
				Email:    filter.Email,
				Date:     filter.Date,
				AppName:  name,
				Duration: int(duration),
			})
		}
		return out
	}

	return nil
}

// NormalizeTabUsage accepts a list of tab entries; malformed entries are
// skipped.
func NormalizeTabUsage(raw json.RawMessage, filter Filter) []TabRecord {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	out := make([]TabRecord, 0, len(entries))
	for _, item := range entries {
		var entry rawTabEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		duration := int(entry.Duration)
		if duration <= 0 || (entry.Domain == "" && entry.Title == "") {
			continue
		}
		if !filter.matches(entry.UserID, entry.Email, entry.Date) {
			continue
		}
		out = append(out, TabRecord{
			UserID:   coalesce(stringify(entry.UserID), filter.UserID),
			Email:    coalesce(entry.Email, filter.Email),
			Date:     coalesce(entry.Date, filter.Date),
			Domain:   entry.Domain,
			Title:    entry.Title,
			Duration: duration,
		})
	}
	return out
}

// ParseUsagePayload normalizes a combined {appUsage, tabUsage} document.
func ParseUsagePayload(raw json.RawMessage, filter Filter) (Usage, error) {
	var doc struct {
		AppUsage json.RawMessage `json:"appUsage"`
		TabUsage json.RawMessage `json:"tabUsage"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Usage{}, fmt.Errorf("malformed usage payload: %w", err)
	}
	return Usage{
		Apps: NormalizeAppUsage(doc.AppUsage, filter),
		Tabs: NormalizeTabUsage(doc.TabUsage, filter),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func coalesce(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
