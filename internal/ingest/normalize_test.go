package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAppUsageList(t *testing.T) {
	raw := json.RawMessage(`[
        {"userId": "user-1", "appName": "VS Code", "duration": 420, "date": "2026-08-30"},
        {"userId": "user-1", "app": "Terminal", "duration": 120.7, "date": "2026-08-30"},
        {"userId": "user-1", "name": "Netflix", "duration": 300, "date": "2026-08-30"}
    ]`)

	records := NormalizeAppUsage(raw, Filter{})

	require.Len(t, records, 3)
	require.Equal(t, "VS Code", records[0].AppName)
	require.Equal(t, "Terminal", records[1].AppName)
	require.Equal(t, 120, records[1].Duration, "fractional seconds truncate")
	require.Equal(t, "Netflix", records[2].AppName)
}

func TestNormalizeAppUsageMap(t *testing.T) {
	raw := json.RawMessage(`{"VS Code": 420, "Netflix": 300}`)

	records := NormalizeAppUsage(raw, Filter{UserID: "user-1", Date: "2026-08-30"})

	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, "user-1", rec.UserID)
		require.Equal(t, "2026-08-30", rec.Date)
	}
}

func TestNormalizeAppUsageDropsInvalidEntries(t *testing.T) {
	raw := json.RawMessage(`[
        {"userId": "user-1", "appName": "", "duration": 100},
        {"userId": "user-1", "appName": "Zero", "duration": 0},
        {"userId": "user-1", "appName": "Negative", "duration": -5},
        "not an object",
        {"userId": "user-1", "appName": "Kept", "duration": 60}
    ]`)

	records := NormalizeAppUsage(raw, Filter{})

	require.Len(t, records, 1)
	require.Equal(t, "Kept", records[0].AppName)
}

func TestNormalizeAppUsageNumericUserIDMatchesStringFilter(t *testing.T) {
	raw := json.RawMessage(`[
        {"userId": 42, "appName": "VS Code", "duration": 100},
        {"userId": "43", "appName": "Other", "duration": 100}
    ]`)

	records := NormalizeAppUsage(raw, Filter{UserID: "42"})

	require.Len(t, records, 1)
	require.Equal(t, "42", records[0].UserID)
	require.Equal(t, "VS Code", records[0].AppName)
}

func TestNormalizeAppUsageFilterFillsMissingIdentity(t *testing.T) {
	raw := json.RawMessage(`[{"appName": "VS Code", "duration": 100}]`)

	records := NormalizeAppUsage(raw, Filter{UserID: "user-1", Email: "u@example.com", Date: "2026-08-30"})

	require.Len(t, records, 1)
	require.Equal(t, "user-1", records[0].UserID)
	require.Equal(t, "u@example.com", records[0].Email)
	require.Equal(t, "2026-08-30", records[0].Date)
}

func TestNormalizeTabUsage(t *testing.T) {
	raw := json.RawMessage(`[
        {"userId": "user-1", "domain": "github.com", "title": "PRs", "duration": 300},
        {"userId": "user-1", "domain": "", "title": "", "duration": 300},
        {"userId": "user-1", "title": "Untitled doc", "duration": 120}
    ]`)

	tabs := NormalizeTabUsage(raw, Filter{})

	require.Len(t, tabs, 2)
	require.Equal(t, "github.com", tabs[0].Domain)
	require.Equal(t, "Untitled doc", tabs[1].Title)
}

func TestTabAppName(t *testing.T) {
	require.Equal(t, "Browser - github.com", TabAppName(TabRecord{Domain: "github.com", Title: "PRs"}))
	require.Equal(t, "Browser - Docs", TabAppName(TabRecord{Domain: "unknown", Title: "Docs"}))
	require.Equal(t, "Browser", TabAppName(TabRecord{}))
}

func TestRecordsAppendsSyntheticTabEntries(t *testing.T) {
	usage := Usage{
		Apps: []Record{{AppName: "VS Code", Duration: 100}},
		Tabs: []TabRecord{{Domain: "github.com", Duration: 200}},
	}

	records := usage.Records()

	require.Len(t, records, 2)
	require.Equal(t, "VS Code", records[0].AppName)
	require.Equal(t, "Browser - github.com", records[1].AppName)
	require.Equal(t, 200, records[1].Duration)
}

func TestParseUsagePayload(t *testing.T) {
	raw := json.RawMessage(`{
        "appUsage": {"VS Code": 420},
        "tabUsage": [{"domain": "github.com", "duration": 120}]
    }`)

	usage, err := ParseUsagePayload(raw, Filter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, usage.Apps, 1)
	require.Len(t, usage.Tabs, 1)
	require.False(t, usage.Empty())
}

func TestParseUsagePayloadMalformed(t *testing.T) {
	_, err := ParseUsagePayload(json.RawMessage(`[1, 2, 3]`), Filter{})
	require.Error(t, err)
}

func TestFilterMatchesOnlyWhenFieldsPresent(t *testing.T) {
	filter := Filter{UserID: "user-1", Email: "u@example.com", Date: "2026-08-30"}

	require.True(t, filter.matches(json.RawMessage(`"user-1"`), "", ""))
	require.False(t, filter.matches(json.RawMessage(`"user-2"`), "", ""))
	require.False(t, filter.matches(json.RawMessage(`"user-1"`), "other@example.com", ""))
	require.False(t, filter.matches(json.RawMessage(`"user-1"`), "", "2026-08-29"))
	require.True(t, filter.matches(nil, "", ""), "absent identity fields are not filtered")
}
