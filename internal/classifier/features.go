package classifier

import "math"

// appAliases maps observed app names onto the vocabulary the model was
// trained with, so an unrecognized categorical value never reaches the
// encoder unmapped.
var appAliases = map[string]string{
	"Code":                 "VS Code",
	"Google-chrome":        "Chrome",
	"focusai-app":          "Chrome",
	"MongoDB Compass":      "Chrome",
	"Gnome-terminal":       "VS Code",
	"Gnome-control-center": "Chrome",
}

// appVocabulary indexes the app names known to the model. Unknown apps fall
// back to the default browser entry rather than failing.
var appVocabulary = map[string]int{
	"Chrome":         0,
	"VS Code":        1,
	"Terminal":       2,
	"Postman":        3,
	"IntelliJ IDEA":  4,
	"Firefox":        5,
	"Edge":           6,
	"Slack":          7,
	"Netflix":        8,
	"Spotify":        9,
}

const defaultAppIndex = 0 // Chrome

var featureDevTools = []string{"VS Code", "Code", "MongoDB Compass", "Postman", "Terminal", "Gnome-terminal", "IntelliJ IDEA"}
var featureBrowsers = []string{"Chrome", "Google-chrome", "Firefox", "Edge"}
var featureCommunication = []string{"Teams", "Slack", "Zoom", "Google Meet"}
var featureEntertainment = []string{"Netflix", "Instagram", "Facebook", "Twitter", "TikTok"}

// EncodeFeatures builds the model feature vector for one activity: encoded
// app identity, raw and log duration, duration bucket indicators, app
// category indicators, and keyword-match counts over the tab title.
func EncodeFeatures(app, tab string, duration int) []float64 {
	mapped := app
	if alias, ok := appAliases[app]; ok {
		mapped = alias
	}
	appIndex, ok := appVocabulary[mapped]
	if !ok {
		appIndex = defaultAppIndex
	}

	d := float64(duration)
	features := []float64{
		float64(appIndex),
		d,
		math.Log1p(d),
		boolFeature(duration < 300),
		boolFeature(duration >= 300 && duration < 1200),
		boolFeature(duration >= 1200),
		boolFeature(containsName(featureDevTools, app)),
		boolFeature(containsName(featureBrowsers, app)),
		boolFeature(containsName(featureCommunication, app)),
		boolFeature(containsName(featureEntertainment, app)),
		float64(countKeywords(tab, workBrowserKeywords)),
		float64(countKeywords(tab, entertainmentKeywords)),
	}
	return features
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
