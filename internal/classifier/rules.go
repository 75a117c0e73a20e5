// Package classifier labels usage activities as focused or distracted using a
// layered rule engine with an optional statistical fallback model.
package classifier

import (
	"strings"

	"example.com/focus/internal/domain"
)

// Result is the outcome of classifying a single activity.
type Result struct {
	Label      domain.Label
	Confidence float64
	Reason     string
}

// Rule inspects one activity and either produces a Result or passes.
type Rule interface {
	Match(app, tab string, duration int) (Result, bool)
}

// Config names the tunable thresholds and policies of the rule engine. The
// two historical fallback thresholds are kept apart on purpose: the primary
// duration heuristic uses HeuristicThresholdSeconds, while the model-error
// degradation path uses the shorter ModelErrorThresholdSeconds.
type Config struct {
	HeuristicThresholdSeconds  int
	ModelErrorThresholdSeconds int
	KeywordThresholdSeconds    int
	// DefaultUnknownFocused controls the keyword variant's treatment of apps
	// matching no keyword list. When true, unknown activity is labelled
	// Focused outright on the assumption that it could be work-related. This
	// inflates focus scores and is deliberately overridable.
	DefaultUnknownFocused bool
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		HeuristicThresholdSeconds:  600,
		ModelErrorThresholdSeconds: 300,
		KeywordThresholdSeconds:    300,
		DefaultUnknownFocused:      true,
	}
}

// RuleSet evaluates an ordered list of rules, first match wins. The final
// rule is expected to be total, so Classify never fails.
type RuleSet struct {
	rules []Rule
}

// Classify runs the rule chain for one activity. Deterministic and total.
func (rs *RuleSet) Classify(app, tab string, duration int) Result {
	for _, rule := range rs.rules {
		if res, ok := rule.Match(app, tab, duration); ok {
			return res
		}
	}
	// Unreachable with a well-formed rule set; kept total regardless.
	return Result{Label: domain.LabelDistracted, Confidence: 0.5, Reason: "No applicable rule"}
}

// highFocusApps maps known development tools to their base confidence.
var highFocusApps = map[string]float64{
	"VS Code":         0.95,
	"Code":            0.95,
	"IntelliJ IDEA":   0.95,
	"MongoDB Compass": 0.92,
	"Postman":         0.90,
	"GitHub Desktop":  0.90,
	"Terminal":        0.88,
	"Gnome-terminal":  0.88,
	"Docker":          0.85,
}

var systemTools = map[string]float64{
	"Gnome-control-center": 0.75,
	"System Settings":      0.75,
}

var knownBrowsers = []string{"chrome", "google-chrome", "firefox", "edge"}

var workBrowserKeywords = []string{
	"stack overflow", "github", "documentation", "api docs",
	"tutorial", "geeksforgeeks", "leetcode", "hackerrank",
	"backend", "frontend", "code", "programming",
}

var entertainmentKeywords = []string{
	"memes", "funny", "comedy", "jokes", "reels", "stories", "feed",
}

// keyword lists for the summary-oriented rule variant.
var productiveAppKeywords = []string{
	"code", "vscode", "terminal", "gnome-terminal", "mysql", "postman",
	"slack", "eclipse", "intellij", "pycharm", "vim", "emacs", "git", "docker",
}

var distractionAppKeywords = []string{
	"netflix", "spotify", "youtube", "twitter", "instagram", "facebook",
	"tiktok", "reddit", "gaming", "steam",
}

var socialMediaKeywords = []string{
	"youtube", "facebook", "twitter", "instagram", "tiktok", "reddit",
}

// NewSmartRuleSet builds the primary classification chain: development tools,
// work-related browsing, system tools, then the optional model, then the
// duration heuristic. A nil model skips straight to the heuristic.
func NewSmartRuleSet(cfg Config, model Model) *RuleSet {
	rules := []Rule{
		highFocusAppRule{table: highFocusApps},
		workBrowsingRule{browsers: knownBrowsers, keywords: workBrowserKeywords},
		systemToolRule{table: systemTools, minDuration: 30},
	}
	if model != nil {
		rules = append(rules, modelRule{
			model:          model,
			errorThreshold: cfg.ModelErrorThresholdSeconds,
		})
	}
	rules = append(rules, durationHeuristicRule{
		threshold:  cfg.HeuristicThresholdSeconds,
		confidence: 0.60,
	})
	return &RuleSet{rules: rules}
}

// NewKeywordRuleSet builds the summary-oriented variant: substring keyword
// lists over app names, a social-media check for browser-derived labels, and
// a shorter-threshold duration heuristic. Differs from the smart chain only
// by configuration of the shared rule types.
func NewKeywordRuleSet(cfg Config) *RuleSet {
	rules := []Rule{
		substringRule{keywords: productiveAppKeywords, label: domain.LabelFocused, confidence: 0.85, reason: "Productive application"},
		substringRule{keywords: distractionAppKeywords, label: domain.LabelDistracted, confidence: 0.80, reason: "Known distraction"},
		browserContentRule{social: socialMediaKeywords},
	}
	if cfg.DefaultUnknownFocused {
		rules = append(rules, constantRule{
			result: Result{Label: domain.LabelFocused, Confidence: 0.60, Reason: "Unknown app default"},
		})
	} else {
		rules = append(rules, durationHeuristicRule{
			threshold:  cfg.KeywordThresholdSeconds,
			confidence: 0.60,
		})
	}
	return &RuleSet{rules: rules}
}

type highFocusAppRule struct {
	table map[string]float64
}

func (r highFocusAppRule) Match(app, tab string, duration int) (Result, bool) {
	confidence, ok := r.table[app]
	if !ok {
		return Result{}, false
	}
	if duration > 300 {
		confidence = min(0.98, confidence+0.03)
	}
	return Result{Label: domain.LabelFocused, Confidence: confidence, Reason: "Development tool"}, true
}

type workBrowsingRule struct {
	browsers []string
	keywords []string
}

func (r workBrowsingRule) Match(app, tab string, duration int) (Result, bool) {
	appLower := strings.ToLower(app)
	// tab records arrive under synthetic "Browser - domain" names
	browser := strings.HasPrefix(appLower, "browser")
	for _, b := range r.browsers {
		if appLower == b {
			browser = true
			break
		}
	}
	if !browser {
		return Result{}, false
	}

	matches := countKeywords(app+" "+tab, r.keywords)
	if matches == 0 {
		return Result{}, false
	}
	confidence := min(0.95, 0.82+float64(matches)*0.04)
	return Result{Label: domain.LabelFocused, Confidence: confidence, Reason: "Work-related browsing"}, true
}

type systemToolRule struct {
	table       map[string]float64
	minDuration int
}

func (r systemToolRule) Match(app, tab string, duration int) (Result, bool) {
	confidence, ok := r.table[app]
	if !ok || duration <= r.minDuration {
		return Result{}, false
	}
	return Result{Label: domain.LabelFocused, Confidence: confidence, Reason: "System configuration"}, true
}

// durationHeuristicRule is the terminal fallback. Note the known weakness:
// any unmatched long session (e.g. two hours of Netflix) comes out Focused.
type durationHeuristicRule struct {
	threshold  int
	confidence float64
}

func (r durationHeuristicRule) Match(app, tab string, duration int) (Result, bool) {
	label := domain.LabelDistracted
	if duration > r.threshold {
		label = domain.LabelFocused
	}
	return Result{Label: label, Confidence: r.confidence, Reason: "Duration-based fallback"}, true
}

type substringRule struct {
	keywords   []string
	label      domain.Label
	confidence float64
	reason     string
}

func (r substringRule) Match(app, tab string, duration int) (Result, bool) {
	appLower := strings.ToLower(app)
	for _, kw := range r.keywords {
		if strings.Contains(appLower, kw) {
			return Result{Label: r.label, Confidence: r.confidence, Reason: r.reason}, true
		}
	}
	return Result{}, false
}

// browserContentRule classifies browser-derived labels ("Browser - domain" or
// plain browser app names) by their social-media content, assuming remaining
// browser time is work-related.
type browserContentRule struct {
	social []string
}

func (r browserContentRule) Match(app, tab string, duration int) (Result, bool) {
	appLower := strings.ToLower(app)
	if !strings.Contains(appLower, "browser") && !strings.Contains(appLower, "chrome") && !strings.Contains(appLower, "firefox") {
		return Result{}, false
	}
	content := strings.ToLower(app + " " + tab)
	for _, kw := range r.social {
		if strings.Contains(content, kw) {
			return Result{Label: domain.LabelDistracted, Confidence: 0.75, Reason: "Social media browsing"}, true
		}
	}
	return Result{Label: domain.LabelFocused, Confidence: 0.65, Reason: "Assumed work-related browsing"}, true
}

type constantRule struct {
	result Result
}

func (r constantRule) Match(app, tab string, duration int) (Result, bool) {
	return r.result, true
}

func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
