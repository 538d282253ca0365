package report

import (
	"strings"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
)

// ExtractSeverity scans free text for severity keywords in priority order,
// first match wins. Input can carry several keywords at once ("heavy and
// moderate damage" grades heavy). The scan is substring-based and not
// negation-aware; "no significant damage" still grades heavy.
func ExtractSeverity(text string) api.Severity {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "heavy", "severe", "significant"):
		return api.SeverityHeavy
	case strings.Contains(t, "moderate"):
		return api.SeverityModerate
	case strings.Contains(t, "light"):
		return api.SeverityLight
	case strings.Contains(t, "trace"):
		return api.SeverityTrace
	case containsAny(t, "none", "clean", "no damage"):
		return api.SeverityNone
	default:
		return api.SeverityModerate
	}
}

// ClassifyAction maps free text describing a disposition to a restoration
// action, first matching keyword group wins.
func ClassifyAction(text string) api.RestorationAction {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "remove", "replace", "discard"):
		return api.ActionRemove
	case containsAny(t, "clean", "wipe", "hepa", "vacuum"):
		return api.ActionClean
	case containsAny(t, "no action", "retain", "accept"):
		return api.ActionNoAction
	default:
		return api.ActionAssess
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
