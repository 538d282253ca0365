// Package report turns the loosely structured text produced by the vision
// model into a fully populated AssessmentReport. Parsing never fails: every
// extraction rule degrades to fallback content, so downstream rendering does
// not need nil checks.
package report

import (
	"strings"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
)

const (
	maxSummaryLen         = 800
	maxFallbackSummaryLen = 500
	maxFindingsLen        = 1000
	maxAreaLen            = 50
	maxSectionRecs        = 5
	maxPriorityEntries    = 10
	maxListItems          = 10
)

const (
	sectionExecutiveSummary = "Executive Summary"
	sectionZone             = "Zone Classification"
	sectionSurface          = "Surface Assessment"
	sectionDisposition      = "Disposition"
	sectionSampling         = "Sampling Recommendations"
	sectionSamplingShort    = "Sampling"
	sectionFdamRecs         = "FDAM Recommendations"
	sectionRecs             = "Recommendations"

	generalAssessmentLabel = "General Assessment"
	generalPriorityLabel   = "General"
)

const fallbackSummary = "Fire and smoke damage assessment completed. Review the detailed findings and restoration priorities below."

var genericRecommendations = []string{
	"Engage a certified fire damage restoration contractor for detailed scoping",
	"Confirm the extent of smoke residue with surface sampling before restoration begins",
}

var fallbackScopeIndicators = []string{
	"Visible smoke residue patterns on walls and ceilings",
	"Odor assessment throughout affected and adjacent areas",
	"HVAC system inspection for soot migration",
}

var fallbackFdamRecommendations = []string{
	"Collect surface samples from representative affected areas",
	"Document pre-restoration conditions with photographs",
	"Establish containment between affected and unaffected zones",
}

// Parse converts raw model output into a structured report. It is a pure
// function: same input, same output, no side effects.
func Parse(reportText string) api.AssessmentReport {
	summary := executiveSummary(reportText)
	return api.AssessmentReport{
		ExecutiveSummary:    summary,
		DetailedAssessment:  detailedAssessment(reportText, summary),
		RestorationPriority: restorationPriority(reportText),
		ScopeIndicators:     scopeIndicators(reportText),
		FdamRecommendations: fdamRecommendations(reportText),
	}
}

// executiveSummary prefers the named section, falls back to the first
// paragraph of the whole text, and finally to a fixed literal.
func executiveSummary(text string) string {
	if sec, ok := extractSection(text, sectionExecutiveSummary); ok && strings.TrimSpace(sec) != "" {
		return truncate(sec, maxSummaryLen)
	}
	for _, para := range strings.Split(text, "\n\n") {
		if p := strings.TrimSpace(para); p != "" {
			return truncate(p, maxFallbackSummaryLen)
		}
	}
	return fallbackSummary
}

func detailedAssessment(text, summary string) []api.DetailedFinding {
	var findings []api.DetailedFinding
	for _, label := range []string{sectionZone, sectionSurface} {
		sec, ok := extractSection(text, label)
		if !ok || strings.TrimSpace(sec) == "" {
			continue
		}
		findings = append(findings, api.DetailedFinding{
			Area:            label,
			Findings:        truncate(sec, maxFindingsLen),
			Severity:        ExtractSeverity(sec),
			Recommendations: capItems(extractBullets(sec), maxSectionRecs),
		})
	}
	if len(findings) == 0 {
		findings = append(findings, api.DetailedFinding{
			Area:            generalAssessmentLabel,
			Findings:        summary,
			Severity:        ExtractSeverity(summary),
			Recommendations: genericRecommendations,
		})
	}
	return findings
}

func restorationPriority(text string) []api.PriorityEntry {
	sec, ok := extractSection(text, sectionDisposition)
	if ok && strings.TrimSpace(sec) != "" {
		if rows := extractTableRows(sec); len(rows) > 0 {
			return priorityFromRows(rows)
		}
		if bullets := extractBullets(sec); len(bullets) > 0 {
			return priorityFromBullets(bullets)
		}
	}
	return []api.PriorityEntry{{
		Priority:  1,
		Area:      generalPriorityLabel,
		Action:    api.ActionAssess,
		Rationale: "No disposition table found in report; a detailed on-site evaluation is required",
	}}
}

func priorityFromRows(rows [][]string) []api.PriorityEntry {
	if len(rows) > maxPriorityEntries {
		rows = rows[:maxPriorityEntries]
	}
	entries := make([]api.PriorityEntry, 0, len(rows))
	for i, row := range rows {
		rationale := strings.Join(row[1:], "; ")
		if rationale == "" {
			rationale = row[0]
		}
		entries = append(entries, api.PriorityEntry{
			Priority:  i + 1,
			Area:      truncate(row[0], maxAreaLen),
			Action:    ClassifyAction(strings.Join(row, " ")),
			Rationale: rationale,
		})
	}
	return entries
}

func priorityFromBullets(bullets []string) []api.PriorityEntry {
	bullets = capItems(bullets, maxPriorityEntries)
	entries := make([]api.PriorityEntry, 0, len(bullets))
	for i, b := range bullets {
		area := b
		if idx := strings.IndexAny(b, ",.:"); idx > 0 {
			area = b[:idx]
		}
		entries = append(entries, api.PriorityEntry{
			Priority:  i + 1,
			Area:      truncate(area, maxAreaLen),
			Action:    ClassifyAction(b),
			Rationale: b,
		})
	}
	return entries
}

// samplingItems extracts the shared bullet list of the sampling section.
func samplingItems(text string) []string {
	sec, ok := extractSection(text, sectionSampling)
	if !ok {
		sec, ok = extractSection(text, sectionSamplingShort)
	}
	if !ok || strings.TrimSpace(sec) == "" {
		return nil
	}
	return capItems(extractBullets(sec), maxListItems)
}

func scopeIndicators(text string) []string {
	if items := samplingItems(text); len(items) > 0 {
		return items
	}
	return fallbackScopeIndicators
}

// fdamRecommendations uses the sampling list, unless it is empty and a
// dedicated recommendations section exists.
func fdamRecommendations(text string) []string {
	if items := samplingItems(text); len(items) > 0 {
		return items
	}
	for _, title := range []string{sectionFdamRecs, sectionRecs} {
		if sec, ok := extractSection(text, title); ok && strings.TrimSpace(sec) != "" {
			if items := capItems(extractBullets(sec), maxListItems); len(items) > 0 {
				return items
			}
		}
	}
	return fallbackFdamRecommendations
}
