package report

import (
	"regexp"
	"strings"
)

// The model's output is markdown-like but not contractual: a section heading
// may be a markdown heading, a bold-emphasis line, or a plain numbered line.
// Styles are tried in that order and the first match wins. A section body runs
// until the next heading of any of those styles or end of text.

var (
	mdHeadingRe   = regexp.MustCompile(`^#{1,6}\s*(.+?)\s*$`)
	boldHeadingRe = regexp.MustCompile(`^\*\*\s*(.+?)\s*\*\*\s*:?\s*$`)
	numberedRe    = regexp.MustCompile(`^\d+[\.\)]\s+(.+?)\s*:?\s*$`)
	ordinalRe     = regexp.MustCompile(`^\d+[\.\)]\s*`)
)

// sectionTitles lists every title the parser looks for. A plain numbered line
// only counts as a heading when it carries one of these titles, otherwise
// numbered list items inside a section would terminate it.
var sectionTitles = []string{
	"Executive Summary",
	"Zone Classification",
	"Surface Assessment",
	"Disposition",
	"Sampling Recommendations",
	"Sampling",
	"FDAM Recommendations",
	"Recommendations",
}

// normalizeTitle strips a leading ordinal and trailing colon from a candidate
// heading title.
func normalizeTitle(t string) string {
	t = ordinalRe.ReplaceAllString(strings.TrimSpace(t), "")
	return strings.TrimSpace(strings.TrimSuffix(t, ":"))
}

func titleMatches(candidate, want string) bool {
	c := strings.ToLower(normalizeTitle(candidate))
	return strings.HasPrefix(c, strings.ToLower(want))
}

// headingTitle extracts the title of a line written in the given heading
// style, or reports false.
func headingTitle(line string, style int) (string, bool) {
	var re *regexp.Regexp
	switch style {
	case 0:
		re = mdHeadingRe
	case 1:
		re = boldHeadingRe
	default:
		re = numberedRe
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// isHeadingLine reports whether the line terminates a section body.
func isHeadingLine(line string) bool {
	if mdHeadingRe.MatchString(line) || boldHeadingRe.MatchString(line) {
		return true
	}
	if m := numberedRe.FindStringSubmatch(line); m != nil {
		for _, title := range sectionTitles {
			if titleMatches(m[1], title) {
				return true
			}
		}
	}
	return false
}

// extractSection returns the body of the named section. Matching is
// case-insensitive and tolerant of a leading ordinal before the title.
func extractSection(text, title string) (string, bool) {
	lines := strings.Split(text, "\n")
	for style := 0; style < 3; style++ {
		for i, line := range lines {
			t, ok := headingTitle(strings.TrimSpace(line), style)
			if !ok || !titleMatches(t, title) {
				continue
			}
			var body []string
			for _, next := range lines[i+1:] {
				if isHeadingLine(strings.TrimSpace(next)) {
					break
				}
				body = append(body, next)
			}
			return strings.TrimSpace(strings.Join(body, "\n")), true
		}
	}
	return "", false
}
