package report

import (
	"regexp"
	"strings"
)

var bulletRe = regexp.MustCompile(`^(?:[-*•]|\d+[\.\)])\s+(.+)$`)

// extractBullets scans a section body line by line and yields one item per
// hyphen/numbered bullet. Markdown table data rows are folded in as bullets by
// joining their cells with " - ". If nothing matches but the body is
// non-trivial, the first 200 characters are returned as a degenerate item.
func extractBullets(body string) []string {
	var items []string
	separatorSeen := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.Contains(trimmed, "|") {
			if isSeparatorRow(trimmed) {
				separatorSeen = true
				continue
			}
			if separatorSeen {
				if cells := splitCells(trimmed); len(cells) > 0 {
					items = append(items, strings.Join(cells, " - "))
				}
			}
			continue
		}
		if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	if len(items) == 0 {
		if b := strings.TrimSpace(body); len(b) > 10 {
			items = append(items, truncate(b, 200))
		}
	}
	return items
}

// extractTableRows parses markdown pipe-tables: the header row is skipped, the
// separator row marks where data rows begin, bold markers are stripped from
// every cell. Rows before the separator or with zero non-empty cells are
// discarded.
func extractTableRows(body string) [][]string {
	var rows [][]string
	separatorSeen := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(trimmed, "|") {
			continue
		}
		if isSeparatorRow(trimmed) {
			separatorSeen = true
			continue
		}
		if !separatorSeen {
			continue
		}
		cells := splitCells(trimmed)
		for i := range cells {
			cells[i] = strings.TrimSpace(strings.ReplaceAll(cells[i], "**", ""))
		}
		cells = nonEmpty(cells)
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// isSeparatorRow detects the header separator of a markdown table, cells made
// only of dashes, colons and pipes.
func isSeparatorRow(line string) bool {
	if !strings.Contains(line, "-") {
		return false
	}
	for _, r := range line {
		switch r {
		case '-', ':', '|', ' ':
		default:
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return nonEmpty(parts)
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// truncate trims the string and cuts it to at most max runes.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}

func capItems(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
