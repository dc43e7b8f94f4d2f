package highlight

import (
	"regexp"
	"sort"
	"strings"
)

var ansiCSI = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// Result is highlighted text plus where the matches landed. LineIndex holds
// the zero-based lines containing at least one match.
type Result struct {
	Text      string
	Count     int
	LineIndex []int
}

// Terms marks every case-insensitive occurrence of any term in input with
// wrap. ANSI escape sequences already present are left intact and a match
// never spans one.
func Terms(input string, terms []string, wrap func(string) string) Result {
	terms = normalize(terms)
	if len(terms) == 0 {
		return Result{Text: input}
	}
	if wrap == nil {
		wrap = func(s string) string { return s }
	}

	lines := strings.SplitAfter(input, "\n")
	var out strings.Builder
	lineMatches := make([]int, 0, 16)
	total := 0

	for lineNo, line := range lines {
		core, hasNewline := strings.CutSuffix(line, "\n")
		rendered, count := markANSIText(core, terms, wrap)
		out.WriteString(rendered)
		if hasNewline {
			out.WriteByte('\n')
		}
		if count > 0 {
			lineMatches = append(lineMatches, lineNo)
			total += count
		}
	}

	return Result{
		Text:      out.String(),
		Count:     total,
		LineIndex: lineMatches,
	}
}

// normalize lowercases, drops blanks and duplicates, and orders longer terms
// first so "sales" wins over "sale" at the same position.
func normalize(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func markANSIText(s string, terms []string, wrap func(string) string) (string, int) {
	indices := ansiCSI.FindAllStringIndex(s, -1)
	if len(indices) == 0 {
		return markPlain(s, terms, wrap)
	}

	var out strings.Builder
	total := 0
	pos := 0
	for _, idx := range indices {
		if idx[0] > pos {
			plain, count := markPlain(s[pos:idx[0]], terms, wrap)
			out.WriteString(plain)
			total += count
		}
		out.WriteString(s[idx[0]:idx[1]])
		pos = idx[1]
	}
	if pos < len(s) {
		plain, count := markPlain(s[pos:], terms, wrap)
		out.WriteString(plain)
		total += count
	}
	return out.String(), total
}

func markPlain(s string, terms []string, wrap func(string) string) (string, int) {
	if s == "" {
		return s, 0
	}
	lower := strings.ToLower(s)
	// Lowercasing can change byte lengths for some runes; offsets would no
	// longer line up with s.
	if len(lower) != len(s) {
		return s, 0
	}

	var out strings.Builder
	count := 0
	start := 0
	for start < len(s) {
		at, term := nextMatch(lower, start, terms)
		if at < 0 {
			break
		}
		out.WriteString(s[start:at])
		end := at + len(term)
		out.WriteString(wrap(s[at:end]))
		count++
		start = end
	}
	if count == 0 {
		return s, 0
	}
	out.WriteString(s[start:])
	return out.String(), count
}

func nextMatch(lower string, from int, terms []string) (int, string) {
	best, bestTerm := -1, ""
	for _, t := range terms {
		rel := strings.Index(lower[from:], t)
		if rel < 0 {
			continue
		}
		if at := from + rel; best < 0 || at < best {
			best, bestTerm = at, t
		}
	}
	return best, bestTerm
}
