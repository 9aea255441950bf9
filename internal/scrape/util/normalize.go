package util

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// SplitCompanyTitle splits feed titles shaped like "Acme: Backend Engineer"
// on the first colon. ok is false when there is no colon.
func SplitCompanyTitle(raw string) (company, title string, ok bool) {
	i := strings.IndexByte(raw, ':')
	if i < 0 {
		return "", strings.TrimSpace(raw), false
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:]), true
}

// NormalizeTag trims a category and folds inner whitespace.
func NormalizeTag(tag string) string {
	return CleanText(tag)
}

// TagExcluded reports whether tag matches one of the excluded tags, ignoring case.
func TagExcluded(tag string, excluded []string) bool {
	tag = strings.ToLower(NormalizeTag(tag))
	if tag == "" {
		return false
	}
	for _, x := range excluded {
		if strings.ToLower(NormalizeTag(x)) == tag {
			return true
		}
	}
	return false
}
