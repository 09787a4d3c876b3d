package assessment

import "strings"

// CategoryKey is the canonical, case-insensitive identifier of a topic.
// "Basics", " basics " and "BASICS" all share the key "basics".
type CategoryKey string

func NormalizeCategory(raw string) CategoryKey {
	return CategoryKey(strings.ToLower(strings.TrimSpace(raw)))
}

func (k CategoryKey) String() string { return string(k) }

// NormalizeProcess returns the stored form of a process name. Users, rules,
// questions, sessions and results all key on this form.
func NormalizeProcess(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
