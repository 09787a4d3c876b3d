package assessment

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// Grade reports whether answer satisfies the question's correct answer.
// Answers that cannot be decoded for the question type grade as incorrect.
func Grade(q *Question, answer json.RawMessage) bool {
	if q == nil || AnswerIsBlank(answer) {
		return false
	}
	switch q.Type {
	case QuestionSingleChoice:
		got, ok := decodeString(answer)
		if !ok {
			return false
		}
		want, ok := decodeString(json.RawMessage(q.CorrectAnswer))
		if !ok {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
	case QuestionMultiSelect:
		got, ok := decodeStrings(answer)
		if !ok {
			return false
		}
		want, ok := decodeStrings(json.RawMessage(q.CorrectAnswer))
		if !ok || len(want) == 0 {
			return false
		}
		return sameSet(got, want)
	case QuestionFreeText:
		got, ok := decodeString(answer)
		if !ok {
			return false
		}
		accepted, ok := decodeStrings(json.RawMessage(q.CorrectAnswer))
		if !ok {
			return false
		}
		norm := normalizeFreeText(got)
		if norm == "" {
			return false
		}
		for _, a := range accepted {
			if normalizeFreeText(a) == norm {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AnswerIsBlank treats null, "", whitespace and [] as "no answer".
func AnswerIsBlank(answer json.RawMessage) bool {
	trimmed := bytes.TrimSpace(answer)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	if s, ok := decodeString(trimmed); ok {
		return strings.TrimSpace(s) == ""
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err == nil {
		return len(arr) == 0
	}
	return false
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeStrings accepts a JSON string array or a single JSON string.
func decodeStrings(raw json.RawMessage) ([]string, bool) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, true
	}
	if s, ok := decodeString(raw); ok {
		return []string{s}, true
	}
	return nil, false
}

func sameSet(a, b []string) bool {
	left := stringSet(a)
	right := stringSet(b)
	if len(left) != len(right) {
		return false
	}
	for k := range left {
		if _, ok := right[k]; !ok {
			return false
		}
	}
	return true
}

func stringSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

func normalizeFreeText(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}
