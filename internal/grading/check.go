package grading

import (
	"encoding/json"
	"maps"
	"math"
	"slices"

	"github.com/pavelanni/quizbank/internal/model"
)

// Check reports whether raw is a correct answer to q. Unknown question types
// and undecodable payloads are incorrect.
func Check(q model.Question, raw json.RawMessage) bool {
	body, err := q.Body()
	if err != nil {
		return false
	}
	var sub model.Submission
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sub); err != nil {
			return false
		}
	}

	switch b := body.(type) {
	case model.SingleChoice:
		return len(sub.SelectedChoices) == 1 &&
			slices.Contains(model.CorrectChoiceIDs(b.Choices), sub.SelectedChoices[0])
	case model.MultipleChoice:
		return setEqual(toSet(sub.SelectedChoices), toSet(model.CorrectChoiceIDs(b.Choices)))
	case model.Matching:
		submitted, ok := ResolveMatching(b, sub.MatchingAnswer)
		return ok && maps.Equal(b.Key(), submitted)
	}
	return false
}

// ResolveMatching turns a submitted matching answer into left -> right item
// text. Values may be right-item strings or integer indices into the
// definitions list. It fails on any other value or an out-of-range index.
func ResolveMatching(m model.Matching, answer map[string]any) (map[string]string, bool) {
	out := make(map[string]string, len(answer))
	for left, v := range answer {
		switch val := v.(type) {
		case string:
			out[left] = val
		case float64:
			if val != math.Trunc(val) {
				return nil, false
			}
			right, ok := m.Definition(int(val))
			if !ok {
				return nil, false
			}
			out[left] = right
		default:
			return nil, false
		}
	}
	return out, true
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
