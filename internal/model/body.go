package model

import (
	"fmt"
	"sort"
)

// Body is the type-specific content of a question. It is implemented by
// SingleChoice, MultipleChoice and Matching only.
type Body interface {
	isBody()
}

// SingleChoice is a question with exactly one correct selection.
type SingleChoice struct {
	Choices []ChoiceOption
}

// MultipleChoice is a question whose correct selection is a set of options.
type MultipleChoice struct {
	Choices []ChoiceOption
}

// Matching is a question pairing left items with right items.
type Matching struct {
	Pairs       []MatchingPair
	Definitions []MatchingDefinition
}

func (SingleChoice) isBody()   {}
func (MultipleChoice) isBody() {}
func (Matching) isBody()       {}

// Body returns the typed content for the question's type.
func (q Question) Body() (Body, error) {
	switch q.QuestionType {
	case SingleChoiceType:
		return SingleChoice{Choices: q.Choices}, nil
	case MultipleChoiceType:
		return MultipleChoice{Choices: q.Choices}, nil
	case MatchingType:
		return Matching{Pairs: q.MatchingPairs, Definitions: q.MatchingDefinitions}, nil
	}
	return nil, fmt.Errorf("unknown question type %q", q.QuestionType)
}

// CorrectChoiceIDs returns the IDs of the options flagged correct.
func CorrectChoiceIDs(choices []ChoiceOption) []string {
	var ids []string
	for _, c := range choices {
		if c.IsCorrect {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Key returns the authoritative left item -> right item mapping.
func (m Matching) Key() map[string]string {
	key := make(map[string]string, len(m.Pairs))
	for _, p := range m.Pairs {
		key[p.LeftItem] = p.RightItem
	}
	return key
}

// Definition returns the right item at index i of the definitions list.
func (m Matching) Definition(i int) (string, bool) {
	if i < 0 || i >= len(m.Definitions) {
		return "", false
	}
	return m.Definitions[i].RightItem, true
}

// SortedChoices returns a copy of choices ordered by Order, then ID.
func SortedChoices(choices []ChoiceOption) []ChoiceOption {
	out := append([]ChoiceOption(nil), choices...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Consistent reports whether the question's content matches its type:
// choice types carry choices and no matching data, matching carries pairs
// and no choices.
func (q Question) Consistent() bool {
	switch q.QuestionType {
	case SingleChoiceType, MultipleChoiceType:
		return len(q.MatchingPairs) == 0 && len(q.MatchingDefinitions) == 0
	case MatchingType:
		return len(q.Choices) == 0
	}
	return false
}

// ForLearner returns a copy without answer keys: correctness flags, correct
// match indices and pair right items are cleared.
func (q Question) ForLearner() Question {
	out := q
	if len(q.Choices) > 0 {
		out.Choices = make([]ChoiceOption, len(q.Choices))
		for i, c := range q.Choices {
			c.IsCorrect = false
			out.Choices[i] = c
		}
	}
	if len(q.MatchingPairs) > 0 {
		out.MatchingPairs = make([]MatchingPair, len(q.MatchingPairs))
		for i, p := range q.MatchingPairs {
			p.RightItem = ""
			p.CorrectMatch = 0
			out.MatchingPairs[i] = p
		}
	}
	return out
}
