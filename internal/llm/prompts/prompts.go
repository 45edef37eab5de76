// Package prompts renders the system prompts sent to the drafting model.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

var topicTagRegex = regexp.MustCompile(`(?i)</?\s*topic\b[^>]*>`)

// maxTopicRunes bounds the user-supplied topic.
const maxTopicRunes = 2000

// Difficulty selects the tone of drafted questions.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyStandard Difficulty = "standard"
	DifficultyHard     Difficulty = "hard"
)

// IsValidDifficulty checks if a difficulty name is known.
func IsValidDifficulty(d string) bool {
	switch Difficulty(d) {
	case DifficultyEasy, DifficultyStandard, DifficultyHard:
		return true
	}
	return false
}

// DraftData holds template data for the drafting prompt.
type DraftData struct {
	Topic      string
	Subject    string
	Count      int
	Difficulty Difficulty
	Lang       string
}

var (
	loadOnce  sync.Once
	loadErr   error
	draftTmpl *template.Template
)

func load() error {
	loadOnce.Do(func() {
		content, err := templateFS.ReadFile("templates/draft.txt")
		if err != nil {
			loadErr = fmt.Errorf("read draft prompt: %w", err)
			return
		}
		draftTmpl, err = template.New("draft").Parse(string(content))
		if err != nil {
			loadErr = fmt.Errorf("parse draft prompt: %w", err)
		}
	})
	return loadErr
}

// BuildDraftPrompt renders the drafting system prompt. Unknown difficulties
// fall back to standard and an empty language to English.
func BuildDraftPrompt(data DraftData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	if !IsValidDifficulty(string(data.Difficulty)) {
		data.Difficulty = DifficultyStandard
	}
	if data.Lang == "" {
		data.Lang = "en"
	}
	data.Topic = SanitizeTopic(data.Topic)

	var buf bytes.Buffer
	if err := draftTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SanitizeTopic strips prompt delimiters from the topic and truncates it.
func SanitizeTopic(topic string) string {
	topic = topicTagRegex.ReplaceAllString(topic, "")
	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) > maxTopicRunes {
		topic = string([]rune(topic)[:maxTopicRunes])
	}
	return topic
}
