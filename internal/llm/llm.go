package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/quizbank/internal/llm/prompts"
	"github.com/pavelanni/quizbank/internal/model"
)

// MaxDraft caps how many questions one request may ask for.
const MaxDraft = 20

// ErrNoUsableQuestions is returned when the model answered but none of its
// questions passed the shape checks.
var ErrNoUsableQuestions = errors.New("model returned no usable questions")

// DraftRequest describes a batch of questions to draft.
type DraftRequest struct {
	Topic      string
	Subject    string
	Count      int
	Difficulty prompts.Difficulty
	Lang       string
	CategoryID string
}

type draftResponse struct {
	Questions []draftQuestion `json:"questions"`
}

type draftQuestion struct {
	QuestionText string        `json:"question_text"`
	Explanation  string        `json:"explanation"`
	Options      []draftOption `json:"options"`
}

type draftOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping checks that the endpoint answers by listing its models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint: %w", err)
	}
	return nil
}

// DraftQuestions asks the model for single-choice questions on a topic.
// Questions that do not have exactly one correct option, or fewer than two
// options, are dropped. The result is not saved.
func (c *Client) DraftQuestions(ctx context.Context, req DraftRequest) ([]model.Question, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, errors.New("topic is required")
	}
	req.Count = max(1, min(req.Count, MaxDraft))

	systemPrompt, err := prompts.BuildDraftPrompt(prompts.DraftData{
		Topic:      req.Topic,
		Subject:    req.Subject,
		Count:      req.Count,
		Difficulty: req.Difficulty,
		Lang:       req.Lang,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var parsed draftResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	questions := convertDraft(parsed, req.CategoryID)
	if len(questions) == 0 {
		return nil, ErrNoUsableQuestions
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	slog.Info("drafted questions", "topic", req.Topic, "requested", req.Count, "usable", len(questions))
	return questions, nil
}

func convertDraft(resp draftResponse, categoryID string) []model.Question {
	var out []model.Question
	for _, dq := range resp.Questions {
		text := strings.TrimSpace(dq.QuestionText)
		if text == "" {
			continue
		}
		var choices []model.ChoiceOption
		correct := 0
		for _, o := range dq.Options {
			optText := strings.TrimSpace(o.Text)
			if optText == "" {
				continue
			}
			if o.IsCorrect {
				correct++
			}
			choices = append(choices, model.ChoiceOption{
				ID:         uuid.NewString(),
				OptionText: optText,
				IsCorrect:  o.IsCorrect,
				Order:      len(choices),
			})
		}
		if correct != 1 || len(choices) < 2 {
			slog.Debug("dropping drafted question", "text", text, "options", len(choices), "correct", correct)
			continue
		}
		out = append(out, model.Question{
			QuestionText: text,
			QuestionType: model.SingleChoiceType,
			CategoryID:   categoryID,
			Explanation:  strings.TrimSpace(dq.Explanation),
			Points:       1,
			Choices:      choices,
		})
	}
	return out
}

// stripCodeFence removes a markdown code fence some models wrap JSON in
// even in JSON mode.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
