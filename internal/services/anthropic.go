package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lorebound/adventure-engine/pkg/chat"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicMaxTokens = 2048
)

// AnthropicService implements LLMService for Anthropic Claude. The
// world-decision and character-voice calls may use different models.
type AnthropicService struct {
	apiKey     string
	storyModel string
	voiceModel string
	httpClient *http.Client
}

var _ LLMService = (*AnthropicService)(nil)

type anthropicChatRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	Messages    []chat.Message `json:"messages"`
	System      string         `json:"system,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicService creates a service against the Anthropic messages API.
func NewAnthropicService(apiKey, storyModel, voiceModel string) *AnthropicService {
	if voiceModel == "" {
		voiceModel = storyModel
	}
	return &AnthropicService{
		apiKey:     apiKey,
		storyModel: storyModel,
		voiceModel: voiceModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// InitModel is a no-op; Anthropic models need no warm-up.
func (a *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// splitChatMessages combines all system messages into a single system prompt
// and returns the remaining non-system messages. Anthropic takes the system
// prompt as a top-level field rather than in the message list.
func splitChatMessages(messages []chat.Message) (string, []chat.Message) {
	var systemParts []string
	var conversation []chat.Message

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			conversation = append(conversation, msg)
		}
	}

	return strings.Join(systemParts, "\n\n"), conversation
}

func (a *AnthropicService) chatCompletion(ctx context.Context, messages []chat.Message, modelName string, temperature float64) (string, error) {
	systemPrompt, conversation := splitChatMessages(messages)

	anthropicReq := anthropicChatRequest{
		Model:       modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages:    conversation,
		Stream:      false,
	}
	if systemPrompt != "" {
		anthropicReq.System = systemPrompt
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var anthropicResp anthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if anthropicResp.Error != nil {
		return "", fmt.Errorf("API error: %s", anthropicResp.Error.Message)
	}

	var responseText string
	for _, content := range anthropicResp.Content {
		if content.Type == "text" {
			responseText += content.Text
		}
	}

	if responseText == "" {
		responseText = msgNoResponse
	}

	return responseText, nil
}

// WorldDecision issues the world-decision call on the story model.
func (a *AnthropicService) WorldDecision(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error) {
	content, err := a.chatCompletion(ctx, messages, a.storyModel, DefaultStoryTemperature)
	if err != nil {
		return nil, err
	}
	return ParseWorldDecision(content)
}

// CharacterVoice issues a character-voice call on the voice model.
func (a *AnthropicService) CharacterVoice(ctx context.Context, messages []chat.Message) (*state.CharacterAction, error) {
	content, err := a.chatCompletion(ctx, messages, a.voiceModel, DefaultVoiceTemperature)
	if err != nil {
		return nil, err
	}
	return ParseCharacterAction(content)
}

// StorySummary issues the rolling-summary call on the story model.
func (a *AnthropicService) StorySummary(ctx context.Context, messages []chat.Message) (string, error) {
	content, err := a.chatCompletion(ctx, messages, a.storyModel, DefaultStoryTemperature)
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" || content == msgNoResponse {
		return "", fmt.Errorf("%w: empty summary", ErrMalformedOutput)
	}
	return content, nil
}

// GenerateNPC issues the NPC-generation call on the story model.
func (a *AnthropicService) GenerateNPC(ctx context.Context, messages []chat.Message) (*scenario.StoryCard, error) {
	content, err := a.chatCompletion(ctx, messages, a.storyModel, DefaultStoryTemperature)
	if err != nil {
		return nil, err
	}
	return ParseStoryCard(content)
}
