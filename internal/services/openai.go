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
	msgNoResponse = "(no response)"

	DefaultStoryTemperature = 0.7
	DefaultVoiceTemperature = 0.8
	DefaultMaxTokens        = 768
)

// OpenAIService implements LLMService against any OpenAI-compatible chat
// completions endpoint (OpenAI itself, or a local server such as llama.cpp
// or vLLM). The world-decision and character-voice calls may use different
// models.
type OpenAIService struct {
	baseURL    string
	apiKey     string
	storyModel string
	voiceModel string
	httpClient *http.Client
}

// Ensure OpenAIService implements LLMService
var _ LLMService = (*OpenAIService)(nil)

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []chat.Message        `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Stream         bool                  `json:"stream"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAIChatResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIService creates a service for an OpenAI-compatible endpoint.
func NewOpenAIService(baseURL, apiKey, storyModel, voiceModel string) *OpenAIService {
	if voiceModel == "" {
		voiceModel = storyModel
	}
	return &OpenAIService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		storyModel: storyModel,
		voiceModel: voiceModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// InitModel is a no-op; hosted endpoints need no warm-up.
func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (o *OpenAIService) chatCompletion(ctx context.Context, messages []chat.Message, modelName string, temperature float64, jsonOutput bool) (string, error) {
	req := openAIChatRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   DefaultMaxTokens,
		Stream:      false,
	}
	if jsonOutput {
		req.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
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

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return msgNoResponse, nil
	}

	return chatResp.Choices[0].Message.Content, nil
}

// WorldDecision issues the world-decision call on the story model.
func (o *OpenAIService) WorldDecision(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error) {
	content, err := o.chatCompletion(ctx, messages, o.storyModel, DefaultStoryTemperature, true)
	if err != nil {
		return nil, err
	}
	return ParseWorldDecision(content)
}

// CharacterVoice issues a character-voice call on the voice model.
func (o *OpenAIService) CharacterVoice(ctx context.Context, messages []chat.Message) (*state.CharacterAction, error) {
	content, err := o.chatCompletion(ctx, messages, o.voiceModel, DefaultVoiceTemperature, true)
	if err != nil {
		return nil, err
	}
	return ParseCharacterAction(content)
}

// StorySummary issues the rolling-summary call on the story model. The
// summary is plain text, so JSON output mode stays off.
func (o *OpenAIService) StorySummary(ctx context.Context, messages []chat.Message) (string, error) {
	content, err := o.chatCompletion(ctx, messages, o.storyModel, DefaultStoryTemperature, false)
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
func (o *OpenAIService) GenerateNPC(ctx context.Context, messages []chat.Message) (*scenario.StoryCard, error) {
	content, err := o.chatCompletion(ctx, messages, o.storyModel, DefaultStoryTemperature, true)
	if err != nil {
		return nil, err
	}
	return ParseStoryCard(content)
}
