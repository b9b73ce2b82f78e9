package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// ErrMalformedOutput wraps parse failures of generation output so callers can
// distinguish them from transport errors and apply retry-then-fallback.
var ErrMalformedOutput = fmt.Errorf("malformed generation output")

// extractJSON pulls the JSON object out of a model response. Models wrap
// output in markdown fences or add commentary despite instructions, so the
// text between the first '{' and the last '}' is taken.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}
	return content[start : end+1], nil
}

// ParseWorldDecision decodes a world-decision response.
func ParseWorldDecision(content string) (*state.WorldDecision, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var decision state.WorldDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if strings.TrimSpace(decision.Narration) == "" {
		return nil, fmt.Errorf("%w: empty narration", ErrMalformedOutput)
	}
	return &decision, nil
}

// ParseCharacterAction decodes a character-voice response.
func ParseCharacterAction(content string) (*state.CharacterAction, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var action state.CharacterAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if action.Action == "" && action.Speech == "" && action.InnerThought == "" {
		return nil, fmt.Errorf("%w: character action has no content", ErrMalformedOutput)
	}
	return &action, nil
}

// ParseStoryCard decodes an NPC-generation response into a character card.
// The card type is forced to character regardless of model output.
func ParseStoryCard(content string) (*scenario.StoryCard, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var card scenario.StoryCard
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if strings.TrimSpace(card.Name) == "" {
		return nil, fmt.Errorf("%w: generated card has no name", ErrMalformedOutput)
	}
	if strings.TrimSpace(card.Entry) == "" {
		return nil, fmt.Errorf("%w: generated card has no entry text", ErrMalformedOutput)
	}
	card.Type = scenario.CardCharacter
	return &card, nil
}
