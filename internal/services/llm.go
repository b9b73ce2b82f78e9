package services

import (
	"context"

	"github.com/lorebound/adventure-engine/pkg/chat"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// LLMService is the generation collaborator. The two per-turn call shapes are
// the world-decision call (story direction, scene updates, NPC selection) and
// the character-voice call (one character's structured reaction); summaries
// and NPC generation run outside the turn pipeline. Providers may route call
// shapes to different models.
type LLMService interface {
	// InitModel prepares the provider on startup (no-op for hosted APIs).
	InitModel(ctx context.Context, modelName string) error

	// WorldDecision issues the world-decision call and returns its validated
	// structured result.
	WorldDecision(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error)

	// CharacterVoice issues one character-voice call and returns the
	// character's structured action.
	CharacterVoice(ctx context.Context, messages []chat.Message) (*state.CharacterAction, error)

	// StorySummary issues the rolling-summary call and returns the updated
	// summary text.
	StorySummary(ctx context.Context, messages []chat.Message) (string, error)

	// GenerateNPC issues the NPC-generation call and returns the new
	// character card.
	GenerateNPC(ctx context.Context, messages []chat.Message) (*scenario.StoryCard, error)
}
