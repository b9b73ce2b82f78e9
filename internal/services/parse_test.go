package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorebound/adventure-engine/pkg/scenario"
)

func TestParseWorldDecision(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		decision, err := ParseWorldDecision(`{"narration": "The door creaks open.", "npc_responses": [{"character_name": "Greta", "should_respond": true, "response_context": "startled by the noise"}]}`)
		require.NoError(t, err)
		assert.Equal(t, "The door creaks open.", decision.Narration)
		require.Len(t, decision.NPCResponses, 1)
		assert.Equal(t, "Greta", decision.NPCResponses[0].CharacterName)
		assert.True(t, decision.NPCResponses[0].ShouldRespond)
	})

	t.Run("markdown fenced", func(t *testing.T) {
		decision, err := ParseWorldDecision("```json\n{\"narration\": \"Rain begins to fall.\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Rain begins to fall.", decision.Narration)
	})

	t.Run("commentary around the object", func(t *testing.T) {
		decision, err := ParseWorldDecision(`Sure! Here is the result: {"narration": "A gull cries overhead."} Hope that helps.`)
		require.NoError(t, err)
		assert.Equal(t, "A gull cries overhead.", decision.Narration)
	})

	t.Run("scene update fields", func(t *testing.T) {
		decision, err := ParseWorldDecision(`{"narration": "You step into the cellar.", "scene_update": {"location_name": "Cellar", "characters_enter": ["Mira"], "characters_exit": ["Greta"]}}`)
		require.NoError(t, err)
		require.NotNil(t, decision.SceneUpdate)
		assert.Equal(t, "Cellar", decision.SceneUpdate.LocationName)
		assert.Equal(t, []string{"Mira"}, decision.SceneUpdate.CharactersEnter)
		assert.Equal(t, []string{"Greta"}, decision.SceneUpdate.CharactersExit)
	})

	t.Run("no JSON object", func(t *testing.T) {
		_, err := ParseWorldDecision("I cannot respond in JSON right now.")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseWorldDecision(`{"narration": "unterminated`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})

	t.Run("empty narration", func(t *testing.T) {
		_, err := ParseWorldDecision(`{"narration": "  ", "npc_responses": []}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})
}

func TestParseCharacterAction(t *testing.T) {
	t.Run("full action", func(t *testing.T) {
		action, err := ParseCharacterAction(`{"action": "draws her blade", "speech": "Stay behind me.", "inner_thought": "Too many of them."}`)
		require.NoError(t, err)
		assert.Equal(t, "draws her blade", action.Action)
		assert.Equal(t, "Stay behind me.", action.Speech)
		assert.Equal(t, "Too many of them.", action.InnerThought)
	})

	t.Run("speech only", func(t *testing.T) {
		action, err := ParseCharacterAction(`{"speech": "Who goes there?"}`)
		require.NoError(t, err)
		assert.Empty(t, action.Action)
		assert.Equal(t, "Who goes there?", action.Speech)
	})

	t.Run("no content", func(t *testing.T) {
		_, err := ParseCharacterAction(`{"action": "", "speech": "", "inner_thought": ""}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := ParseCharacterAction("She smiles mysteriously.")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})
}

func TestParseStoryCard(t *testing.T) {
	t.Run("full card", func(t *testing.T) {
		card, err := ParseStoryCard(`{"name": "Marlow", "entry": "A dockworker with a guilty look.", "notes": "Knows more than he says.", "triggers": ["marlow", "dockworker"]}`)
		require.NoError(t, err)
		assert.Equal(t, "Marlow", card.Name)
		assert.Equal(t, "A dockworker with a guilty look.", card.Entry)
		assert.Equal(t, []string{"marlow", "dockworker"}, card.Triggers)
	})

	t.Run("type is forced to character", func(t *testing.T) {
		card, err := ParseStoryCard(`{"type": "location", "name": "Marlow", "entry": "x"}`)
		require.NoError(t, err)
		assert.Equal(t, scenario.CardCharacter, card.Type)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := ParseStoryCard(`{"entry": "A dockworker."}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := ParseStoryCard(`{"name": "Marlow"}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedOutput))
	})
}
