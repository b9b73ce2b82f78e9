package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorebound/adventure-engine/pkg/chat"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

func testAdventure() *state.Adventure {
	s := &scenario.Scenario{
		ID:    "harbor-mystery",
		Title: "The Harbor Mystery",
		Plot: scenario.Plot{
			AIInstructions: "Keep the tone grounded and damp.",
			PlotEssentials: "The harbormaster is missing.",
		},
		StoryCards: []scenario.StoryCard{
			{Type: scenario.CardPC, Name: "Aldric", Entry: "A retired watchman."},
			{Type: scenario.CardCharacter, Name: "Greta", Entry: "The tavern keeper.", Triggers: []string{"greta"}},
		},
		OpeningLocation:  "The Rusty Anchor",
		OpeningSituation: "Rain hammers the windows.",
		OpeningPresent:   []string{"Aldric", "Greta"},
	}
	return state.NewAdventure(s, "")
}

func TestBuilderBuild(t *testing.T) {
	t.Run("assembles system, context and action messages", func(t *testing.T) {
		msgs, err := New().
			WithAdventure(testAdventure()).
			WithPlayerAction("Aldric", state.ActionSay, "Who broke the lock?").
			Build()
		require.NoError(t, err)
		require.Len(t, msgs, 3)

		assert.Equal(t, chat.RoleSystem, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, WorldDecisionPrompt)
		assert.Contains(t, msgs[0].Content, "Keep the tone grounded and damp.")

		assert.Equal(t, chat.RoleSystem, msgs[1].Role)
		assert.Contains(t, msgs[1].Content, "The harbormaster is missing.")
		assert.Contains(t, msgs[1].Content, "Location: The Rusty Anchor")
		assert.Contains(t, msgs[1].Content, "Aldric (player character)")

		assert.Equal(t, chat.RoleUser, msgs[2].Role)
		assert.Contains(t, msgs[2].Content, "Aldric says: Who broke the lock?")
	})

	t.Run("requires adventure and input", func(t *testing.T) {
		_, err := New().WithPlayerAction("Aldric", state.ActionDo, "look").Build()
		assert.Error(t, err)

		_, err = New().WithAdventure(testAdventure()).Build()
		assert.Error(t, err)
	})

	t.Run("triggered cards appear as lore", func(t *testing.T) {
		msgs, err := New().
			WithAdventure(testAdventure()).
			WithTriggeredCards([]scenario.StoryCard{
				{Type: scenario.CardLocation, Name: "Smugglers' Cave", Entry: "A sea cave below the cliffs."},
			}).
			WithPlayerAction("Aldric", state.ActionDo, "search the shore").
			Build()
		require.NoError(t, err)
		assert.Contains(t, msgs[1].Content, "Relevant lore:")
		assert.Contains(t, msgs[1].Content, "Smugglers' Cave (location): A sea cave below the cliffs.")
	})

	t.Run("history window keeps only the newest events", func(t *testing.T) {
		events := []state.Event{
			{ActorName: "Aldric", ActionType: state.ActionDo, PlayerInput: "first", Narration: "oldest"},
			{ActorName: "Aldric", ActionType: state.ActionDo, PlayerInput: "second", Narration: "middle"},
			{ActorName: "Aldric", ActionType: state.ActionDo, PlayerInput: "third", Narration: "newest"},
		}
		msgs, err := New().
			WithAdventure(testAdventure()).
			WithRecentEvents(events).
			WithHistoryLimit(2).
			WithPlayerAction("Aldric", state.ActionDo, "look around").
			Build()
		require.NoError(t, err)
		assert.NotContains(t, msgs[1].Content, "oldest")
		assert.Contains(t, msgs[1].Content, "middle")
		assert.Contains(t, msgs[1].Content, "newest")
	})

	t.Run("strict retry instruction comes last", func(t *testing.T) {
		msgs, err := New().
			WithAdventure(testAdventure()).
			WithPlayerAction("Aldric", state.ActionDo, "look").
			Strict().
			Build()
		require.NoError(t, err)
		last := msgs[len(msgs)-1]
		assert.Equal(t, chat.RoleSystem, last.Role)
		assert.Equal(t, StrictRetryPrompt, last.Content)
	})
}

func TestVoiceBuilderBuild(t *testing.T) {
	greta := state.NewCharacterState("Greta")
	greta.SpeechStyle = "clipped, wry"
	greta.CurrentMood = "suspicious"

	card := &scenario.StoryCard{Type: scenario.CardCharacter, Name: "Greta", Entry: "The tavern keeper."}

	t.Run("full prompt", func(t *testing.T) {
		msgs, err := NewVoice().
			WithCharacter(greta, card).
			WithScene(&state.Scene{LocationName: "The Rusty Anchor"}).
			WithNarration("The door slams open.").
			WithDirection("She recognizes the newcomer.", "startled").
			WithPlayerAction("Aldric", "Who broke the lock?").
			Build()
		require.NoError(t, err)
		require.Len(t, msgs, 3)

		assert.Equal(t, CharacterVoicePrompt, msgs[0].Content)

		assert.Contains(t, msgs[1].Content, "Character: Greta")
		assert.Contains(t, msgs[1].Content, "The tavern keeper.")
		assert.Contains(t, msgs[1].Content, "Speech style: clipped, wry")
		assert.Contains(t, msgs[1].Content, "Mood: suspicious")
		assert.Contains(t, msgs[1].Content, "Suggested mood: startled")

		assert.Equal(t, chat.RoleUser, msgs[2].Role)
		assert.Contains(t, msgs[2].Content, "Aldric: Who broke the lock?")
		assert.Contains(t, msgs[2].Content, "What just happened: The door slams open.")
		assert.Contains(t, msgs[2].Content, "Direction: She recognizes the newcomer.")
	})

	t.Run("requires a character", func(t *testing.T) {
		_, err := NewVoice().Build()
		assert.Error(t, err)
	})

	t.Run("empty direction falls back to a scene reaction", func(t *testing.T) {
		msgs, err := NewVoice().WithCharacter(greta, nil).Build()
		require.NoError(t, err)
		assert.Equal(t, "React to the current scene.", msgs[2].Content)
	})

	t.Run("relationships render in stable order", func(t *testing.T) {
		cs := state.NewCharacterState("Greta")
		cs.SetRelationship("Piet", "fond", "")
		cs.SetRelationship("Aldric", "wary", "")
		cs.SetRelationship("Bosun", "cold", "")

		first, err := NewVoice().WithCharacter(cs, nil).Build()
		require.NoError(t, err)

		aldric := strings.Index(first[1].Content, "- Aldric")
		bosun := strings.Index(first[1].Content, "- Bosun")
		piet := strings.Index(first[1].Content, "- Piet")
		require.True(t, aldric >= 0 && bosun >= 0 && piet >= 0)
		assert.Less(t, aldric, bosun)
		assert.Less(t, bosun, piet)

		// Identical inputs produce identical prompt text across builds.
		second, err := NewVoice().WithCharacter(cs, nil).Build()
		require.NoError(t, err)
		assert.Equal(t, first[1].Content, second[1].Content)
	})
}

func TestWorldDecisionPromptContract(t *testing.T) {
	// Every key the parser reads back must be named in the documented schema,
	// or the model will never emit it.
	for _, key := range []string{
		"narration",
		"scene_update",
		"npc_responses",
		"pc_prompts",
		"awaiting_pc_input",
		"character_updates",
	} {
		assert.Contains(t, WorldDecisionPrompt, `"`+key+`"`, "missing contract key %q", key)
	}
	assert.Contains(t, WorldDecisionPrompt, "current_mood")
	assert.Contains(t, WorldDecisionPrompt, "add_items")
}

func TestSummaryMessages(t *testing.T) {
	events := []state.Event{
		{ActorName: "Aldric", ActionType: state.ActionDo, PlayerInput: "search the office", Narration: "The ledger is gone."},
	}

	msgs := SummaryMessages("Aldric took the case.", events)
	require.Len(t, msgs, 2)
	assert.Equal(t, StorySummaryPrompt, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "Current summary:\nAldric took the case.")
	assert.Contains(t, msgs[1].Content, "Aldric: search the office")
	assert.Contains(t, msgs[1].Content, "The ledger is gone.")

	// A fresh adventure still gets a seed summary line.
	msgs = SummaryMessages("", events)
	assert.Contains(t, msgs[1].Content, "The adventure has just begun.")
}

func TestNPCCreationMessages(t *testing.T) {
	s := &scenario.Scenario{
		ID:          "harbor-mystery",
		Title:       "The Harbor Mystery",
		Description: "A damp smuggling town.",
		Plot:        scenario.Plot{Story: "The harbormaster is missing."},
		StoryCards: []scenario.StoryCard{
			{Type: scenario.CardPC, Name: "Aldric", Entry: "x"},
			{Type: scenario.CardCharacter, Name: "Greta", Entry: "x"},
			{Type: scenario.CardLocation, Name: "Smugglers' Cave", Entry: "x"},
		},
	}

	msgs := NPCCreationMessages(s, "a dockworker who saw the night crew")
	require.Len(t, msgs, 2)
	assert.Equal(t, NPCCreationPrompt, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "A damp smuggling town.")
	assert.Contains(t, msgs[1].Content, "Existing characters: Aldric, Greta")
	assert.NotContains(t, msgs[1].Content, "Smugglers' Cave")
	assert.Contains(t, msgs[1].Content, "a dockworker who saw the night crew")

	empty := &scenario.Scenario{ID: "bare", Title: "Bare"}
	msgs = NPCCreationMessages(empty, "anyone")
	assert.Contains(t, msgs[1].Content, "Existing characters: None yet")
}
