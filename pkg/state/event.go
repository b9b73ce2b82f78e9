package state

import (
	"fmt"
	"strings"
	"time"
)

// ActionType classifies the player's raw input for a turn.
type ActionType string

const (
	ActionDo       ActionType = "do"
	ActionSay      ActionType = "say"
	ActionDoAndSay ActionType = "do_say"
	ActionStory    ActionType = "story"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionDo, ActionSay, ActionDoAndSay, ActionStory:
		return true
	}
	return false
}

// CharacterAction is the structured output of one character voice call.
// InnerThought is retained for future context but never shown to the player.
type CharacterAction struct {
	CharacterName string `json:"character_name"`
	Action        string `json:"action,omitempty"`
	Speech        string `json:"speech,omitempty"`
	InnerThought  string `json:"inner_thought,omitempty"`
}

// Narrative renders the action as player-facing text, omitting inner thought.
func (ca *CharacterAction) Narrative() string {
	var parts []string
	if ca.Action != "" {
		parts = append(parts, ca.Action)
	}
	if ca.Speech != "" {
		parts = append(parts, fmt.Sprintf("%q", ca.Speech))
	}
	return strings.Join(parts, " ")
}

// Event is one committed turn: the player's input, the narration the world
// produced, the state deltas that were applied, and the ordered character
// actions. Events are immutable once committed and totally ordered by
// Sequence within their adventure.
type Event struct {
	Sequence   int        `json:"sequence"`
	ActorName  string     `json:"actor_name"`
	ActionType ActionType `json:"action_type"`
	PlayerInput string    `json:"player_input"`

	Narration   string            `json:"narration,omitempty"`
	SceneUpdate *ScenePatch       `json:"scene_update,omitempty"`
	// CharacterUpdates records the per-character patches the composer applied,
	// keyed by canonical name, so that replay reproduces exact state.
	CharacterUpdates map[string]*CharacterPatch `json:"character_updates,omitempty"`
	CharacterActions []CharacterAction          `json:"character_actions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// PlayerText renders the player's input the way it reads in the story.
func (e *Event) PlayerText() string {
	switch e.ActionType {
	case ActionSay:
		return fmt.Sprintf("%s says: %s", e.ActorName, e.PlayerInput)
	case ActionDoAndSay:
		return fmt.Sprintf("%s (acting and speaking): %s", e.ActorName, e.PlayerInput)
	case ActionStory:
		return e.PlayerInput
	default:
		return fmt.Sprintf("%s: %s", e.ActorName, e.PlayerInput)
	}
}

// NarrativeText combines narration and character actions into the text shown
// to the player and used as the history window for trigger matching.
func (e *Event) NarrativeText() string {
	var parts []string
	if e.Narration != "" {
		parts = append(parts, e.Narration)
	}
	for i := range e.CharacterActions {
		ca := &e.CharacterActions[i]
		if text := ca.Narrative(); text != "" {
			parts = append(parts, ca.CharacterName+": "+text)
		}
	}
	return strings.Join(parts, "\n\n")
}
