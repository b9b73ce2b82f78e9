package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/pkg/scenario"
)

// Adventure is one playthrough of a scenario. It owns a mutable copy of the
// scenario's story cards (AI-created characters are added here mid-game), the
// current scene snapshot, and per-character state. The event log is persisted
// separately as an append-only list; NextSequence tracks its length.
type Adventure struct {
	ID         uuid.UUID `json:"id"`
	ScenarioID string    `json:"scenario_id"`
	Title      string    `json:"title"`

	Plot       scenario.Plot        `json:"plot"`
	StoryCards []scenario.StoryCard `json:"story_cards,omitempty"`

	// InitialScene is the scene as it stood before the first event; undo
	// replays forward from it.
	InitialScene Scene  `json:"initial_scene"`
	Scene        *Scene `json:"scene"`

	Characters map[string]*CharacterState `json:"characters,omitempty"`

	NextSequence int       `json:"next_sequence"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAdventure starts a playthrough from a scenario template, copying its
// cards and seeding the scene and one character state per character card.
func NewAdventure(s *scenario.Scenario, title string) *Adventure {
	if title == "" {
		title = "Adventure in " + s.Title
	}

	initial := Scene{
		LocationName: s.OpeningLocation,
		Situation:    s.OpeningSituation,
	}
	for _, name := range s.OpeningPresent {
		initial.AddCharacter(name)
	}
	// Without an explicit opening cast, every character card starts on stage.
	if len(s.OpeningPresent) == 0 {
		for _, c := range s.CharacterCards() {
			initial.AddCharacter(c.Name)
		}
	}

	adv := &Adventure{
		ID:           uuid.New(),
		ScenarioID:   s.ID,
		Title:        title,
		Plot:         s.Plot,
		StoryCards:   append([]scenario.StoryCard(nil), s.StoryCards...),
		InitialScene: initial,
		Scene:        initial.Clone(),
		Characters:   SeedCharacters(s.StoryCards),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	return adv
}

// SeedCharacters builds the initial character states for a card set: one
// empty state per character or PC card. Replay after undo rebuilds from the
// same function, so it must stay deterministic.
func SeedCharacters(cards []scenario.StoryCard) map[string]*CharacterState {
	out := make(map[string]*CharacterState)
	for _, c := range cards {
		if !c.Type.IsCharacter() {
			continue
		}
		cs := NewCharacterState(c.Name)
		cs.IsPC = c.Type == scenario.CardPC
		out[cs.Name] = cs
	}
	return out
}

// Character returns the state for a name, matched case-insensitively.
func (a *Adventure) Character(name string) *CharacterState {
	if cs, ok := a.Characters[CanonicalName(name)]; ok {
		return cs
	}
	for _, cs := range a.Characters {
		if SameName(cs.Name, name) {
			return cs
		}
	}
	return nil
}

// EnsureCharacter returns the state for a name, creating an empty NPC state
// if the character was introduced mid-story without a card.
func (a *Adventure) EnsureCharacter(name string) *CharacterState {
	if cs := a.Character(name); cs != nil {
		return cs
	}
	cs := NewCharacterState(name)
	if a.Characters == nil {
		a.Characters = make(map[string]*CharacterState)
	}
	a.Characters[cs.Name] = cs
	return cs
}

// IsPC reports whether the named character is player controlled, checking
// state first and falling back to the card set.
func (a *Adventure) IsPC(name string) bool {
	if cs := a.Character(name); cs != nil {
		return cs.IsPC
	}
	for _, c := range a.StoryCards {
		if c.Type == scenario.CardPC && SameName(c.Name, name) {
			return true
		}
	}
	return false
}

// FindCard returns the adventure's copy of the named card, if any.
func (a *Adventure) FindCard(name string) *scenario.StoryCard {
	for i := range a.StoryCards {
		if SameName(a.StoryCards[i].Name, name) {
			return &a.StoryCards[i]
		}
	}
	return nil
}
