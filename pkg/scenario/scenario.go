package scenario

import (
	"fmt"
	"strings"
)

// ScenarioStatus is the authoring lifecycle state of a scenario.
type ScenarioStatus string

const (
	StatusDraft       ScenarioStatus = "draft"
	StatusPublished   ScenarioStatus = "published"
	StatusUnavailable ScenarioStatus = "unavailable"
)

// CardType classifies a story card. Character cards are AI controlled;
// PC cards are player controlled and never receive generated dialogue.
type CardType string

const (
	CardCharacter CardType = "character"
	CardPC        CardType = "pc"
	CardLocation  CardType = "location"
	CardItem      CardType = "item"
	CardClass     CardType = "class"
	CardRace      CardType = "race"
	CardFaction   CardType = "faction"
	CardCustom    CardType = "custom"
)

// IsCharacter reports whether the card describes a character of any kind,
// player controlled or not.
func (t CardType) IsCharacter() bool {
	return t == CardCharacter || t == CardPC
}

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case CardCharacter, CardPC, CardLocation, CardItem, CardClass, CardRace, CardFaction, CardCustom:
		return true
	}
	return false
}

// StoryCard is a reusable lore fragment. When one of its triggers appears in
// recent narrative text, the card's entry is injected into generation context.
type StoryCard struct {
	Type     CardType `json:"type" yaml:"type"`
	Name     string   `json:"name" yaml:"name"`
	Entry    string   `json:"entry" yaml:"entry"`
	Triggers []string `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Notes    string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Plot defines the initial framing and standing instructions of an adventure.
type Plot struct {
	Story          string `json:"story,omitempty" yaml:"story,omitempty"`
	AIInstructions string `json:"ai_instructions,omitempty" yaml:"ai_instructions,omitempty"`
	StorySummary   string `json:"story_summary,omitempty" yaml:"story_summary,omitempty"`
	PlotEssentials string `json:"plot_essentials,omitempty" yaml:"plot_essentials,omitempty"`
	AuthorsNote    string `json:"authors_note,omitempty" yaml:"authors_note,omitempty"`
	ThirdPerson    bool   `json:"third_person,omitempty" yaml:"third_person,omitempty"`
}

// Scenario is the immutable template an adventure is started from. Adventures
// copy the story cards at creation so they can diverge from the template.
type Scenario struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Status      ScenarioStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Plot        Plot           `json:"plot" yaml:"plot"`
	StoryCards  []StoryCard    `json:"story_cards,omitempty" yaml:"story_cards,omitempty"`

	// Opening scene seed. Optional; the world call fills in anything missing.
	OpeningLocation  string   `json:"opening_location,omitempty" yaml:"opening_location,omitempty"`
	OpeningSituation string   `json:"opening_situation,omitempty" yaml:"opening_situation,omitempty"`
	OpeningPresent   []string `json:"opening_present,omitempty" yaml:"opening_present,omitempty"`
}

// Validate checks the scenario for problems that would break play.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("scenario title is required")
	}
	if s.Status != "" && s.Status != StatusDraft && s.Status != StatusPublished && s.Status != StatusUnavailable {
		return fmt.Errorf("invalid scenario status: %q", s.Status)
	}
	names := make(map[string]bool, len(s.StoryCards))
	pcCount := 0
	for i := range s.StoryCards {
		c := &s.StoryCards[i]
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("story card %d has no name", i)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("story card %q has invalid type %q", c.Name, c.Type)
		}
		key := strings.ToLower(c.Name)
		if names[key] {
			return fmt.Errorf("duplicate story card name: %q", c.Name)
		}
		names[key] = true
		if c.Type == CardPC {
			pcCount++
		}
	}
	if pcCount == 0 {
		return fmt.Errorf("scenario needs at least one pc card")
	}
	for _, name := range s.OpeningPresent {
		if !names[strings.ToLower(name)] {
			return fmt.Errorf("opening_present names unknown card %q", name)
		}
	}
	return nil
}

// CharacterCards returns the cards describing characters, PCs included.
func (s *Scenario) CharacterCards() []StoryCard {
	var out []StoryCard
	for _, c := range s.StoryCards {
		if c.Type.IsCharacter() {
			out = append(out, c)
		}
	}
	return out
}

// PCNames returns the names of all player-controlled character cards.
func (s *Scenario) PCNames() []string {
	var out []string
	for _, c := range s.StoryCards {
		if c.Type == CardPC {
			out = append(out, c.Name)
		}
	}
	return out
}

// FindCard returns the card with the given name, matched case-insensitively.
func (s *Scenario) FindCard(name string) *StoryCard {
	for i := range s.StoryCards {
		if strings.EqualFold(s.StoryCards[i].Name, name) {
			return &s.StoryCards[i]
		}
	}
	return nil
}
