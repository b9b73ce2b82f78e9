package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lorebound/adventure-engine/pkg/chat"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// DefaultHistoryLimit bounds how many recent events are replayed into the
// world-decision context.
const DefaultHistoryLimit = 5

// Builder constructs the message array for a world-decision call using a
// fluent interface. It separates prompt assembly from turn processing.
type Builder struct {
	adventure    *state.Adventure
	events       []state.Event
	cards        []scenario.StoryCard
	actor        string
	actionType   state.ActionType
	playerInput  string
	historyLimit int
	strict       bool
}

// New creates a world-decision prompt builder with default settings.
func New() *Builder {
	return &Builder{historyLimit: DefaultHistoryLimit}
}

// WithAdventure sets the adventure whose plot, scene and characters frame the turn.
func (b *Builder) WithAdventure(adv *state.Adventure) *Builder {
	b.adventure = adv
	return b
}

// WithRecentEvents sets the committed events available as history context.
func (b *Builder) WithRecentEvents(events []state.Event) *Builder {
	b.events = events
	return b
}

// WithTriggeredCards sets the lore entries whose triggers matched this turn.
func (b *Builder) WithTriggeredCards(cards []scenario.StoryCard) *Builder {
	b.cards = cards
	return b
}

// WithPlayerAction sets the acting character and their raw input.
func (b *Builder) WithPlayerAction(actor string, t state.ActionType, input string) *Builder {
	b.actor = actor
	b.actionType = t
	b.playerInput = input
	return b
}

// WithHistoryLimit overrides the history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Strict appends the retry instruction for a second attempt after a parse failure.
func (b *Builder) Strict() *Builder {
	b.strict = true
	return b
}

// Build assembles the final message array for the world-decision call.
func (b *Builder) Build() ([]chat.Message, error) {
	if b.adventure == nil {
		return nil, fmt.Errorf("adventure is required")
	}
	if b.playerInput == "" {
		return nil, fmt.Errorf("player action is required")
	}

	messages := []chat.Message{{
		Role:    chat.RoleSystem,
		Content: b.systemPrompt(),
	}}

	if ctx := b.contextPrompt(); ctx != "" {
		messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: ctx})
	}

	messages = append(messages, chat.Message{
		Role:    chat.RoleUser,
		Content: b.actionPrompt(),
	})

	if b.strict {
		messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: StrictRetryPrompt})
	}

	return messages, nil
}

func (b *Builder) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(WorldDecisionPrompt)

	plot := b.adventure.Plot
	if plot.AIInstructions != "" {
		sb.WriteString("\n\nScenario instructions:\n" + plot.AIInstructions)
	}
	if plot.AuthorsNote != "" {
		sb.WriteString("\n\nAuthor's note: " + plot.AuthorsNote)
	}
	if plot.ThirdPerson {
		sb.WriteString("\n\nNarrate in the third person.")
	}
	return sb.String()
}

func (b *Builder) contextPrompt() string {
	var sections []string

	if b.adventure.Plot.PlotEssentials != "" {
		sections = append(sections, "Plot essentials:\n"+b.adventure.Plot.PlotEssentials)
	}
	if b.adventure.Plot.StorySummary != "" {
		sections = append(sections, "Story so far:\n"+b.adventure.Plot.StorySummary)
	}

	if scene := b.adventure.Scene.Describe(); scene != "" {
		sections = append(sections, "Current scene:\n"+scene)
	}

	if summary := b.presentCharacters(); summary != "" {
		sections = append(sections, "Characters present:\n"+summary)
	}

	if len(b.cards) > 0 {
		var sb strings.Builder
		sb.WriteString("Relevant lore:")
		for _, card := range b.cards {
			sb.WriteString(fmt.Sprintf("\n- %s (%s): %s", card.Name, card.Type, card.Entry))
		}
		sections = append(sections, sb.String())
	}

	if history := b.historyWindow(); history != "" {
		sections = append(sections, "Recent events:\n"+history)
	}

	return strings.Join(sections, "\n\n")
}

func (b *Builder) presentCharacters() string {
	var lines []string
	for _, name := range b.adventure.Scene.CharactersPresent {
		cs := b.adventure.Character(name)
		if cs == nil {
			lines = append(lines, "- "+name)
			continue
		}
		line := "- " + cs.Name
		if cs.IsPC {
			line += " (player character)"
		}
		if desc := cs.DescribeState(); desc != "" {
			line += ": " + desc
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) historyWindow() string {
	events := b.events
	if len(events) > b.historyLimit {
		events = events[len(events)-b.historyLimit:]
	}
	var parts []string
	for i := range events {
		e := &events[i]
		parts = append(parts, e.PlayerText())
		if text := e.NarrativeText(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func (b *Builder) actionPrompt() string {
	e := state.Event{ActorName: b.actor, ActionType: b.actionType, PlayerInput: b.playerInput}
	return fmt.Sprintf("Player action (%s):\n%s", b.actionType, e.PlayerText())
}

// VoiceBuilder constructs the message array for a single character voice call.
type VoiceBuilder struct {
	character *state.CharacterState
	card      *scenario.StoryCard
	scene     *state.Scene
	narration string
	context   string
	mood      string
	actor     string
	input     string
}

// NewVoice creates a character-voice prompt builder.
func NewVoice() *VoiceBuilder {
	return &VoiceBuilder{}
}

// WithCharacter sets the speaking character's state and optional lore card.
func (v *VoiceBuilder) WithCharacter(cs *state.CharacterState, card *scenario.StoryCard) *VoiceBuilder {
	v.character = cs
	v.card = card
	return v
}

// WithScene sets the post-update scene the character is reacting to.
func (v *VoiceBuilder) WithScene(scene *state.Scene) *VoiceBuilder {
	v.scene = scene
	return v
}

// WithNarration sets the finalized narration from the world-decision call.
func (v *VoiceBuilder) WithNarration(narration string) *VoiceBuilder {
	v.narration = narration
	return v
}

// WithDirection sets the director's response context and suggested mood.
func (v *VoiceBuilder) WithDirection(context, mood string) *VoiceBuilder {
	v.context = context
	v.mood = mood
	return v
}

// WithPlayerAction sets the player action being reacted to.
func (v *VoiceBuilder) WithPlayerAction(actor, input string) *VoiceBuilder {
	v.actor = actor
	v.input = input
	return v
}

// Build assembles the final message array for the character-voice call.
func (v *VoiceBuilder) Build() ([]chat.Message, error) {
	if v.character == nil {
		return nil, fmt.Errorf("character is required")
	}

	var sb strings.Builder
	sb.WriteString("Character: " + v.character.Name)
	if v.card != nil {
		if v.card.Entry != "" {
			sb.WriteString("\n\nDescription:\n" + v.card.Entry)
		}
		if v.card.Notes != "" {
			sb.WriteString("\n\nNotes:\n" + v.card.Notes)
		}
	}
	if p := v.character.DescribePersonality(); p != "" {
		sb.WriteString("\n\nPersonality: " + p)
	}
	if s := v.character.DescribeState(); s != "" {
		sb.WriteString("\nCurrent state: " + s)
	}
	if len(v.character.Relationships) > 0 {
		sb.WriteString("\nRelationships:")
		others := make([]string, 0, len(v.character.Relationships))
		for other := range v.character.Relationships {
			others = append(others, other)
		}
		sort.Strings(others)
		for _, other := range others {
			rel := v.character.Relationships[other]
			line := "\n- " + other
			if rel.Attitude != "" {
				line += ": " + rel.Attitude
			}
			if rel.Notes != "" {
				line += " (" + rel.Notes + ")"
			}
			sb.WriteString(line)
		}
	}
	if v.scene != nil {
		if desc := v.scene.Describe(); desc != "" {
			sb.WriteString("\n\nScene:\n" + desc)
		}
	}
	if v.mood != "" {
		sb.WriteString("\n\nSuggested mood: " + v.mood)
	}

	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: CharacterVoicePrompt},
		{Role: chat.RoleSystem, Content: sb.String()},
	}

	var ub strings.Builder
	if v.actor != "" && v.input != "" {
		ub.WriteString(fmt.Sprintf("%s: %s", v.actor, v.input))
	}
	if v.narration != "" {
		if ub.Len() > 0 {
			ub.WriteString("\n\n")
		}
		ub.WriteString("What just happened: " + v.narration)
	}
	if v.context != "" {
		if ub.Len() > 0 {
			ub.WriteString("\n\n")
		}
		ub.WriteString("Direction: " + v.context)
	}
	if ub.Len() == 0 {
		ub.WriteString("React to the current scene.")
	}
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: ub.String()})

	return messages, nil
}

// SummaryMessages assembles the message array for a rolling-summary call.
func SummaryMessages(current string, events []state.Event) []chat.Message {
	if current == "" {
		current = "The adventure has just begun."
	}

	var sb strings.Builder
	sb.WriteString("Current summary:\n" + current)
	sb.WriteString("\n\nNew events:")
	for i := range events {
		e := &events[i]
		sb.WriteString("\n" + e.PlayerText())
		if text := e.NarrativeText(); text != "" {
			sb.WriteString("\n" + text)
		}
	}

	return []chat.Message{
		{Role: chat.RoleSystem, Content: StorySummaryPrompt},
		{Role: chat.RoleUser, Content: sb.String()},
	}
}

// NPCCreationMessages assembles the message array for an NPC-generation call.
func NPCCreationMessages(s *scenario.Scenario, creationContext string) []chat.Message {
	var sb strings.Builder
	if s.Description != "" {
		sb.WriteString("Setting:\n" + s.Description + "\n\n")
	}
	if s.Plot.Story != "" {
		sb.WriteString("Story:\n" + s.Plot.Story + "\n\n")
	}
	if s.Plot.StorySummary != "" {
		sb.WriteString("Story so far:\n" + s.Plot.StorySummary + "\n\n")
	}

	existing := "None yet"
	if cards := s.CharacterCards(); len(cards) > 0 {
		names := make([]string, 0, len(cards))
		for _, c := range cards {
			names = append(names, c.Name)
		}
		existing = strings.Join(names, ", ")
	}
	sb.WriteString("Existing characters: " + existing)
	sb.WriteString("\n\nCreation request:\n" + creationContext)

	return []chat.Message{
		{Role: chat.RoleSystem, Content: NPCCreationPrompt},
		{Role: chat.RoleUser, Content: sb.String()},
	}
}
