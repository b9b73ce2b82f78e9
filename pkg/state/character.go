package state

import (
	"fmt"
	"strings"
)

// InventoryItem is one stack of a carried item. Quantity is always positive;
// a stack that reaches zero is removed from the inventory.
type InventoryItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Relationship is one character's view of another.
type Relationship struct {
	Attitude string `json:"attitude,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CharacterState is the per-adventure mutable record of one character.
// PersonalityTraits, Values, Fears and SpeechStyle define the character's
// voice and never change after creation; everything else mutates as the
// story unfolds. Stats is a schema-light bag of numeric values for game-like
// scenarios and is validated for presence only.
type CharacterState struct {
	Name string `json:"name"`
	IsPC bool   `json:"is_pc,omitempty"`

	PersonalityTraits []string `json:"personality_traits,omitempty"`
	Values            []string `json:"values,omitempty"`
	Fears             []string `json:"fears,omitempty"`
	SpeechStyle       string   `json:"speech_style,omitempty"`

	CurrentMood   string   `json:"current_mood,omitempty"`
	CurrentGoal   string   `json:"current_goal,omitempty"`
	LongTermGoals []string `json:"long_term_goals,omitempty"`

	Inventory []InventoryItem `json:"inventory,omitempty"`
	Equipped  []string        `json:"equipped,omitempty"`

	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Stats         map[string]float64      `json:"stats,omitempty"`
}

// NewCharacterState creates an empty state for a character introduced
// mid-story, with no personality defined yet.
func NewCharacterState(name string) *CharacterState {
	return &CharacterState{
		Name:          CanonicalName(name),
		Relationships: make(map[string]Relationship),
	}
}

// AddItem adds quantity of an item, merging with an existing stack by name.
func (cs *CharacterState) AddItem(name, description string, quantity int) {
	if quantity <= 0 {
		return
	}
	for i := range cs.Inventory {
		if SameName(cs.Inventory[i].Name, name) {
			cs.Inventory[i].Quantity += quantity
			if description != "" && cs.Inventory[i].Description == "" {
				cs.Inventory[i].Description = description
			}
			return
		}
	}
	cs.Inventory = append(cs.Inventory, InventoryItem{Name: name, Description: description, Quantity: quantity})
}

// RemoveItem removes quantity of an item. It fails if the character does not
// hold enough. Stacks that reach zero are dropped, and dropped items are
// unequipped.
func (cs *CharacterState) RemoveItem(name string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	for i := range cs.Inventory {
		if !SameName(cs.Inventory[i].Name, name) {
			continue
		}
		if cs.Inventory[i].Quantity < quantity {
			return fmt.Errorf("%s has %d of %q, cannot remove %d", cs.Name, cs.Inventory[i].Quantity, name, quantity)
		}
		cs.Inventory[i].Quantity -= quantity
		if cs.Inventory[i].Quantity == 0 {
			cs.Inventory = append(cs.Inventory[:i], cs.Inventory[i+1:]...)
			cs.Unequip(name)
		}
		return nil
	}
	return fmt.Errorf("%s does not hold %q", cs.Name, name)
}

// HasItem reports whether the character holds at least one of the item.
func (cs *CharacterState) HasItem(name string) bool {
	for _, item := range cs.Inventory {
		if SameName(item.Name, name) {
			return true
		}
	}
	return false
}

// Equip marks a held item as equipped. Equipping an item that is not in the
// inventory is an error; Equipped stays a subset of inventory names.
func (cs *CharacterState) Equip(name string) error {
	if !cs.HasItem(name) {
		return fmt.Errorf("%s cannot equip %q: not in inventory", cs.Name, name)
	}
	for _, equipped := range cs.Equipped {
		if SameName(equipped, name) {
			return nil
		}
	}
	cs.Equipped = append(cs.Equipped, name)
	return nil
}

// Unequip removes an item from the equipped list if present.
func (cs *CharacterState) Unequip(name string) {
	for i, equipped := range cs.Equipped {
		if SameName(equipped, name) {
			cs.Equipped = append(cs.Equipped[:i], cs.Equipped[i+1:]...)
			return
		}
	}
}

// TransferItem moves quantity of an item from this character to another.
// The transfer is all-or-nothing.
func (cs *CharacterState) TransferItem(to *CharacterState, name string, quantity int) error {
	var desc string
	for _, item := range cs.Inventory {
		if SameName(item.Name, name) {
			desc = item.Description
			break
		}
	}
	if err := cs.RemoveItem(name, quantity); err != nil {
		return err
	}
	to.AddItem(name, desc, quantity)
	return nil
}

// SetRelationship records or replaces this character's view of another.
func (cs *CharacterState) SetRelationship(other, attitude, notes string) {
	if cs.Relationships == nil {
		cs.Relationships = make(map[string]Relationship)
	}
	cs.Relationships[CanonicalName(other)] = Relationship{Attitude: attitude, Notes: notes}
}

// DescribePersonality renders the immutable voice definition as prompt context.
func (cs *CharacterState) DescribePersonality() string {
	var parts []string
	if len(cs.PersonalityTraits) > 0 {
		parts = append(parts, "Traits: "+strings.Join(cs.PersonalityTraits, ", "))
	}
	if len(cs.Values) > 0 {
		parts = append(parts, "Values: "+strings.Join(cs.Values, ", "))
	}
	if len(cs.Fears) > 0 {
		parts = append(parts, "Fears: "+strings.Join(cs.Fears, ", "))
	}
	if cs.SpeechStyle != "" {
		parts = append(parts, "Speech style: "+cs.SpeechStyle)
	}
	return strings.Join(parts, "; ")
}

// DescribeState renders the mutable state as prompt context.
func (cs *CharacterState) DescribeState() string {
	var parts []string
	if cs.CurrentMood != "" {
		parts = append(parts, "Mood: "+cs.CurrentMood)
	}
	if cs.CurrentGoal != "" {
		parts = append(parts, "Goal: "+cs.CurrentGoal)
	}
	if len(cs.Equipped) > 0 {
		parts = append(parts, "Equipped: "+strings.Join(cs.Equipped, ", "))
	}
	if len(cs.Inventory) > 0 {
		names := make([]string, 0, len(cs.Inventory))
		for _, item := range cs.Inventory {
			if item.Quantity > 1 {
				names = append(names, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
			} else {
				names = append(names, item.Name)
			}
		}
		parts = append(parts, "Carrying: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

// Clone returns a deep copy of the character state.
func (cs *CharacterState) Clone() *CharacterState {
	out := *cs
	out.PersonalityTraits = append([]string(nil), cs.PersonalityTraits...)
	out.Values = append([]string(nil), cs.Values...)
	out.Fears = append([]string(nil), cs.Fears...)
	out.LongTermGoals = append([]string(nil), cs.LongTermGoals...)
	out.Inventory = append([]InventoryItem(nil), cs.Inventory...)
	out.Equipped = append([]string(nil), cs.Equipped...)
	if cs.Relationships != nil {
		out.Relationships = make(map[string]Relationship, len(cs.Relationships))
		for k, v := range cs.Relationships {
			out.Relationships[k] = v
		}
	}
	if cs.Stats != nil {
		out.Stats = make(map[string]float64, len(cs.Stats))
		for k, v := range cs.Stats {
			out.Stats[k] = v
		}
	}
	return &out
}

// CharacterPatch is a sparse update to one character's mutable fields.
// Only present fields apply; voice-defining fields cannot be patched.
type CharacterPatch struct {
	CurrentMood   string             `json:"current_mood,omitempty"`
	CurrentGoal   string             `json:"current_goal,omitempty"`
	LongTermGoals []string           `json:"long_term_goals,omitempty"`
	AddItems      []InventoryItem    `json:"add_items,omitempty"`
	RemoveItems   []InventoryItem    `json:"remove_items,omitempty"`
	Equip         []string           `json:"equip,omitempty"`
	Unequip       []string           `json:"unequip,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Stats         map[string]float64 `json:"stats,omitempty"`
}

// IsEmpty reports whether applying the patch would change nothing.
func (p *CharacterPatch) IsEmpty() bool {
	return p == nil || (p.CurrentMood == "" &&
		p.CurrentGoal == "" &&
		len(p.LongTermGoals) == 0 &&
		len(p.AddItems) == 0 &&
		len(p.RemoveItems) == 0 &&
		len(p.Equip) == 0 &&
		len(p.Unequip) == 0 &&
		len(p.Relationships) == 0 &&
		len(p.Stats) == 0)
}

// Apply merges the patch into the character state. Item removals that exceed
// what the character holds are clamped rather than failed; generated deltas
// are advisory, not transactional.
func (cs *CharacterState) Apply(p *CharacterPatch) {
	if p == nil {
		return
	}
	if p.CurrentMood != "" {
		cs.CurrentMood = p.CurrentMood
	}
	if p.CurrentGoal != "" {
		cs.CurrentGoal = p.CurrentGoal
	}
	if len(p.LongTermGoals) > 0 {
		cs.LongTermGoals = append([]string(nil), p.LongTermGoals...)
	}
	for _, item := range p.AddItems {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		cs.AddItem(item.Name, item.Description, qty)
	}
	for _, item := range p.RemoveItems {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		for qty > 0 && cs.HasItem(item.Name) {
			if err := cs.RemoveItem(item.Name, 1); err != nil {
				break
			}
			qty--
		}
	}
	for _, name := range p.Equip {
		_ = cs.Equip(name) // ignore equips of items not held
	}
	for _, name := range p.Unequip {
		cs.Unequip(name)
	}
	for other, rel := range p.Relationships {
		cs.SetRelationship(other, rel.Attitude, rel.Notes)
	}
	for k, v := range p.Stats {
		if cs.Stats == nil {
			cs.Stats = make(map[string]float64)
		}
		cs.Stats[k] = v
	}
}
