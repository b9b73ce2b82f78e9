package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory(t *testing.T) {
	t.Run("add merges stacks by name", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.AddItem("ale", "a frothy pint", 1)
		cs.AddItem("Ale", "", 2)
		require.Len(t, cs.Inventory, 1)
		assert.Equal(t, 3, cs.Inventory[0].Quantity)
		assert.Equal(t, "a frothy pint", cs.Inventory[0].Description)
	})

	t.Run("remove drops empty stacks and unequips", func(t *testing.T) {
		cs := NewCharacterState("Aldric")
		cs.AddItem("cutlass", "", 1)
		require.NoError(t, cs.Equip("cutlass"))

		require.NoError(t, cs.RemoveItem("cutlass", 1))
		assert.Empty(t, cs.Inventory)
		assert.Empty(t, cs.Equipped)
	})

	t.Run("remove more than held fails", func(t *testing.T) {
		cs := NewCharacterState("Aldric")
		cs.AddItem("coin", "", 2)
		assert.Error(t, cs.RemoveItem("coin", 3))
		assert.Error(t, cs.RemoveItem("lantern", 1))
		assert.Equal(t, 2, cs.Inventory[0].Quantity)
	})

	t.Run("equip requires the item", func(t *testing.T) {
		cs := NewCharacterState("Aldric")
		assert.Error(t, cs.Equip("cutlass"))

		cs.AddItem("cutlass", "", 1)
		require.NoError(t, cs.Equip("cutlass"))
		require.NoError(t, cs.Equip("cutlass"))
		assert.Equal(t, []string{"cutlass"}, cs.Equipped)
	})

	t.Run("transfer is all-or-nothing", func(t *testing.T) {
		from := NewCharacterState("Greta")
		to := NewCharacterState("Aldric")
		from.AddItem("brass key", "opens the office", 1)

		assert.Error(t, from.TransferItem(to, "brass key", 2))
		assert.True(t, from.HasItem("brass key"))
		assert.False(t, to.HasItem("brass key"))

		require.NoError(t, from.TransferItem(to, "brass key", 1))
		assert.False(t, from.HasItem("brass key"))
		require.True(t, to.HasItem("brass key"))
		assert.Equal(t, "opens the office", to.Inventory[0].Description)
	})
}

func TestCharacterPatchApply(t *testing.T) {
	t.Run("mutable fields only", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.SpeechStyle = "clipped, wry"

		cs.Apply(&CharacterPatch{
			CurrentMood: "suspicious",
			CurrentGoal: "find out who broke the lock",
			AddItems:    []InventoryItem{{Name: "ledger"}},
		})

		assert.Equal(t, "suspicious", cs.CurrentMood)
		assert.Equal(t, "find out who broke the lock", cs.CurrentGoal)
		assert.True(t, cs.HasItem("ledger"))
		assert.Equal(t, "clipped, wry", cs.SpeechStyle)
	})

	t.Run("zero quantity defaults to one", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.Apply(&CharacterPatch{AddItems: []InventoryItem{{Name: "mug"}}})
		require.Len(t, cs.Inventory, 1)
		assert.Equal(t, 1, cs.Inventory[0].Quantity)
	})

	t.Run("removals clamp instead of failing", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.AddItem("mug", "", 2)
		cs.Apply(&CharacterPatch{RemoveItems: []InventoryItem{{Name: "mug", Quantity: 5}, {Name: "ghost item"}}})
		assert.False(t, cs.HasItem("mug"))
	})

	t.Run("equip of unheld item is ignored", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.Apply(&CharacterPatch{Equip: []string{"halberd"}})
		assert.Empty(t, cs.Equipped)
	})

	t.Run("relationships and stats merge", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.Apply(&CharacterPatch{
			Relationships: map[string]Relationship{"aldric": {Attitude: "wary"}},
			Stats:         map[string]float64{"trust": 2},
		})
		rel, ok := cs.Relationships["Aldric"]
		require.True(t, ok)
		assert.Equal(t, "wary", rel.Attitude)
		assert.Equal(t, 2.0, cs.Stats["trust"])
	})

	t.Run("nil patch is a no-op", func(t *testing.T) {
		cs := NewCharacterState("Greta")
		cs.Apply(nil)
		assert.Empty(t, cs.CurrentMood)
	})
}

func TestCharacterClone(t *testing.T) {
	cs := NewCharacterState("Greta")
	cs.PersonalityTraits = []string{"shrewd"}
	cs.AddItem("ale", "", 1)
	cs.SetRelationship("Aldric", "wary", "")
	cs.Stats = map[string]float64{"trust": 1}

	c := cs.Clone()
	c.PersonalityTraits[0] = "gullible"
	c.AddItem("mug", "", 1)
	c.SetRelationship("Aldric", "warm", "")
	c.Stats["trust"] = 9

	assert.Equal(t, []string{"shrewd"}, cs.PersonalityTraits)
	assert.Len(t, cs.Inventory, 1)
	assert.Equal(t, "wary", cs.Relationships["Aldric"].Attitude)
	assert.Equal(t, 1.0, cs.Stats["trust"])
}
