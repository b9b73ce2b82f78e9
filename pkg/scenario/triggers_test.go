package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchCards() []StoryCard {
	return []StoryCard{
		{Type: CardPC, Name: "Aldric", Entry: "A retired watchman."},
		{Type: CardCharacter, Name: "Greta", Entry: "The tavern keeper.", Triggers: []string{"greta", "tavern keeper"}},
		{Type: CardCharacter, Name: "Bosun", Entry: "A scarred sailor.", Triggers: []string{"bosun", "sailor"}},
		{Type: CardLocation, Name: "Smugglers' Cave", Entry: "A sea cave below the cliffs.", Triggers: []string{"cave"}},
		{Type: CardItem, Name: "Brass Key", Entry: "Opens the harbormaster's office.", Triggers: []string{"brass key", " KEY "}},
	}
}

func TestMatchCards(t *testing.T) {
	t.Run("case-insensitive substring", func(t *testing.T) {
		res := MatchCards("I ask GRETA about the CAVE.", matchCards(), MatchOptions{})
		require.Len(t, res.Inject, 2)
		assert.Equal(t, "Greta", res.Inject[0].Name)
		assert.Equal(t, "Smugglers' Cave", res.Inject[1].Name)
	})

	t.Run("no triggers never matches", func(t *testing.T) {
		res := MatchCards("aldric walks in", matchCards(), MatchOptions{})
		assert.Empty(t, res.Inject)
		assert.Empty(t, res.AlreadyPresent)
	})

	t.Run("triggers are trimmed before matching", func(t *testing.T) {
		res := MatchCards("a small key glints in the sand", matchCards(), MatchOptions{})
		require.Len(t, res.Inject, 1)
		assert.Equal(t, "Brass Key", res.Inject[0].Name)
	})

	t.Run("acting pc excluded", func(t *testing.T) {
		cards := matchCards()
		cards[0].Triggers = []string{"watchman"}
		res := MatchCards("the old watchman nods", cards, MatchOptions{ActingPC: "aldric"})
		assert.Empty(t, res.Inject)
	})

	t.Run("present characters reported separately", func(t *testing.T) {
		res := MatchCards("greta pours ale while a sailor watches", matchCards(), MatchOptions{
			Present: map[string]bool{"Greta": true},
		})
		require.Len(t, res.Inject, 1)
		assert.Equal(t, "Bosun", res.Inject[0].Name)
		require.Len(t, res.AlreadyPresent, 1)
		assert.Equal(t, "Greta", res.AlreadyPresent[0].Name)
	})

	t.Run("presence check is case-insensitive", func(t *testing.T) {
		res := MatchCards("greta laughs", matchCards(), MatchOptions{
			Present: map[string]bool{"GRETA": true},
		})
		assert.Empty(t, res.Inject)
		require.Len(t, res.AlreadyPresent, 1)
	})

	t.Run("non-character cards inject even when named in scene", func(t *testing.T) {
		res := MatchCards("we reach the cave", matchCards(), MatchOptions{
			Present: map[string]bool{"Smugglers' Cave": true},
		})
		require.Len(t, res.Inject, 1)
		assert.Equal(t, "Smugglers' Cave", res.Inject[0].Name)
	})

	t.Run("empty window matches nothing", func(t *testing.T) {
		res := MatchCards("", matchCards(), MatchOptions{})
		assert.Empty(t, res.Inject)
	})
}
