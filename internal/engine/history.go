package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/pkg/state"
)

// applyEvent applies one committed event's deltas to the adventure. This is
// the only place event deltas touch state; live turns and undo replay both
// go through it, so replaying the log always reproduces the same state.
func applyEvent(adv *state.Adventure, event *state.Event) {
	if event.SceneUpdate != nil {
		// Characters entering the scene get a state record immediately, even
		// when they were invented mid-story and have no card.
		for _, name := range event.SceneUpdate.CharactersEnter {
			adv.EnsureCharacter(name)
		}
		adv.Scene.Apply(event.SceneUpdate)
	}
	for name, patch := range event.CharacterUpdates {
		adv.EnsureCharacter(name).Apply(patch)
	}
}

// replay rebuilds an adventure's scene and character states from its initial
// snapshot and an event prefix.
func replay(adv *state.Adventure, events []state.Event) {
	adv.Scene = adv.InitialScene.Clone()
	adv.Characters = state.SeedCharacters(adv.StoryCards)
	for i := range events {
		applyEvent(adv, &events[i])
	}
	adv.NextSequence = len(events)
}

// Undo removes the most recent event and rewinds scene and character state by
// replaying the remaining log from the initial snapshot. Returns the removed
// event. Undoing with an empty log returns ErrNothingToUndo.
func (e *Engine) Undo(ctx context.Context, adventureID uuid.UUID) (*state.Event, *state.Adventure, error) {
	m := e.lock(adventureID)
	m.Lock()
	defer m.Unlock()

	adv, err := e.store.LoadAdventure(ctx, adventureID)
	if err != nil {
		return nil, nil, err
	}

	count, err := e.store.CountEvents(ctx, adventureID)
	if err != nil {
		return nil, nil, err
	}
	if count == 0 {
		return nil, nil, ErrNothingToUndo
	}

	events, err := e.store.ListEvents(ctx, adventureID, 0, count-1)
	if err != nil {
		return nil, nil, err
	}

	removed := events[len(events)-1]
	replay(adv, events[:len(events)-1])
	adv.UpdatedAt = time.Now().UTC()

	if err := e.store.RewriteLog(ctx, adv, count-1); err != nil {
		return nil, nil, err
	}

	e.logger.Info("turn undone", "adventure_id", adv.ID, "sequence", removed.Sequence)
	return &removed, adv, nil
}

// History returns the committed events for an adventure, oldest first.
func (e *Engine) History(ctx context.Context, adventureID uuid.UUID) ([]state.Event, error) {
	return e.store.ListEvents(ctx, adventureID, 0, -1)
}
