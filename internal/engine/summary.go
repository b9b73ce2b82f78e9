package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/pkg/prompts"
	"github.com/lorebound/adventure-engine/pkg/scenario"
)

// summaryWindow is how many recent events feed one summary update.
const summaryWindow = 10

// Summarize folds recent events into the adventure's rolling story summary
// and persists it. The summary feeds world-decision context, so coherence
// reaches past the recent-history window. With no events committed the
// current summary is returned unchanged.
func (e *Engine) Summarize(ctx context.Context, adventureID uuid.UUID) (string, error) {
	m := e.lock(adventureID)
	m.Lock()
	defer m.Unlock()

	adv, err := e.store.LoadAdventure(ctx, adventureID)
	if err != nil {
		return "", err
	}

	recent, err := e.store.ListEvents(ctx, adventureID, -summaryWindow, -1)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return adv.Plot.StorySummary, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	summary, err := e.llm.StorySummary(callCtx, prompts.SummaryMessages(adv.Plot.StorySummary, recent))
	if err != nil {
		return "", fmt.Errorf("story summary failed: %w", err)
	}

	adv.Plot.StorySummary = summary
	adv.UpdatedAt = time.Now().UTC()
	if err := e.store.SaveAdventure(ctx, adv); err != nil {
		return "", err
	}

	e.logger.Info("story summary updated", "adventure_id", adv.ID, "events", len(recent))
	return summary, nil
}

// GenerateNPC creates a new character card fitting a scenario's setting and
// existing cast. The card is returned for review; it is not written into the
// scenario.
func (e *Engine) GenerateNPC(ctx context.Context, scenarioID, creationContext string) (*scenario.StoryCard, error) {
	s, err := e.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	card, err := e.llm.GenerateNPC(callCtx, prompts.NPCCreationMessages(s, creationContext))
	if err != nil {
		return nil, fmt.Errorf("npc generation failed: %w", err)
	}
	if s.FindCard(card.Name) != nil {
		return nil, fmt.Errorf("generated character %q collides with an existing card", card.Name)
	}

	e.logger.Info("npc generated", "scenario_id", s.ID, "name", card.Name)
	return card, nil
}
