package engine

import (
	"context"
	"sync"

	"github.com/lorebound/adventure-engine/pkg/prompts"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// dispatchVoices runs one character-voice call per responder. Calls run
// concurrently but results keep the declaration order of the responses, so
// turn output is deterministic regardless of completion order. A failed
// voice is omitted; the others still land.
func (e *Engine) dispatchVoices(ctx context.Context, adv *state.Adventure, scene *state.Scene, decision *state.WorldDecision, responders []state.NPCResponse, req *TurnRequest) []state.CharacterAction {
	if len(responders) == 0 {
		return nil
	}

	// Character states resolve up front; the goroutines below must not touch
	// the adventure's maps.
	speakers := make([]*state.CharacterState, len(responders))
	for i, r := range responders {
		cs := adv.EnsureCharacter(r.CharacterName).Clone()
		if r.SuggestedMood != "" {
			cs.CurrentMood = r.SuggestedMood
		}
		speakers[i] = cs
	}

	results := make([]*state.CharacterAction, len(responders))
	var wg sync.WaitGroup

	for i, r := range responders {
		wg.Add(1)
		go func(i int, r state.NPCResponse, cs *state.CharacterState) {
			defer wg.Done()

			messages, err := prompts.NewVoice().
				WithCharacter(cs, adv.FindCard(r.CharacterName)).
				WithScene(scene).
				WithNarration(decision.Narration).
				WithDirection(r.ResponseContext, r.SuggestedMood).
				WithPlayerAction(req.ActorName, req.Input).
				Build()
			if err != nil {
				e.logger.Warn("voice prompt build failed", "adventure_id", adv.ID, "character", r.CharacterName, "error", err)
				return
			}

			callCtx, cancel := context.WithTimeout(ctx, e.voiceTimeout)
			defer cancel()

			action, err := e.llm.CharacterVoice(callCtx, messages)
			if err != nil {
				e.logger.Warn("voice call failed, omitting character", "adventure_id", adv.ID, "character", r.CharacterName, "error", err)
				return
			}
			action.CharacterName = cs.Name
			results[i] = action
		}(i, r, speakers[i])
	}
	wg.Wait()

	actions := make([]state.CharacterAction, 0, len(responders))
	for _, a := range results {
		if a != nil {
			actions = append(actions, *a)
		}
	}
	return actions
}
