package state

// NPCResponse is the orchestrator's instruction for one NPC voice call.
type NPCResponse struct {
	CharacterName   string `json:"character_name"`
	ShouldRespond   bool   `json:"should_respond"`
	ResponseContext string `json:"response_context,omitempty"`
	SuggestedMood   string `json:"suggested_mood,omitempty"`
}

// PCPrompt signals that a specific player character must supply the next
// input before the story can continue.
type PCPrompt struct {
	CharacterName string `json:"character_name"`
	Prompt        string `json:"prompt"`
}

// WorldDecision is the structured result of the world-decision call: a short
// narration, a sparse scene update, and the set of NPCs that should speak
// this turn. A compact delta is much faster for the model to produce than a
// full scene snapshot.
type WorldDecision struct {
	Narration        string       `json:"narration"`
	SceneUpdate      *ScenePatch  `json:"scene_update,omitempty"`
	NPCResponses     []NPCResponse `json:"npc_responses,omitempty"`
	PCPrompts        []PCPrompt    `json:"pc_prompts,omitempty"`
	AwaitingPCInput  bool          `json:"awaiting_pc_input,omitempty"`
	// CharacterUpdates carries optional state deltas the world call suggests
	// (mood shifts, items gained or lost), keyed by character name.
	CharacterUpdates map[string]*CharacterPatch `json:"character_updates,omitempty"`
}

// Responders returns the NPC responses flagged to speak, in declaration order.
func (d *WorldDecision) Responders() []NPCResponse {
	var out []NPCResponse
	for _, r := range d.NPCResponses {
		if r.ShouldRespond {
			out = append(out, r)
		}
	}
	return out
}
