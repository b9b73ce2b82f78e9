package scenario

import "strings"

// MatchOptions controls which cards are eligible for trigger matching.
type MatchOptions struct {
	// ActingPC is excluded from matching entirely; the player speaks for
	// themselves and needs no lore injection.
	ActingPC string

	// Present is the set of character names already in the scene. Character
	// cards for present characters are not re-injected as context text, but
	// remain eligible for voice dispatch, so they are reported separately.
	Present map[string]bool
}

// MatchResult separates cards whose entries should be injected as context
// from character cards that matched while already present in the scene.
type MatchResult struct {
	Inject         []StoryCard
	AlreadyPresent []StoryCard
}

// MatchCards scans a window of recent narrative text and returns the cards
// whose trigger keywords appear in it. Matching is case-insensitive substring,
// independent per card; a card with no triggers never matches. Pure function
// of its inputs.
func MatchCards(window string, cards []StoryCard, opts MatchOptions) MatchResult {
	var res MatchResult
	lower := strings.ToLower(window)

	for _, card := range cards {
		if opts.ActingPC != "" && strings.EqualFold(card.Name, opts.ActingPC) {
			continue
		}
		if !cardMatches(lower, card) {
			continue
		}
		if card.Type.IsCharacter() && opts.Present != nil && presentHas(opts.Present, card.Name) {
			res.AlreadyPresent = append(res.AlreadyPresent, card)
			continue
		}
		res.Inject = append(res.Inject, card)
	}
	return res
}

func cardMatches(lowerWindow string, card StoryCard) bool {
	for _, trigger := range card.Triggers {
		t := strings.ToLower(strings.TrimSpace(trigger))
		if t == "" {
			continue
		}
		if strings.Contains(lowerWindow, t) {
			return true
		}
	}
	return false
}

func presentHas(present map[string]bool, name string) bool {
	if present[name] {
		return true
	}
	for k := range present {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
