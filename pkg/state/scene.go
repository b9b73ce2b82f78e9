package state

import (
	"sort"
	"strings"
)

// Scene is the current-turn snapshot of an adventure: where the action is,
// who is there, and what is going on. CharactersPresent is a cache of the
// cumulative enter/exit deltas of all committed events; it is fully derivable
// by replay.
type Scene struct {
	LocationName        string   `json:"location_name,omitempty"`
	LocationDescription string   `json:"location_description,omitempty"`
	CharactersPresent   []string `json:"characters_present,omitempty"`
	Situation           string   `json:"situation,omitempty"`
	Mood                string   `json:"mood,omitempty"`
	TimeOfDay           string   `json:"time_of_day,omitempty"`
	Weather             string   `json:"weather,omitempty"`
}

// ScenePatch is a sparse update to a Scene. Unset fields leave the scene
// unchanged; CharactersEnter and CharactersExit are additive and subtractive
// set operations on scene membership.
type ScenePatch struct {
	LocationName        string   `json:"location_name,omitempty"`
	LocationDescription string   `json:"location_description,omitempty"`
	CharactersEnter     []string `json:"characters_enter,omitempty"`
	CharactersExit      []string `json:"characters_exit,omitempty"`
	Situation           string   `json:"situation,omitempty"`
	Mood                string   `json:"mood,omitempty"`
	TimeOfDay           string   `json:"time_of_day,omitempty"`
	Weather             string   `json:"weather,omitempty"`
}

// IsEmpty reports whether applying the patch would change nothing.
func (p *ScenePatch) IsEmpty() bool {
	return p == nil || (p.LocationName == "" &&
		p.LocationDescription == "" &&
		len(p.CharactersEnter) == 0 &&
		len(p.CharactersExit) == 0 &&
		p.Situation == "" &&
		p.Mood == "" &&
		p.TimeOfDay == "" &&
		p.Weather == "")
}

// Apply merges the patch into the scene. Enters are applied before exits, so
// a character named in both ends up absent.
func (s *Scene) Apply(p *ScenePatch) {
	if p == nil {
		return
	}
	if p.LocationName != "" {
		s.LocationName = p.LocationName
	}
	if p.LocationDescription != "" {
		s.LocationDescription = p.LocationDescription
	}
	if p.Situation != "" {
		s.Situation = p.Situation
	}
	if p.Mood != "" {
		s.Mood = p.Mood
	}
	if p.TimeOfDay != "" {
		s.TimeOfDay = p.TimeOfDay
	}
	if p.Weather != "" {
		s.Weather = p.Weather
	}

	for _, name := range p.CharactersEnter {
		s.AddCharacter(name)
	}
	for _, name := range p.CharactersExit {
		s.RemoveCharacter(name)
	}
}

// HasCharacter reports whether the named character is in the scene.
func (s *Scene) HasCharacter(name string) bool {
	for _, present := range s.CharactersPresent {
		if SameName(present, name) {
			return true
		}
	}
	return false
}

// AddCharacter inserts a character into scene membership, keeping the set
// deduplicated and sorted for stable serialization.
func (s *Scene) AddCharacter(name string) {
	name = CanonicalName(name)
	if name == "" || s.HasCharacter(name) {
		return
	}
	s.CharactersPresent = append(s.CharactersPresent, name)
	sort.Strings(s.CharactersPresent)
}

// RemoveCharacter removes a character from scene membership.
func (s *Scene) RemoveCharacter(name string) {
	for i, present := range s.CharactersPresent {
		if SameName(present, name) {
			s.CharactersPresent = append(s.CharactersPresent[:i], s.CharactersPresent[i+1:]...)
			return
		}
	}
}

// PresentSet returns scene membership as a set keyed by canonical name.
func (s *Scene) PresentSet() map[string]bool {
	set := make(map[string]bool, len(s.CharactersPresent))
	for _, name := range s.CharactersPresent {
		set[name] = true
	}
	return set
}

// Describe renders the scene as prompt context.
func (s *Scene) Describe() string {
	var parts []string
	if s.LocationName != "" {
		parts = append(parts, "Location: "+s.LocationName)
	}
	if s.LocationDescription != "" {
		parts = append(parts, s.LocationDescription)
	}
	if s.TimeOfDay != "" {
		parts = append(parts, "Time: "+s.TimeOfDay)
	}
	if s.Weather != "" {
		parts = append(parts, "Weather: "+s.Weather)
	}
	if s.Mood != "" {
		parts = append(parts, "Mood: "+s.Mood)
	}
	if len(s.CharactersPresent) > 0 {
		parts = append(parts, "Present: "+strings.Join(s.CharactersPresent, ", "))
	}
	if s.Situation != "" {
		parts = append(parts, "Situation: "+s.Situation)
	}
	return strings.Join(parts, "\n")
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	out := *s
	out.CharactersPresent = append([]string(nil), s.CharactersPresent...)
	return &out
}
