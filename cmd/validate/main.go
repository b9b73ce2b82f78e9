package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lorebound/adventure-engine/internal/storage"
	"github.com/lorebound/adventure-engine/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json|scenario.yaml> [...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &ScenarioValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type ScenarioValidator struct {
	errors []string
}

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(baseName))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("scenario file must have a .json or .yaml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidScenarioFilename(nameWithoutExt) {
		return fmt.Errorf("scenario filename %q must be lowercase kebab-case or snake_case (e.g., harbor-mystery.json)", baseName)
	}

	// JSON files get a strict pass to catch misspelled fields.
	if ext == ".json" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("file %s contains invalid JSON", filename)
		}
		decoder := json.NewDecoder(strings.NewReader(string(data)))
		decoder.DisallowUnknownFields()
		var strict scenario.Scenario
		if err := decoder.Decode(&strict); err != nil {
			return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
		}
	}

	s, err := storage.LoadScenarioFile(filename)
	if err != nil {
		return err
	}

	v.errors = nil
	if err := s.Validate(); err != nil {
		v.addError(err.Error())
	}
	v.validateScenario(s)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ScenarioValidator) validateScenario(s *scenario.Scenario) {
	v.validateIDFormat("scenario ID", s.ID)

	for i := range s.StoryCards {
		v.validateCard(&s.StoryCards[i])
	}

	if s.OpeningSituation == "" {
		fmt.Println("  note: opening_situation is empty; the opening will be generated at adventure start")
	}
}

func (v *ScenarioValidator) validateCard(card *scenario.StoryCard) {
	if card.Entry == "" {
		v.addError(fmt.Sprintf("card %q has no entry text", card.Name))
	}

	// PC cards never inject by trigger, so triggers there are dead weight.
	if card.Type == scenario.CardPC && len(card.Triggers) > 0 {
		v.addError(fmt.Sprintf("PC card %q has triggers; PC cards are never trigger-injected", card.Name))
	}
	// Non-character cards are only ever trigger-injected. Character cards may
	// reasonably have no triggers when they start in the opening scene.
	if !card.Type.IsCharacter() && len(card.Triggers) == 0 {
		v.addError(fmt.Sprintf("card %q has no triggers and will never be injected", card.Name))
	}

	seen := make(map[string]bool)
	for _, trigger := range card.Triggers {
		t := strings.ToLower(strings.TrimSpace(trigger))
		if t == "" {
			v.addError(fmt.Sprintf("card %q has an empty trigger", card.Name))
			continue
		}
		if seen[t] {
			v.addError(fmt.Sprintf("card %q has duplicate trigger %q", card.Name, t))
		}
		seen[t] = true
	}
}

func (v *ScenarioValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s %q should be lowercase kebab-case or snake_case", fieldName, id))
	}
}

func (v *ScenarioValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_-]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidScenarioFilename(name string) bool {
	// Allow 'x.' prefix for experimental scenarios
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
