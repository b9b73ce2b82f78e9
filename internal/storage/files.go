package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lorebound/adventure-engine/pkg/scenario"
)

// LoadScenarioFile reads a scenario definition from a JSON or YAML file.
// The format is chosen by extension.
func LoadScenarioFile(path string) (*scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s scenario.Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario file extension: %s", filepath.Ext(path))
	}

	if s.ID == "" {
		base := filepath.Base(path)
		s.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &s, nil
}

// SeedScenarios loads every scenario file in dir into storage. Files that
// fail to parse or validate are skipped with a warning so one bad file does
// not block startup.
func SeedScenarios(ctx context.Context, store Storage, dir string, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		s, err := LoadScenarioFile(path)
		if err != nil {
			logger.Warn("skipping scenario file", "path", path, "error", err)
			continue
		}
		if err := s.Validate(); err != nil {
			logger.Warn("skipping invalid scenario", "path", path, "error", err)
			continue
		}
		if err := store.SaveScenario(ctx, s); err != nil {
			return loaded, fmt.Errorf("failed to store scenario %q: %w", s.ID, err)
		}
		logger.Debug("scenario loaded", "scenario_id", s.ID, "title", s.Title)
		loaded++
	}
	return loaded, nil
}
