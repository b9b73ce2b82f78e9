package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// ErrNotFound is returned when a requested scenario or adventure does not exist.
var ErrNotFound = errors.New("not found")

// AdventureSummary is the listing view of an adventure, without the full
// scene and character state.
type AdventureSummary struct {
	ID         uuid.UUID `json:"id"`
	ScenarioID string    `json:"scenario_id"`
	Title      string    `json:"title"`
	Turns      int64     `json:"turns"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for scenario, adventure and event persistence.
type Storage interface {
	HealthChecker
	Closer

	// SaveScenario stores a scenario definition under its ID.
	SaveScenario(ctx context.Context, s *scenario.Scenario) error

	// GetScenario retrieves a scenario by ID. Returns ErrNotFound if absent.
	GetScenario(ctx context.Context, id string) (*scenario.Scenario, error)

	// ListScenarios returns all stored scenarios.
	ListScenarios(ctx context.Context) ([]scenario.Scenario, error)

	// DeleteScenario removes a scenario by ID.
	DeleteScenario(ctx context.Context, id string) error

	// SaveAdventure stores the full adventure document.
	SaveAdventure(ctx context.Context, adv *state.Adventure) error

	// LoadAdventure retrieves an adventure by ID. Returns ErrNotFound if absent.
	LoadAdventure(ctx context.Context, id uuid.UUID) (*state.Adventure, error)

	// ListAdventures returns summaries of all stored adventures.
	ListAdventures(ctx context.Context) ([]AdventureSummary, error)

	// DeleteAdventure removes an adventure and its event log.
	DeleteAdventure(ctx context.Context, id uuid.UUID) error

	// CommitTurn atomically writes the updated adventure document and appends
	// the turn's event. Either both land or neither does.
	CommitTurn(ctx context.Context, adv *state.Adventure, event *state.Event) error

	// ListEvents returns events by index range, inclusive. Negative indexes
	// count from the end, so ListEvents(ctx, id, 0, -1) returns everything.
	ListEvents(ctx context.Context, id uuid.UUID, start, stop int64) ([]state.Event, error)

	// CountEvents returns the number of committed events.
	CountEvents(ctx context.Context, id uuid.UUID) (int64, error)

	// RewriteLog atomically replaces the adventure document and truncates the
	// event log to its first keep entries. Used by undo after replay.
	RewriteLog(ctx context.Context, adv *state.Adventure, keep int64) error
}
