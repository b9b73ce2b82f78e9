package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

const (
	scenarioKeyPrefix  = "scenario:"
	scenarioIndexKey   = "scenarios"
	adventureKeyPrefix = "adventure:"
	adventureIndexKey  = "adventures"
	eventsKeyPrefix    = "events:"
)

// RedisStorage implements Storage using Redis. Adventures and scenarios are
// JSON documents, event logs are lists keyed by adventure ID.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStorage) SaveScenario(ctx context.Context, s *scenario.Scenario) error {
	if s == nil || s.ID == "" {
		return errors.New("scenario with ID is required")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, scenarioKeyPrefix+s.ID, data, 0)
		pipe.SAdd(ctx, scenarioIndexKey, s.ID)
		return nil
	})
	if err != nil {
		r.logger.Error("Redis scenario save failed", "scenario_id", s.ID, "error", err)
		return fmt.Errorf("redis scenario save failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	cmd := r.client.Get(ctx, scenarioKeyPrefix+id)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("scenario %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("redis scenario get failed: %w", err)
	}

	var s scenario.Scenario
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) ListScenarios(ctx context.Context) ([]scenario.Scenario, error) {
	ids, err := r.client.SMembers(ctx, scenarioIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis scenario list failed: %w", err)
	}

	scenarios := make([]scenario.Scenario, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetScenario(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Stale index entry, skip it
				r.logger.Warn("scenario in index but not stored", "scenario_id", id)
				continue
			}
			return nil, err
		}
		scenarios = append(scenarios, *s)
	}
	return scenarios, nil
}

func (r *RedisStorage) DeleteScenario(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, scenarioKeyPrefix+id)
		pipe.SRem(ctx, scenarioIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis scenario delete failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) SaveAdventure(ctx context.Context, adv *state.Adventure) error {
	if adv == nil {
		return errors.New("adventure cannot be nil")
	}

	data, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("failed to marshal adventure: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, adventureKeyPrefix+adv.ID.String(), data, 0)
		pipe.SAdd(ctx, adventureIndexKey, adv.ID.String())
		return nil
	})
	if err != nil {
		r.logger.Error("Redis adventure save failed", "adventure_id", adv.ID, "error", err)
		return fmt.Errorf("redis adventure save failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadAdventure(ctx context.Context, id uuid.UUID) (*state.Adventure, error) {
	cmd := r.client.Get(ctx, adventureKeyPrefix+id.String())
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("adventure %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("redis adventure get failed: %w", err)
	}

	var adv state.Adventure
	if err := json.Unmarshal([]byte(cmd.Val()), &adv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal adventure: %w", err)
	}
	return &adv, nil
}

func (r *RedisStorage) ListAdventures(ctx context.Context) ([]AdventureSummary, error) {
	ids, err := r.client.SMembers(ctx, adventureIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis adventure list failed: %w", err)
	}

	summaries := make([]AdventureSummary, 0, len(ids))
	for _, rawID := range ids {
		id, err := uuid.Parse(rawID)
		if err != nil {
			r.logger.Warn("invalid adventure ID in index", "id", rawID)
			continue
		}
		adv, err := r.LoadAdventure(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.logger.Warn("adventure in index but not stored", "adventure_id", rawID)
				continue
			}
			return nil, err
		}
		turns, err := r.CountEvents(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, AdventureSummary{
			ID:         adv.ID,
			ScenarioID: adv.ScenarioID,
			Title:      adv.Title,
			Turns:      turns,
			CreatedAt:  adv.CreatedAt,
			UpdatedAt:  adv.UpdatedAt,
		})
	}
	return summaries, nil
}

func (r *RedisStorage) DeleteAdventure(ctx context.Context, id uuid.UUID) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, adventureKeyPrefix+id.String())
		pipe.Del(ctx, eventsKeyPrefix+id.String())
		pipe.SRem(ctx, adventureIndexKey, id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis adventure delete failed: %w", err)
	}
	return nil
}

// CommitTurn writes the adventure document and appends the event in one
// transaction so a half-committed turn can never be observed.
func (r *RedisStorage) CommitTurn(ctx context.Context, adv *state.Adventure, event *state.Event) error {
	if adv == nil || event == nil {
		return errors.New("adventure and event are required")
	}

	advData, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("failed to marshal adventure: %w", err)
	}
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, adventureKeyPrefix+adv.ID.String(), advData, 0)
		pipe.SAdd(ctx, adventureIndexKey, adv.ID.String())
		pipe.RPush(ctx, eventsKeyPrefix+adv.ID.String(), eventData)
		return nil
	})
	if err != nil {
		r.logger.Error("Redis turn commit failed", "adventure_id", adv.ID, "sequence", event.Sequence, "error", err)
		return fmt.Errorf("redis turn commit failed: %w", err)
	}

	r.logger.Debug("turn committed", "adventure_id", adv.ID, "sequence", event.Sequence)
	return nil
}

func (r *RedisStorage) ListEvents(ctx context.Context, id uuid.UUID, start, stop int64) ([]state.Event, error) {
	raw, err := r.client.LRange(ctx, eventsKeyPrefix+id.String(), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis event range failed: %w", err)
	}

	events := make([]state.Event, 0, len(raw))
	for _, entry := range raw {
		var e state.Event
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *RedisStorage) CountEvents(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := r.client.LLen(ctx, eventsKeyPrefix+id.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis event count failed: %w", err)
	}
	return n, nil
}

// RewriteLog replaces the adventure document and truncates the event log to
// its first keep entries in one transaction.
func (r *RedisStorage) RewriteLog(ctx context.Context, adv *state.Adventure, keep int64) error {
	if adv == nil {
		return errors.New("adventure cannot be nil")
	}
	if keep < 0 {
		return fmt.Errorf("keep must be non-negative, got %d", keep)
	}

	data, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("failed to marshal adventure: %w", err)
	}

	eventsKey := eventsKeyPrefix + adv.ID.String()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, adventureKeyPrefix+adv.ID.String(), data, 0)
		if keep == 0 {
			pipe.Del(ctx, eventsKey)
		} else {
			pipe.LTrim(ctx, eventsKey, 0, keep-1)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Redis log rewrite failed", "adventure_id", adv.ID, "keep", keep, "error", err)
		return fmt.Errorf("redis log rewrite failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetClient() *redis.Client {
	return r.client
}
