package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hawkdove/internal/model"
)

const redisKeyPrefix = "hawkdove"

// RedisStore persists run entities as JSON payloads under namespaced
// keys. It shares the codec with the other backends, so records round-
// trip identically regardless of where they were stored.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(opts Options) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		}),
	}
}

func (s *RedisStore) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Reset deletes every key under the store's namespace. Keys owned by
// other applications sharing the database are left alone.
func (s *RedisStore) Reset(ctx context.Context) error {
	var cursor uint64
	pattern := redisKeyPrefix + ":*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func redisKey(entity, id string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, entity, id)
}

func (s *RedisStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("run", run.ID), payload)
}

func (s *RedisStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("run", id))
	if err != nil || !ok {
		return model.RunRecord{}, ok, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *RedisStore) SaveAgents(ctx context.Context, runID string, agents []model.AgentRecord) error {
	payload, err := EncodeAgents(agents)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("agents", runID), payload)
}

func (s *RedisStore) GetAgents(ctx context.Context, runID string) ([]model.AgentRecord, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("agents", runID))
	if err != nil || !ok {
		return nil, ok, err
	}
	agents, err := DecodeAgents(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode agents %s: %w", runID, err)
	}
	return agents, true, nil
}

func (s *RedisStore) SaveHawkHistory(ctx context.Context, runID string, history []float64) error {
	payload, err := EncodeHawkHistory(history)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("hawk_history", runID), payload)
}

func (s *RedisStore) GetHawkHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("hawk_history", runID))
	if err != nil || !ok {
		return nil, ok, err
	}
	history, err := DecodeHawkHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode hawk history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *RedisStore) SaveRoundDiagnostics(ctx context.Context, runID string, diagnostics []model.RoundDiagnostics) error {
	payload, err := EncodeRoundDiagnostics(diagnostics)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("round_diagnostics", runID), payload)
}

func (s *RedisStore) GetRoundDiagnostics(ctx context.Context, runID string) ([]model.RoundDiagnostics, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("round_diagnostics", runID))
	if err != nil || !ok {
		return nil, ok, err
	}
	diagnostics, err := DecodeRoundDiagnostics(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode round diagnostics %s: %w", runID, err)
	}
	return diagnostics, true, nil
}

func (s *RedisStore) SaveEncounters(ctx context.Context, runID string, encounters []model.EncounterRecord) error {
	payload, err := EncodeEncounters(encounters)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("encounters", runID), payload)
}

func (s *RedisStore) GetEncounters(ctx context.Context, runID string) ([]model.EncounterRecord, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("encounters", runID))
	if err != nil || !ok {
		return nil, ok, err
	}
	encounters, err := DecodeEncounters(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode encounters %s: %w", runID, err)
	}
	return encounters, true, nil
}

func (s *RedisStore) set(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return payload, true, nil
}
