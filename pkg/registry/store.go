package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store provides environment-scoped Redis operations for the registry.
// All keys are automatically namespaced with the environment name. The store
// is thread-safe; conflicting writes to the same natural key are serialized
// by a per-key lock so that two concurrent reconciliations cannot produce a
// lost update.
type Store struct {
	rdb     *redis.Client
	envName string

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewStore creates a registry store for the specified environment.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - envName: environment identifier (must not be empty)
func NewStore(redisOpts *redis.Options, envName string) (*Store, error) {
	if envName == "" {
		return nil, fmt.Errorf("environment name cannot be empty")
	}

	return &Store{
		rdb:      redis.NewClient(redisOpts),
		envName:  envName,
		keyLocks: make(map[string]*sync.Mutex),
	}, nil
}

// EnvName returns the environment this store is scoped to.
func (s *Store) EnvName() string {
	return s.envName
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. The consistency checker uses this as its
// reachability probe before auditing an environment.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// lockKey acquires the write lock for a natural key and returns the unlock
// function. Locks are created lazily and never removed; the registry key
// space is small (hundreds of boards).
func (s *Store) lockKey(naturalKey string) func() {
	s.mu.Lock()
	l, ok := s.keyLocks[naturalKey]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[naturalKey] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get retrieves a record by natural key.
// Returns (nil, redis.Nil) if no record exists. Use IsNotFound() to check.
func (s *Store) Get(ctx context.Context, naturalKey string) (*JobBoardRecord, error) {
	key := BoardKey(s.envName, naturalKey)

	hashData, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	record, err := HashToRecord(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize board %q: %w", naturalKey, err)
	}

	return record, nil
}

// GetByStorageID retrieves a record via the storageID secondary index.
func (s *Store) GetByStorageID(ctx context.Context, storageID string) (*JobBoardRecord, error) {
	naturalKey, err := s.rdb.Get(ctx, BoardByIDKey(s.envName, storageID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to resolve storage ID %q: %w", storageID, err)
	}
	return s.Get(ctx, naturalKey)
}

// GetAll returns every record in the environment, sorted by natural key.
func (s *Store) GetAll(ctx context.Context) ([]*JobBoardRecord, error) {
	keys, err := s.rdb.SMembers(ctx, BoardSetKey(s.envName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list board keys: %w", err)
	}
	sort.Strings(keys)

	records := make([]*JobBoardRecord, 0, len(keys))
	for _, naturalKey := range keys {
		record, err := s.Get(ctx, naturalKey)
		if err != nil {
			if IsNotFound(err) {
				// Index entry without a hash: a concurrent delete between
				// SMembers and HGetAll. Skip it.
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Count returns the number of records in the environment.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.rdb.SCard(ctx, BoardSetKey(s.envName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count boards: %w", err)
	}
	return n, nil
}

// Upsert writes a record, creating it if absent. The store owns StorageID:
// on create a fresh UUID is assigned, on update the existing StorageID is
// preserved regardless of what the caller passed in. Returns the record as
// persisted.
func (s *Store) Upsert(ctx context.Context, record *JobBoardRecord) (*JobBoardRecord, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board record: %w", err)
	}

	unlock := s.lockKey(record.NaturalKey)
	defer unlock()

	persisted := *record

	existing, err := s.Get(ctx, record.NaturalKey)
	switch {
	case err == nil:
		// StorageID is immutable once assigned
		persisted.StorageID = existing.StorageID
	case IsNotFound(err):
		persisted.StorageID = uuid.New().String()
	default:
		return nil, err
	}

	key := BoardKey(s.envName, persisted.NaturalKey)
	if err := s.rdb.HSet(ctx, key, RecordToHash(&persisted)).Err(); err != nil {
		return nil, fmt.Errorf("failed to write board to Redis: %w", err)
	}

	if err := s.rdb.SAdd(ctx, BoardSetKey(s.envName), persisted.NaturalKey).Err(); err != nil {
		return nil, fmt.Errorf("failed to index board: %w", err)
	}

	idKey := BoardByIDKey(s.envName, persisted.StorageID)
	if err := s.rdb.Set(ctx, idKey, persisted.NaturalKey, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to write storage ID index: %w", err)
	}

	return &persisted, nil
}

// Delete removes a record by natural key along with its index entries.
// Returns false if no record existed.
func (s *Store) Delete(ctx context.Context, naturalKey string) (bool, error) {
	unlock := s.lockKey(naturalKey)
	defer unlock()

	existing, err := s.Get(ctx, naturalKey)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	key := BoardKey(s.envName, naturalKey)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("failed to delete board: %w", err)
	}

	if err := s.rdb.SRem(ctx, BoardSetKey(s.envName), naturalKey).Err(); err != nil {
		return false, fmt.Errorf("failed to unindex board: %w", err)
	}

	if existing.StorageID != "" {
		if err := s.rdb.Del(ctx, BoardByIDKey(s.envName, existing.StorageID)).Err(); err != nil {
			return false, fmt.Errorf("failed to delete storage ID index: %w", err)
		}
	}

	return true, nil
}

// IsNotFound checks if an error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
