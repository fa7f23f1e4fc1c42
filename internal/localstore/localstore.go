// Package localstore keeps anonymous, device-scoped decision journals in
// Redis. Each device owns one key holding its whole list as a JSON array.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lazypower/decisionos/internal/decision"
	"github.com/lazypower/decisionos/internal/logging"
)

// DefaultNamespace prefixes every device key.
const DefaultNamespace = "decision-os-decisions"

// maxTxRetries bounds optimistic-lock retries on a contended device key.
const maxTxRetries = 10

// Store is the Redis-backed local record store.
type Store struct {
	client    *redis.Client
	namespace string
	log       *logging.Logger
}

// New connects to redisURL and verifies the connection.
func New(redisURL, namespace string, log *logging.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, namespace, log), nil
}

// NewWithClient creates a store from an existing Redis client.
func NewWithClient(client *redis.Client, namespace string, log *logging.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, namespace: namespace, log: log}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(deviceID string) string {
	return s.namespace + ":" + deviceID
}

// Device adapts the store into a decision.Backend bound to one device.
func (s *Store) Device(deviceID string) decision.Backend {
	return &deviceBackend{store: s, deviceID: deviceID}
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// load reads the device list. A missing key is an empty list; so is a value
// that does not decode, which is logged and later overwritten.
func (s *Store) load(ctx context.Context, c getter, deviceID string) ([]decision.Decision, error) {
	raw, err := c.Get(ctx, s.key(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []decision.Decision{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key(deviceID), err)
	}

	var ds []decision.Decision
	if err := json.Unmarshal(raw, &ds); err != nil {
		s.log.Warn("discarding unreadable local journal", "device", deviceID, "error", err)
		return []decision.Decision{}, nil
	}
	for i := range ds {
		if ds[i].Options == nil {
			ds[i].Options = []string{}
		}
	}
	return ds, nil
}

// mutate runs fn over the current list inside a WATCH transaction and
// writes the result back. fn returns false to skip the write.
func (s *Store) mutate(ctx context.Context, deviceID string, fn func([]decision.Decision) ([]decision.Decision, bool)) error {
	key := s.key(deviceID)
	txf := func(tx *redis.Tx) error {
		ds, err := s.load(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		next, write := fn(ds)
		if !write {
			return nil
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal journal: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", key, redis.TxFailedErr)
}

type deviceBackend struct {
	store    *Store
	deviceID string
}

func (b *deviceBackend) List(ctx context.Context) ([]decision.Decision, error) {
	return b.store.load(ctx, b.store.client, b.deviceID)
}

func (b *deviceBackend) Get(ctx context.Context, id string) (*decision.Decision, error) {
	ds, err := b.store.load(ctx, b.store.client, b.deviceID)
	if err != nil {
		return nil, err
	}
	for i := range ds {
		if ds[i].ID == id {
			return &ds[i], nil
		}
	}
	return nil, nil
}

func (b *deviceBackend) Insert(ctx context.Context, d decision.Decision) (*decision.Decision, error) {
	d.ID = uuid.NewString()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Options == nil {
		d.Options = []string{}
	}
	err := b.store.mutate(ctx, b.deviceID, func(ds []decision.Decision) ([]decision.Decision, bool) {
		return append([]decision.Decision{d}, ds...), true
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (b *deviceBackend) Update(ctx context.Context, id string, p decision.Patch) (*decision.Decision, error) {
	var updated *decision.Decision
	err := b.store.mutate(ctx, b.deviceID, func(ds []decision.Decision) ([]decision.Decision, bool) {
		updated = nil
		for i := range ds {
			if ds[i].ID == id {
				decision.Apply(&ds[i], p)
				d := ds[i]
				updated = &d
				return ds, true
			}
		}
		return ds, false
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *deviceBackend) Delete(ctx context.Context, id string) error {
	return b.store.mutate(ctx, b.deviceID, func(ds []decision.Decision) ([]decision.Decision, bool) {
		out := make([]decision.Decision, 0, len(ds))
		for _, d := range ds {
			if d.ID != id {
				out = append(out, d)
			}
		}
		return out, len(out) != len(ds)
	})
}
