package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/go-redis/redis/v8"
)

const (
	FingerprintKeyPattern   = "%s:fp:%d"
	FingerprintIndexPattern = "%s:fp:index"
	ActivityKeyPattern      = "%s:activity:%d"
	ActivityActorsPattern   = "%s:activity:actors"
	CooldownKeyPattern      = "%s:cooldown:%d:%s"
	CooldownIndexPattern    = "%s:cooldown:index"
	ListKeyPattern          = "%s:list:%s"

	DefaultKeyPrefix = "altguard"
)

// RedisStore keeps fingerprints and cooldowns as JSON strings, activities in
// one sorted set per actor scored by timestamp, and lists as hashes. Index
// sets make the listing operations independent of SCAN.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ store.Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) fingerprintKey(id actor.ID) string {
	return fmt.Sprintf(FingerprintKeyPattern, s.prefix, id)
}

func (s *RedisStore) activityKey(id actor.ID) string {
	return fmt.Sprintf(ActivityKeyPattern, s.prefix, id)
}

func (s *RedisStore) cooldownKey(id actor.ID, action string) string {
	return fmt.Sprintf(CooldownKeyPattern, s.prefix, id, action)
}

func (s *RedisStore) listKey(kind list.Kind) string {
	return fmt.Sprintf(ListKeyPattern, s.prefix, kind)
}

func (s *RedisStore) LoadFingerprint(ctx context.Context, id actor.ID) (*fingerprint.Fingerprint, error) {
	raw, err := s.client.Get(ctx, s.fingerprintKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFoundError("fingerprint", id)
		}
		return nil, err
	}
	f := new(fingerprint.Fingerprint)
	if err := json.Unmarshal([]byte(raw), f); err != nil {
		return nil, fmt.Errorf("failed to decode fingerprint %s: %w", id, err)
	}
	return f, nil
}

func (s *RedisStore) ListFingerprints(ctx context.Context) ([]*fingerprint.Fingerprint, error) {
	ids, err := s.client.SMembers(ctx, fmt.Sprintf(FingerprintIndexPattern, s.prefix)).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, s.fingerprintKey(actor.ID(id)))
	}
	values, err := s.mget(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]*fingerprint.Fingerprint, 0, len(values))
	for _, raw := range values {
		f := new(fingerprint.Fingerprint)
		if err := json.Unmarshal([]byte(raw), f); err != nil {
			return nil, fmt.Errorf("failed to decode fingerprint: %w", err)
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out, nil
}

func (s *RedisStore) ListActivities(ctx context.Context, id actor.ID) ([]activity.SuspiciousActivity, error) {
	members, err := s.client.ZRange(ctx, s.activityKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]activity.SuspiciousActivity, 0, len(members))
	for _, raw := range members {
		var a activity.SuspiciousActivity
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("failed to decode activity of %s: %w", id, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *RedisStore) CountActivitiesSince(ctx context.Context, since time.Time) (int64, error) {
	actors, err := s.client.SMembers(ctx, fmt.Sprintf(ActivityActorsPattern, s.prefix)).Result()
	if err != nil {
		return 0, err
	}
	if len(actors) == 0 {
		return 0, nil
	}
	min := strconv.FormatInt(since.UnixMilli(), 10)
	pipe := s.client.Pipeline()
	counts := make([]*redis.IntCmd, 0, len(actors))
	for _, raw := range actors {
		key := fmt.Sprintf("%s:activity:%s", s.prefix, raw)
		counts = append(counts, pipe.ZCount(ctx, key, min, "+inf"))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	var total int64
	for _, c := range counts {
		total += c.Val()
	}
	return total, nil
}

func (s *RedisStore) LoadCooldown(ctx context.Context, id actor.ID, action string) (*cooldown.Cooldown, error) {
	raw, err := s.client.Get(ctx, s.cooldownKey(id, action)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFoundError("cooldown", cooldown.Cooldown{ActorID: id, Action: action})
		}
		return nil, err
	}
	c := new(cooldown.Cooldown)
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, fmt.Errorf("failed to decode cooldown: %w", err)
	}
	return c, nil
}

// ListCooldowns skips index members whose key has already expired.
func (s *RedisStore) ListCooldowns(ctx context.Context) ([]cooldown.Cooldown, error) {
	indexKey := fmt.Sprintf(CooldownIndexPattern, s.prefix)
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []cooldown.Cooldown{}, nil
	}
	sort.Strings(keys)
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]cooldown.Cooldown, 0, len(values))
	var expired []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired through ExpireAt, the index still points at it
			expired = append(expired, keys[i])
			continue
		}
		var c cooldown.Cooldown
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("failed to decode cooldown: %w", err)
		}
		out = append(out, c)
	}
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, indexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune cooldown index: %w", err)
		}
	}
	return out, nil
}

func (s *RedisStore) ListEntries(ctx context.Context, kind list.Kind) ([]list.Entry, error) {
	values, err := s.client.HVals(ctx, s.listKey(kind)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]list.Entry, 0, len(values))
	for _, raw := range values {
		var e list.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s entry: %w", kind, err)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out, nil
}

func (s *RedisStore) SaveFingerprint(ctx context.Context, f *fingerprint.Fingerprint) error {
	return s.Atomically(ctx, func(w store.Writer) error { return w.SaveFingerprint(ctx, f) })
}

func (s *RedisStore) AppendActivity(ctx context.Context, a activity.SuspiciousActivity) error {
	return s.Atomically(ctx, func(w store.Writer) error { return w.AppendActivity(ctx, a) })
}

func (s *RedisStore) SaveCooldown(ctx context.Context, c cooldown.Cooldown) error {
	return s.Atomically(ctx, func(w store.Writer) error { return w.SaveCooldown(ctx, c) })
}

func (s *RedisStore) DeleteCooldown(ctx context.Context, id actor.ID, action string) error {
	return s.Atomically(ctx, func(w store.Writer) error { return w.DeleteCooldown(ctx, id, action) })
}

func (s *RedisStore) AddToList(ctx context.Context, e list.Entry) error {
	return s.Atomically(ctx, func(w store.Writer) error { return w.AddToList(ctx, e) })
}

func (s *RedisStore) RemoveFromList(ctx context.Context, kind list.Kind, id actor.ID) error {
	return s.Atomically(ctx, func(w store.Writer) error { return w.RemoveFromList(ctx, kind, id) })
}

// Atomically queues the writes of fn in a MULTI/EXEC block. Nothing is sent
// when fn fails.
func (s *RedisStore) Atomically(ctx context.Context, fn func(w store.Writer) error) error {
	pipe := s.client.TxPipeline()
	if err := fn(&redisWriter{store: s, cmd: pipe}); err != nil {
		pipe.Discard()
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute redis transaction: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	actors, err := s.client.SMembers(ctx, fmt.Sprintf(ActivityActorsPattern, s.prefix)).Result()
	if err != nil {
		return 0, err
	}
	max := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	var deleted int64
	for _, raw := range actors {
		key := fmt.Sprintf("%s:activity:%s", s.prefix, raw)
		n, err := s.client.ZRemRangeByScore(ctx, key, "-inf", max).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) mget(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

type redisWriter struct {
	store *RedisStore
	cmd   redis.Cmdable
}

func (w *redisWriter) SaveFingerprint(ctx context.Context, f *fingerprint.Fingerprint) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal fingerprint: %w", err)
	}
	w.cmd.Set(ctx, w.store.fingerprintKey(f.ActorID), data, 0)
	w.cmd.SAdd(ctx, fmt.Sprintf(FingerprintIndexPattern, w.store.prefix), f.ActorID.String())
	return nil
}

func (w *redisWriter) AppendActivity(ctx context.Context, a activity.SuspiciousActivity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}
	w.cmd.ZAdd(ctx, w.store.activityKey(a.ActorID), &redis.Z{
		Score:  float64(a.Timestamp.UnixMilli()),
		Member: string(data),
	})
	w.cmd.SAdd(ctx, fmt.Sprintf(ActivityActorsPattern, w.store.prefix), a.ActorID.String())
	return nil
}

func (w *redisWriter) SaveCooldown(ctx context.Context, c cooldown.Cooldown) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal cooldown: %w", err)
	}
	key := w.store.cooldownKey(c.ActorID, c.Action)
	w.cmd.Set(ctx, key, data, 0)
	w.cmd.ExpireAt(ctx, key, c.ExpiresAt)
	w.cmd.SAdd(ctx, fmt.Sprintf(CooldownIndexPattern, w.store.prefix), key)
	return nil
}

func (w *redisWriter) DeleteCooldown(ctx context.Context, id actor.ID, action string) error {
	key := w.store.cooldownKey(id, action)
	w.cmd.Del(ctx, key)
	w.cmd.SRem(ctx, fmt.Sprintf(CooldownIndexPattern, w.store.prefix), key)
	return nil
}

func (w *redisWriter) AddToList(ctx context.Context, e list.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal list entry: %w", err)
	}
	w.cmd.HSet(ctx, w.store.listKey(e.Kind), e.ActorID.String(), data)
	return nil
}

func (w *redisWriter) RemoveFromList(ctx context.Context, kind list.Kind, id actor.ID) error {
	w.cmd.HDel(ctx, w.store.listKey(kind), id.String())
	return nil
}
