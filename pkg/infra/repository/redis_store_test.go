package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRedisStore_LoadFingerprint(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")

	f := fingerprint.New(42, baseTime)
	f.DisplayName = "alice"
	f.AddFlag(fingerprint.FlagNewAccount)

	mock.ExpectGet("altguard:fp:42").SetVal(mustJSON(t, f))
	loaded, err := s.LoadFingerprint(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.DisplayName)
	assert.True(t, loaded.Flags.Has(fingerprint.FlagNewAccount))

	mock.ExpectGet("altguard:fp:43").RedisNil()
	_, err = s.LoadFingerprint(ctx, 43)
	assert.True(t, domain.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ListFingerprintsSkipsMissingKeys(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "ag")

	f := fingerprint.New(2, baseTime)
	mock.ExpectSMembers("ag:fp:index").SetVal([]string{"2", "3"})
	mock.ExpectMGet("ag:fp:2", "ag:fp:3").SetVal([]interface{}{mustJSON(t, f), nil})

	all, err := s.ListFingerprints(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.EqualValues(t, 2, all[0].ActorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ListCooldownsPrunesExpiredKeys(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "ag")

	live := cooldown.Cooldown{ActorID: 1, Action: "post", ExpiresAt: baseTime.Add(time.Hour), Minutes: 60, SetAt: baseTime}
	mock.ExpectSMembers("ag:cooldown:index").SetVal([]string{"ag:cooldown:2:post", "ag:cooldown:1:post"})
	mock.ExpectMGet("ag:cooldown:1:post", "ag:cooldown:2:post").SetVal([]interface{}{mustJSON(t, live), nil})
	mock.ExpectSRem("ag:cooldown:index", "ag:cooldown:2:post").SetVal(1)

	all, err := s.ListCooldowns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, live, all[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LoadCooldownMissing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")

	mock.ExpectGet("altguard:cooldown:7:post").SetErr(redis.Nil)
	_, err := s.LoadCooldown(context.Background(), 7, "post")
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ListEntries(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")

	entries := []string{
		mustJSON(t, list.Entry{Kind: list.Blacklist, ActorID: 9, Reason: "spam", AddedBy: "mod", AddedAt: baseTime}),
		mustJSON(t, list.Entry{Kind: list.Blacklist, ActorID: 4, Reason: "alt", AddedBy: "system", AddedAt: baseTime}),
	}
	mock.ExpectHVals("altguard:list:blacklist").SetVal(entries)

	out, err := s.ListEntries(context.Background(), list.Blacklist)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.EqualValues(t, 4, out[0].ActorID)
	assert.Equal(t, "spam", out[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ListActivities(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")

	a := activity.New(5, activity.TypeRapidRequests, "burst", baseTime)
	mock.ExpectZRange("altguard:activity:5", 0, -1).SetVal([]string{mustJSON(t, a)})

	out, err := s.ListActivities(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].ID)
	assert.Equal(t, activity.SeverityOf(activity.TypeRapidRequests), out[0].Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_DeleteActivitiesBefore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")

	cutoff := baseTime.Add(-7 * 24 * time.Hour)
	max := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	mock.ExpectSMembers("altguard:activity:actors").SetVal([]string{"1", "2"})
	mock.ExpectZRemRangeByScore("altguard:activity:1", "-inf", max).SetVal(3)
	mock.ExpectZRemRangeByScore("altguard:activity:2", "-inf", max).SetVal(1)

	deleted, err := s.DeleteActivitiesBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CountActivitiesSinceWithoutActors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")

	mock.ExpectSMembers("altguard:activity:actors").SetVal([]string{})
	count, err := s.CountActivitiesSince(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
