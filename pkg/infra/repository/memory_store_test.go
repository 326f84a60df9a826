package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.LoadFingerprint(ctx, 1)
	assert.True(t, domain.IsNotFound(err))

	_, err = s.LoadCooldown(ctx, 1, "post")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	f := fingerprint.New(5, baseTime)
	require.NoError(t, s.SaveFingerprint(ctx, f))
	f.TrustScore = 10

	loaded, err := s.LoadFingerprint(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, loaded.TrustScore)

	loaded.AddFlag(fingerprint.FlagBlacklisted)
	again, err := s.LoadFingerprint(ctx, 5)
	require.NoError(t, err)
	assert.False(t, again.Flags.Has(fingerprint.FlagBlacklisted))
}

func TestMemoryStore_AtomicallyDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")

	err := s.Atomically(ctx, func(w store.Writer) error {
		require.NoError(t, w.SaveFingerprint(ctx, fingerprint.New(1, baseTime)))
		require.NoError(t, w.AddToList(ctx, list.Entry{Kind: list.Blacklist, ActorID: 1, Reason: "spam", AddedAt: baseTime}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := s.ListFingerprints(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	entries, err := s.ListEntries(ctx, list.Blacklist)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = s.Atomically(ctx, func(w store.Writer) error {
		if err := w.SaveFingerprint(ctx, fingerprint.New(1, baseTime)); err != nil {
			return err
		}
		return w.SaveCooldown(ctx, cooldown.Cooldown{ActorID: 1, Action: "post", ExpiresAt: baseTime.Add(time.Hour), Minutes: 60})
	})
	require.NoError(t, err)

	all, err = s.ListFingerprints(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	c, err := s.LoadCooldown(ctx, 1, "post")
	require.NoError(t, err)
	assert.Equal(t, 60, c.Minutes)
}

func TestMemoryStore_ActivitiesRetention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := activity.New(1, activity.TypeMultipleAttempts, "old", baseTime.Add(-48*time.Hour))
	recent := activity.New(1, activity.TypeMultipleAttempts, "recent", baseTime)
	other := activity.New(2, activity.TypeRapidRequests, "", baseTime.Add(-time.Minute))
	for _, a := range []activity.SuspiciousActivity{old, recent, other} {
		require.NoError(t, s.AppendActivity(ctx, a))
	}

	count, err := s.CountActivitiesSince(ctx, baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := s.DeleteActivitiesBefore(ctx, baseTime.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := s.ListActivities(ctx, 1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].Details)
}

func TestMemoryStore_Lists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AddToList(ctx, list.Entry{Kind: list.Whitelist, ActorID: 3, Reason: "staff", AddedAt: baseTime}))
	require.NoError(t, s.AddToList(ctx, list.Entry{Kind: list.Blacklist, ActorID: 4, Reason: "spam", AddedAt: baseTime}))

	white, err := s.ListEntries(ctx, list.Whitelist)
	require.NoError(t, err)
	require.Len(t, white, 1)
	assert.Equal(t, "staff", white[0].Reason)

	require.NoError(t, s.RemoveFromList(ctx, list.Whitelist, 3))
	white, err = s.ListEntries(ctx, list.Whitelist)
	require.NoError(t, err)
	assert.Empty(t, white)

	black, err := s.ListEntries(ctx, list.Blacklist)
	require.NoError(t, err)
	assert.Len(t, black, 1)
}
