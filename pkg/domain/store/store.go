package store

import (
	"context"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
)

type Reader interface {
	fingerprint.Reader
	activity.Reader
	cooldown.Reader
	list.Reader
}

type Writer interface {
	fingerprint.Writer
	activity.Writer
	cooldown.Writer
	list.Writer
}

//go:generate mockery --name=Store --dir=. --output=./mocks --filename=store_mock.go --case=underscore --with-expecter

// Store is the persistence port. Every adapter must be linearizable per
// actor id; absent fingerprints and cooldowns are reported with a
// not-found error.
type Store interface {
	Reader
	Writer
	// Atomically applies every write made through w, or none of them when fn
	// or the commit fails.
	Atomically(ctx context.Context, fn func(w Writer) error) error
	DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
