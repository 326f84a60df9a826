package fingerprint

import (
	"context"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

type Reader interface {
	LoadFingerprint(ctx context.Context, id actor.ID) (*Fingerprint, error)
	ListFingerprints(ctx context.Context) ([]*Fingerprint, error)
}

type Writer interface {
	SaveFingerprint(ctx context.Context, f *Fingerprint) error
}
