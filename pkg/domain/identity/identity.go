package identity

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

const MaxNameLength = 256

var ErrInvalidFacts = errors.New("invalid identity facts")

// Facts are the host-observed attributes of an actor. Zero values mean
// unknown.
type Facts struct {
	DisplayName      string     `json:"display_name,omitempty"`
	ExternalIdentity string     `json:"external_identity,omitempty"`
	AccountCreatedAt *time.Time `json:"account_created_at,omitempty"`
}

func (f Facts) Empty() bool {
	return f.DisplayName == "" && f.ExternalIdentity == "" && f.AccountCreatedAt == nil
}

func (f Facts) Validate() error {
	for _, v := range []string{f.DisplayName, f.ExternalIdentity} {
		if !utf8.ValidString(v) || len(v) > MaxNameLength {
			return ErrInvalidFacts
		}
	}
	return nil
}

// Trimmed returns a copy with surrounding whitespace removed from names.
func (f Facts) Trimmed() Facts {
	f.DisplayName = strings.TrimSpace(f.DisplayName)
	f.ExternalIdentity = strings.TrimSpace(f.ExternalIdentity)
	return f
}

//go:generate mockery --name=Lookup --dir=. --output=./mocks --filename=lookup_mock.go --case=underscore --with-expecter

// Lookup resolves identity facts for an actor. An unknown actor resolves to
// empty Facts and a nil error.
type Lookup interface {
	Resolve(ctx context.Context, id actor.ID) (Facts, error)
}
