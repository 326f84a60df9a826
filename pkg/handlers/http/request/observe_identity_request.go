package request

import (
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
)

type ObserveIdentityRequest struct {
	DisplayName      string     `json:"display_name"`
	ExternalIdentity string     `json:"external_identity"`
	AccountCreatedAt *time.Time `json:"account_created_at"`
}

func (r *ObserveIdentityRequest) Facts() (identity.Facts, error) {
	facts := identity.Facts{
		DisplayName:      r.DisplayName,
		ExternalIdentity: r.ExternalIdentity,
	}
	if r.AccountCreatedAt != nil {
		created := r.AccountCreatedAt.UTC()
		facts.AccountCreatedAt = &created
	}
	if err := facts.Validate(); err != nil {
		return identity.Facts{}, err
	}
	return facts, nil
}
