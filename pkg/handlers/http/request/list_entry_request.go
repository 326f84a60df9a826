package request

import (
	"fmt"
	"strings"

	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
)

const maxAddedByLength = 128

type ListEntryRequest struct {
	Reason  string `json:"reason"`
	AddedBy string `json:"added_by"`
}

func (r *ListEntryRequest) Validate() error {
	if _, err := list.ValidateReason(r.Reason); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.AddedBy)) > maxAddedByLength {
		return fmt.Errorf("added_by exceeds %d characters", maxAddedByLength)
	}
	return nil
}
