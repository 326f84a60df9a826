package response

import (
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
)

type ListEntriesOutput struct {
	List    list.Kind    `json:"list"`
	Total   int          `json:"total"`
	Entries []list.Entry `json:"entries"`
}

func NewListEntriesOutput(kind list.Kind, entries []list.Entry) ListEntriesOutput {
	if entries == nil {
		entries = []list.Entry{}
	}
	return ListEntriesOutput{List: kind, Total: len(entries), Entries: entries}
}

type MembershipOutput struct {
	List    list.Kind `json:"list"`
	ActorID actor.ID  `json:"actor_id"`
	Member  bool      `json:"member"`
}

type RemovedOutput struct {
	List    list.Kind `json:"list"`
	ActorID actor.ID  `json:"actor_id"`
	Removed bool      `json:"removed"`
}
