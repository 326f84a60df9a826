package events

import (
	"encoding/json"
)

// RedisMessage is the envelope sent on the pub/sub channel. Source names the
// instance that published it so listeners can ignore their own events.
type RedisMessage struct {
	Type   string          `json:"type"`
	Source string          `json:"source"`
	Event  json.RawMessage `json:"event"`
}
