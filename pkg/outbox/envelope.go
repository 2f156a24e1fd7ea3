package outbox

import (
	"encoding/json"
	"time"
)

// CurrentVersion is stamped on every envelope written by Emit.
const CurrentVersion = 1

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events and
// published verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
