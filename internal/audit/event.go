// Package audit records security- and business-relevant actions in the
// append-only activity log.  Handlers emit events only after the
// primary mutation has committed; recording is best-effort and a failed
// write never rolls back or fails the business operation.
package audit

import (
	"context"

	"github.com/mehdiyara/stockroom/internal/model"
)

// Event is the payload carried over the broker for one audit entry.
// It contains everything the consumer needs to write the activities row
// without querying back into the request path.
type Event struct {
	Action      model.Action     `json:"action"`
	EntityType  model.EntityType `json:"entity_type"`
	EntityID    string           `json:"entity_id"`
	Message     string           `json:"message"`
	PerformedBy string           `json:"performed_by"`
	OccurredAt  string           `json:"occurred_at"`
}

// Recorder accepts audit events.  Implementations must be
// fire-and-forget: log their own failures and never propagate them.
type Recorder interface {
	Record(ctx context.Context, e Event)
}
