// Package events provides interfaces for publishing and subscribing to
// submission lifecycle events.
package events

import (
	"context"
	"encoding/json"

	"github.com/andresqui0416/Melotech-Artist/models"
)

// Type identifies the kind of event carried by an envelope.
type Type string

const (
	// TypeConnected is sent once to a newly opened stream, never broadcast.
	TypeConnected Type = "connected"

	// TypeNewSubmission carries a full submission record after creation.
	TypeNewSubmission Type = "new-submission"

	// TypeSubmissionUpdated carries the full updated submission record.
	TypeSubmissionUpdated Type = "submission-updated"

	// TypeSubmissionDeleted carries only the deleted submission's ID.
	TypeSubmissionDeleted Type = "submission-deleted"
)

// Event is the wire envelope for all stream events. Events are immutable and
// ephemeral; there is no sequence number and no replay, so consumers must
// tolerate duplicate or re-ordered delivery.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// ConnectionMessage is the payload of a connected event.
type ConnectionMessage struct {
	Message string `json:"message"`
}

// NewSubmissionEvent builds a new-submission event for sub.
func NewSubmissionEvent(sub *models.Submission) *Event {
	return &Event{Type: TypeNewSubmission, Data: sub}
}

// SubmissionUpdatedEvent builds a submission-updated event for sub.
func SubmissionUpdatedEvent(sub *models.Submission) *Event {
	return &Event{Type: TypeSubmissionUpdated, Data: sub}
}

// SubmissionDeletedEvent builds a submission-deleted event for id.
func SubmissionDeletedEvent(id string) *Event {
	return &Event{Type: TypeSubmissionDeleted, Data: id}
}

// ConnectedEvent builds the acknowledgement written to a freshly opened stream.
func ConnectedEvent() *Event {
	return &Event{Type: TypeConnected, Data: ConnectionMessage{Message: "Connected to real-time updates"}}
}

// Publisher broadcasts submission events to subscribers. A publish attempts
// delivery to every subscriber registered at the moment of the call; delivery
// to any individual subscriber is best effort and a per-subscriber failure is
// never surfaced to the caller.
type Publisher interface {
	// Publish sends an event to all current subscribers
	Publish(ctx context.Context, event *Event) error

	// Subscribe returns a channel that receives all subsequent events.
	// The subscription is removed when ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan *Event, error)

	// Unsubscribe removes a subscription obtained from Subscribe.
	// Calling it for an already-removed channel is a no-op.
	Unsubscribe(ch <-chan *Event)

	// Close closes the publisher and all subscriptions
	Close() error
}

// Envelope is the decode-side counterpart of Event: the payload is kept raw
// so the consumer can pick a concrete type based on Type.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}
