package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	envelopeVersion = 1
	producerName    = "storefront-service"
)

// EventEnvelope wraps every storefront event. PartitionKey is the order id and
// Sequence increases by one per event on that partition.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      *int64    `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       T         `json:"payload"`
}

// Metadata carries correlation context from the triggering request or webhook.
type Metadata struct {
	CorrelationID string
	CausationID   string
}

// Validate reports every way e differs from the expected identity.
func (e EventEnvelope[T]) Validate(name string, version int) error {
	var errs []error
	if e.EventName != name {
		errs = append(errs, fmt.Errorf("eventName is %q, want %q", e.EventName, name))
	}
	if e.EventVersion != version {
		errs = append(errs, fmt.Errorf("eventVersion is %d, want %d", e.EventVersion, version))
	}
	if e.PartitionKey == "" {
		errs = append(errs, errors.New("partitionKey is empty"))
	}
	if e.Sequence == nil {
		errs = append(errs, errors.New("sequence is missing"))
	}
	return errors.Join(errs...)
}

// Decode parses a published message body and checks it is a current-version
// event of the given name.
func Decode[T any](body []byte, name string) (EventEnvelope[T], error) {
	var env EventEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := env.Validate(name, envelopeVersion); err != nil {
		return env, fmt.Errorf("invalid %s: %w", name, err)
	}
	return env, nil
}

func wrap[T any](name, partitionKey string, seq int64, meta Metadata, payload T) EventEnvelope[T] {
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.NewString()
	}
	return EventEnvelope[T]{
		EventName:     name,
		EventVersion:  envelopeVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producerName,
		PartitionKey:  partitionKey,
		Sequence:      &seq,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}
