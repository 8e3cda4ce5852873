package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetcare/internal/core"
)

// messageVersion is bumped when the envelope layout changes.
const messageVersion = 1

// ReservationEventMessage is the envelope published for every reservation change.
type ReservationEventMessage struct {
	Version     int                   `json:"version"`
	Event       core.ReservationEvent `json:"event"`
	PublishedAt time.Time             `json:"publishedAt"`
}

func NewReservationEventMessage(ev core.ReservationEvent) *ReservationEventMessage {
	return &ReservationEventMessage{
		Version:     messageVersion,
		Event:       ev,
		PublishedAt: time.Now().UTC(),
	}
}

func (m *ReservationEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReservationEventMessageFromJSON decodes an envelope and rejects messages
// that carry no event type or reservation id.
func ReservationEventMessageFromJSON(data []byte) (*ReservationEventMessage, error) {
	var msg ReservationEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event.Type == "" || msg.Event.Reservation.ID == "" {
		return nil, fmt.Errorf("incomplete reservation event (version %d)", msg.Version)
	}
	return &msg, nil
}
