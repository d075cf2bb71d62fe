// Package events defines the payloads published to the exchange topic.
package events

import "time"

// ExchangeEvent represents one classified exchange (user turn + assistant turn).
type ExchangeEvent struct {
	SessionID  string    `json:"session_id"`
	User       string    `json:"user,omitempty"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category"`
	Rule       string    `json:"rule"`
	PetsCount  int       `json:"pets_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key partitions events so one session keeps its order on the topic.
func (e ExchangeEvent) Key() []byte {
	return []byte(e.SessionID)
}
