package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
// The value doubles as the topic name.
type EventType string

const (
	EventPairingsGenerated  EventType = "pairings-generated"
	EventResultConfirmed    EventType = "result-confirmed"
	EventTournamentFinished EventType = "tournament-finished"
)

// PushEnvelope is the body of a Pub/Sub push subscription request.
type PushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		ID         string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
