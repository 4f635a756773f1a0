package domain

import "time"

// EventTypeStatusChanged is the event type published for every committed
// transition, both to in-process subscribers and to the broker.
const EventTypeStatusChanged = "export.status_changed"

// TransitionEvent notifies subscribers of a committed transition. Delivery
// is at-most-once; disconnected subscribers re-read current state instead of
// replaying.
type TransitionEvent struct {
	EventID    string       `json:"eventId"`
	ExportID   string       `json:"exportId"`
	Action     Action       `json:"action"`
	FromStatus Status       `json:"fromStatus"`
	ToStatus   Status       `json:"toStatus"`
	ActorID    string       `json:"actorId"`
	ActorOrg   Organization `json:"actorOrg"`
	Timestamp  time.Time    `json:"timestamp"`
}

// TopicExport is the subscription topic for a single export's events.
func TopicExport(exportID string) string { return "export:" + exportID }

// TopicOrg is the subscription topic for an organization's room.
func TopicOrg(org Organization) string { return "org:" + string(org) }
