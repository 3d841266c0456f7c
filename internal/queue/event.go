// Package queue defines the workflow events exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

import "time"

// DefaultQueueName is the durable queue carrying every workflow event.
const DefaultQueueName = "application.events"

// Event types.
const (
	EventSubmitted         = "application.submitted"
	EventTransitioned      = "application.transitioned"
	EventCertificateIssued = "certificate.issued"
)

// ApplicationEvent is published after an application is created, changes
// status or receives its certificate.  It carries enough information for
// the audit log without querying the primary store.
type ApplicationEvent struct {
	Type              string `json:"type"`
	ApplicationID     string `json:"application_id"`     // primary key
	ApplicationNumber string `json:"application_number"` // REV123456
	CitizenID         string `json:"citizen_id"`
	ServiceType       string `json:"service_type"`
	FromStatus        string `json:"from_status,omitempty"`
	ToStatus          string `json:"to_status"`
	Action            string `json:"action,omitempty"`
	Actor             string `json:"actor,omitempty"`
	Remarks           string `json:"remarks,omitempty"`
	CertificateNumber string `json:"certificate_number,omitempty"`
	OccurredAt        string `json:"occurred_at"`
}

// Timestamp formats t the way OccurredAt expects.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
