package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of an application.  Transitions
// between states are owned by the lifecycle package.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusInReview  ApplicationStatus = "in-review"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusForwarded ApplicationStatus = "forwarded"
)

// Valid reports whether s is one of the five known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected, StatusForwarded:
		return true
	}
	return false
}

// Service types handled by the portal.  Each one is also the name of the
// department that processes it.
const (
	ServiceRevenue       = "revenue"
	ServiceEducation     = "education"
	ServiceNaanMudhalvan = "naan-mudhalvan"
)

// KnownServiceTypes lists the service types that have a department,
// a form variant and a certificate template.
var KnownServiceTypes = []string{ServiceRevenue, ServiceEducation, ServiceNaanMudhalvan}

// IsKnownServiceType reports whether t has a registered department.
func IsKnownServiceType(t string) bool {
	for _, k := range KnownServiceTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Priority values.  Applications default to medium.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// NormalizePriority lower-cases p and returns medium for empty input.  The
// boolean is false when p is not a known priority.
func NormalizePriority(p string) (string, bool) {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "":
		return PriorityMedium, true
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return p, false
}

// DocumentInfo describes a file attached to an application.  Only the
// metadata is kept; file contents are not stored by this service.
type DocumentInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// DocumentRef is a document as submitted by a client: either a bare file
// name or a DocumentInfo object.
type DocumentRef struct {
	DocumentInfo
}

func (d *DocumentRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &d.Name)
	}
	return json.Unmarshal(b, &d.DocumentInfo)
}

// Application represents a citizen's request for a service as stored in
// the `applications` table.  ApplicationID is the human readable number
// shown to the citizen (REV123456); ID is the primary key that
// certificates reference.  Version increases on every update and guards
// against lost updates.
//
// Fields:
//  ID              – primary key identifier (UUID).
//  ApplicationID   – service-prefixed number, fixed at creation.
//  CitizenID       – owning user.
//  ServiceType     – revenue, education, naan-mudhalvan or another type.
//  ServiceName     – display label (Income Certificate, ...).
//  Status          – lifecycle state.
//  Priority        – low, medium or high.
//  FormData        – per-service form variant.
//  SubmittedDate   – creation time.
//  LastUpdated     – time of the latest mutation.
//  AssignedOfficer – officer who acted last.
//  ApprovedBy      – officer who approved the application.
//  Remarks         – comment of the latest action.
//  Documents       – attached document metadata.
//  Version         – optimistic concurrency counter.
type Application struct {
	ID              string            `json:"id"`                        // applications.id
	ApplicationID   string            `json:"applicationId"`             // applications.application_id
	CitizenID       string            `json:"citizenId"`                 // applications.citizen_id
	ServiceType     string            `json:"serviceType"`               // applications.service_type
	ServiceName     string            `json:"serviceName"`               // applications.service_name
	Status          ApplicationStatus `json:"status"`                    // applications.status
	Priority        string            `json:"priority"`                  // applications.priority
	FormData        FormData          `json:"formData"`                  // applications.form_data (JSON)
	SubmittedDate   time.Time         `json:"submittedDate"`             // applications.submitted_date
	LastUpdated     time.Time         `json:"lastUpdated"`               // applications.last_updated
	AssignedOfficer string            `json:"assignedOfficer,omitempty"` // applications.assigned_officer
	ApprovedBy      string            `json:"approvedBy,omitempty"`      // applications.approved_by
	Remarks         string            `json:"remarks,omitempty"`         // applications.remarks
	Documents       []DocumentInfo    `json:"documents"`                 // applications.documents (JSON)
	Version         int64             `json:"version"`                   // applications.version
}
