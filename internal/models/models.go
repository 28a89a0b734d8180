package models

import "time"

// Status is the closed set of complaint lifecycle states.
type Status string

const (
	StatusSubmitted    Status = "submitted"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in-progress"
	StatusResponseDue  Status = "response-due"
	StatusEscalation   Status = "escalation"
	StatusResolved     Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusAcknowledged, StatusInProgress, StatusResponseDue, StatusEscalation, StatusResolved:
		return true
	}
	return false
}

// JSON keys are camelCase so documents exported by earlier versions of the
// application import cleanly, and vice versa.

type Organization struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	ContactEmail       string `json:"contactEmail"`
	ResponseTimeDays   int    `json:"responseTimeDays"`
	EscalationTimeDays int    `json:"escalationTimeDays"`
}

type ContactDetails struct {
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	PreferredContact string `json:"preferredContact"`
}

// ComplaintUpdate is one entry in a complaint's append-only update log.
type ComplaintUpdate struct {
	Date    time.Time      `json:"date"`
	Type    string         `json:"type"`
	Details map[string]any `json:"details"`
}

type Complaint struct {
	ID              string            `json:"id"`
	OrganizationID  string            `json:"organizationId"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	DesiredOutcome  string            `json:"desiredOutcome"`
	Contact         ContactDetails    `json:"contactDetails"`
	IncidentDate    string            `json:"incidentDate,omitempty"`
	ReferenceNumber string            `json:"referenceNumber,omitempty"`
	PreviousContact string            `json:"previousContact,omitempty"`
	CreatedDate     time.Time         `json:"createdDate"`
	Deadline        *time.Time        `json:"deadline,omitempty"`
	Status          Status            `json:"status"`
	Updates         []ComplaintUpdate `json:"updates"`
}

// DerivedFacts are computed on read and never persisted.
type DerivedFacts struct {
	IsOverdue       bool `json:"isOverdue"`
	DaysElapsed     int  `json:"daysElapsed"`
	ProgressPercent int  `json:"progressPercent"`
}
