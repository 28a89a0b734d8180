package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/complaintdesk/backend/internal/models"
)

// progressPercent is presentational only; it never drives transition logic.
var progressPercent = map[models.Status]int{
	models.StatusSubmitted:    20,
	models.StatusAcknowledged: 40,
	models.StatusInProgress:   60,
	models.StatusResponseDue:  80,
	models.StatusEscalation:   90,
	models.StatusResolved:     100,
}

// statusPriority ranks urgency for display sorting.
var statusPriority = map[models.Status]int{
	models.StatusEscalation:   6,
	models.StatusResponseDue:  5,
	models.StatusInProgress:   4,
	models.StatusAcknowledged: 3,
	models.StatusSubmitted:    2,
	models.StatusResolved:     1,
}

// nextStatus encodes the single allowed forward step from each state.
var nextStatus = map[models.Status]models.Status{
	models.StatusSubmitted:    models.StatusAcknowledged,
	models.StatusAcknowledged: models.StatusInProgress,
	models.StatusInProgress:   models.StatusResponseDue,
	models.StatusResponseDue:  models.StatusEscalation,
	models.StatusEscalation:   models.StatusResolved,
}

// CanTransition reports whether a complaint may move from current to target.
// Allowed edges are the forward chain plus a direct resolve from any
// non-resolved state. Resolved is terminal.
func CanTransition(current, target models.Status) bool {
	if !current.Valid() || !target.Valid() {
		return false
	}
	if current == models.StatusResolved {
		return false
	}
	if target == models.StatusResolved {
		return true
	}
	return nextStatus[current] == target
}

// Derive computes the read-time facts for a complaint at the given instant.
func Derive(c models.Complaint, now time.Time) models.DerivedFacts {
	elapsed := now.Sub(c.CreatedDate)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(elapsed.Hours() / 24))

	overdue := c.Deadline != nil && now.After(*c.Deadline)

	return models.DerivedFacts{
		IsOverdue:       overdue,
		DaysElapsed:     days,
		ProgressPercent: progressPercent[c.Status],
	}
}

// Deadline returns the first-response deadline for a complaint created at the
// given time against org, in calendar days.
func Deadline(createdDate time.Time, org models.Organization) time.Time {
	return createdDate.AddDate(0, 0, org.ResponseTimeDays)
}

// QueryFilter narrows a complaint listing. Zero-valued fields match everything;
// populated fields are ANDed.
type QueryFilter struct {
	Search         string
	Status         models.Status
	OrganizationID string
}

// Matches applies the filter to one complaint. orgName is the resolved
// organization name, empty when the reference dangles.
func (f QueryFilter) Matches(c models.Complaint, orgName string) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.OrganizationID != "" && c.OrganizationID != f.OrganizationID {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Title), q) &&
			!strings.Contains(strings.ToLower(c.Description), q) &&
			!strings.Contains(strings.ToLower(orgName), q) {
			return false
		}
	}
	return true
}

// SortForDisplay orders complaints most-urgent-first: overdue before not,
// then status priority descending, then newest first. The sort is stable so
// re-applying it to sorted input is a no-op.
func SortForDisplay(complaints []models.Complaint, now time.Time) {
	sort.SliceStable(complaints, func(i, j int) bool {
		oi := complaints[i].Deadline != nil && now.After(*complaints[i].Deadline)
		oj := complaints[j].Deadline != nil && now.After(*complaints[j].Deadline)
		if oi != oj {
			return oi
		}
		pi := statusPriority[complaints[i].Status]
		pj := statusPriority[complaints[j].Status]
		if pi != pj {
			return pi > pj
		}
		return complaints[i].CreatedDate.After(complaints[j].CreatedDate)
	})
}
