// Package store owns the organization and complaint collections. Every
// mutation is a read-modify-write of the whole collection: the new state is
// marshalled and written to the key-value layer first, and the in-memory copy
// is swapped in only after the write succeeds.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/complaintdesk/backend/internal/kv"
	"github.com/complaintdesk/backend/internal/models"
	"github.com/complaintdesk/backend/internal/service"
)

const (
	keyOrganizations = "organizations"
	keyComplaints    = "complaints"
)

// UnknownOrganization is rendered for complaints whose organization reference
// dangles after a deletion.
const UnknownOrganization = "Unknown Organization"

type Store struct {
	mu sync.Mutex
	kv kv.Store

	now   func() time.Time
	newID func() string

	orgs       []models.Organization
	complaints []models.Complaint
}

// Open loads both collections from the key-value backend. Missing keys mean a
// first run and load as empty collections.
func Open(ctx context.Context, backend kv.Store) (*Store, error) {
	s := &Store{
		kv:    backend,
		now:   time.Now,
		newID: uuid.NewString,
	}
	if err := loadCollection(ctx, backend, keyOrganizations, &s.orgs); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, backend, keyComplaints, &s.complaints); err != nil {
		return nil, err
	}
	return s, nil
}

func loadCollection[T any](ctx context.Context, backend kv.Store, key string, out *[]T) error {
	data, err := backend.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *Store) persistOrganizations(ctx context.Context, orgs []models.Organization) error {
	data, err := json.Marshal(orgs)
	if err != nil {
		return &PersistenceError{Key: keyOrganizations, Err: err}
	}
	if err := s.kv.Put(ctx, keyOrganizations, data); err != nil {
		return &PersistenceError{Key: keyOrganizations, Err: err}
	}
	return nil
}

func (s *Store) persistComplaints(ctx context.Context, complaints []models.Complaint) error {
	data, err := json.Marshal(complaints)
	if err != nil {
		return &PersistenceError{Key: keyComplaints, Err: err}
	}
	if err := s.kv.Put(ctx, keyComplaints, data); err != nil {
		return &PersistenceError{Key: keyComplaints, Err: err}
	}
	return nil
}

func (s *Store) validateOrganization(org models.Organization, excludeID string) error {
	if strings.TrimSpace(org.Name) == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	for _, existing := range s.orgs {
		if existing.ID == excludeID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(existing.Name), strings.TrimSpace(org.Name)) {
			return &ValidationError{Field: "name", Reason: "an organization with this name already exists"}
		}
	}
	if org.ResponseTimeDays <= 0 {
		return &ValidationError{Field: "responseTimeDays", Reason: "response time must be a positive number of days"}
	}
	if org.EscalationTimeDays <= org.ResponseTimeDays {
		return &ValidationError{Field: "escalationTimeDays", Reason: "escalation time must be greater than response time"}
	}
	return nil
}

// CreateOrganization validates and appends a new organization. The id on the
// input is ignored; a fresh one is assigned.
func (s *Store) CreateOrganization(ctx context.Context, org models.Organization) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateOrganization(org, ""); err != nil {
		return models.Organization{}, err
	}
	org.ID = s.newID()

	next := make([]models.Organization, len(s.orgs), len(s.orgs)+1)
	copy(next, s.orgs)
	next = append(next, org)
	if err := s.persistOrganizations(ctx, next); err != nil {
		return models.Organization{}, err
	}
	s.orgs = next
	return org, nil
}

// UpdateOrganization overwrites the record in place, preserving its id. The
// organization being edited is excluded from the uniqueness check.
func (s *Store) UpdateOrganization(ctx context.Context, id string, org models.Organization) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, existing := range s.orgs {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Organization{}, ErrNotFound
	}
	if err := s.validateOrganization(org, id); err != nil {
		return models.Organization{}, err
	}
	org.ID = id

	next := make([]models.Organization, len(s.orgs))
	copy(next, s.orgs)
	next[idx] = org
	if err := s.persistOrganizations(ctx, next); err != nil {
		return models.Organization{}, err
	}
	s.orgs = next
	return org, nil
}

// DeleteOrganization removes the organization unconditionally. Complaints
// referencing it keep the stale id; the returned count tells the caller how
// many are affected so it can warn the user.
func (s *Store) DeleteOrganization(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, existing := range s.orgs {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrNotFound
	}

	referencing := 0
	for _, c := range s.complaints {
		if c.OrganizationID == id {
			referencing++
		}
	}

	next := make([]models.Organization, 0, len(s.orgs)-1)
	next = append(next, s.orgs[:idx]...)
	next = append(next, s.orgs[idx+1:]...)
	if err := s.persistOrganizations(ctx, next); err != nil {
		return 0, err
	}
	s.orgs = next
	return referencing, nil
}

// GetOrganization looks up an organization by id.
func (s *Store) GetOrganization(id string) (models.Organization, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, org := range s.orgs {
		if org.ID == id {
			return org, true
		}
	}
	return models.Organization{}, false
}

// ListOrganizations returns a copy of the collection in insertion order.
func (s *Store) ListOrganizations() []models.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Organization, len(s.orgs))
	copy(out, s.orgs)
	return out
}

// OrganizationName resolves an organization id to its display name, falling
// back to UnknownOrganization for dangling references.
func (s *Store) OrganizationName(id string) string {
	if org, ok := s.GetOrganization(id); ok {
		return org.Name
	}
	return UnknownOrganization
}

// CreateComplaint populates the generated fields and appends the complaint.
// Free-text validation is the caller's contract; the store only derives state.
// The deadline is computed once, and only if the organization resolves now.
func (s *Store) CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.newID()
	c.CreatedDate = s.now()
	c.Status = models.StatusSubmitted
	c.Updates = []models.ComplaintUpdate{}
	c.Deadline = nil
	for _, org := range s.orgs {
		if org.ID == c.OrganizationID {
			d := service.Deadline(c.CreatedDate, org)
			c.Deadline = &d
			break
		}
	}

	next := make([]models.Complaint, len(s.complaints), len(s.complaints)+1)
	copy(next, s.complaints)
	next = append(next, c)
	if err := s.persistComplaints(ctx, next); err != nil {
		return models.Complaint{}, err
	}
	s.complaints = next
	return c, nil
}

// ComplaintPatch is a shallow partial update. Nil fields are left untouched.
type ComplaintPatch struct {
	OrganizationID  *string
	Title           *string
	Description     *string
	DesiredOutcome  *string
	Contact         *models.ContactDetails
	IncidentDate    *string
	ReferenceNumber *string
	PreviousContact *string
	Status          *models.Status
}

// UpdateComplaint merges the patch into the record and appends one entry to
// its update log. Status changes must follow the lifecycle; everything else
// merges freely. createdDate and deadline are never touched.
func (s *Store) UpdateComplaint(ctx context.Context, id string, patch ComplaintPatch) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, existing := range s.complaints {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Complaint{}, ErrNotFound
	}

	c := s.complaints[idx]
	if patch.Status != nil && *patch.Status != c.Status {
		if !service.CanTransition(c.Status, *patch.Status) {
			return models.Complaint{}, &TransitionError{From: c.Status, To: *patch.Status}
		}
	}

	details := map[string]any{}
	if patch.OrganizationID != nil {
		c.OrganizationID = *patch.OrganizationID
		details["organizationId"] = *patch.OrganizationID
	}
	if patch.Title != nil {
		c.Title = *patch.Title
		details["title"] = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
		details["description"] = *patch.Description
	}
	if patch.DesiredOutcome != nil {
		c.DesiredOutcome = *patch.DesiredOutcome
		details["desiredOutcome"] = *patch.DesiredOutcome
	}
	if patch.Contact != nil {
		c.Contact = *patch.Contact
		details["contactDetails"] = *patch.Contact
	}
	if patch.IncidentDate != nil {
		c.IncidentDate = *patch.IncidentDate
		details["incidentDate"] = *patch.IncidentDate
	}
	if patch.ReferenceNumber != nil {
		c.ReferenceNumber = *patch.ReferenceNumber
		details["referenceNumber"] = *patch.ReferenceNumber
	}
	if patch.PreviousContact != nil {
		c.PreviousContact = *patch.PreviousContact
		details["previousContact"] = *patch.PreviousContact
	}
	if patch.Status != nil {
		c.Status = *patch.Status
		details["status"] = string(*patch.Status)
	}

	// Every patch logs as status_change, status-bearing or not. The original
	// behaves this way and exported histories depend on it.
	c.Updates = append(append([]models.ComplaintUpdate{}, s.complaints[idx].Updates...), models.ComplaintUpdate{
		Date:    s.now(),
		Type:    "status_change",
		Details: details,
	})

	next := make([]models.Complaint, len(s.complaints))
	copy(next, s.complaints)
	next[idx] = c
	if err := s.persistComplaints(ctx, next); err != nil {
		return models.Complaint{}, err
	}
	s.complaints = next
	return c, nil
}

// DeleteComplaint removes the record.
func (s *Store) DeleteComplaint(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, existing := range s.complaints {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	next := make([]models.Complaint, 0, len(s.complaints)-1)
	next = append(next, s.complaints[:idx]...)
	next = append(next, s.complaints[idx+1:]...)
	if err := s.persistComplaints(ctx, next); err != nil {
		return err
	}
	s.complaints = next
	return nil
}

// GetComplaint looks up a complaint by id.
func (s *Store) GetComplaint(id string) (models.Complaint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.ID == id {
			return c, true
		}
	}
	return models.Complaint{}, false
}

// Query returns complaints matching the ANDed filters in insertion order.
// Search matches the rendered organization name, so a dangling reference
// matches "Unknown Organization".
func (s *Store) Query(filter service.QueryFilter) []models.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := map[string]string{}
	for _, org := range s.orgs {
		names[org.ID] = org.Name
	}

	var out []models.Complaint
	for _, c := range s.complaints {
		name, ok := names[c.OrganizationID]
		if !ok {
			name = UnknownOrganization
		}
		if filter.Matches(c, name) {
			out = append(out, c)
		}
	}
	return out
}

// SortForDisplay orders a listing most-urgent-first at the current instant.
func (s *Store) SortForDisplay(complaints []models.Complaint) {
	service.SortForDisplay(complaints, s.now())
}

// Derive computes the read-time facts for a complaint.
func (s *Store) Derive(c models.Complaint) models.DerivedFacts {
	return service.Derive(c, s.now())
}
