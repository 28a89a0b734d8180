package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/complaintdesk/backend/internal/models"
)

// ExportVersion is stamped on every exported document.
const ExportVersion = "1.0"

// ExportDocument is the interchange format for backup and migration.
type ExportDocument struct {
	Complaints    []models.Complaint    `json:"complaints"`
	Organizations []models.Organization `json:"organizations"`
	ExportDate    time.Time             `json:"exportDate"`
	Version       string                `json:"version"`
}

// ImportSummary reports what an import changed.
type ImportSummary struct {
	OrganizationsAdded  int `json:"organizationsAdded"`
	OrganizationsMerged int `json:"organizationsMerged"`
	ComplaintsAdded     int `json:"complaintsAdded"`
}

// Export snapshots both collections.
func (s *Store) Export() ExportDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := ExportDocument{
		Complaints:    make([]models.Complaint, len(s.complaints)),
		Organizations: make([]models.Organization, len(s.orgs)),
		ExportDate:    s.now(),
		Version:       ExportVersion,
	}
	copy(doc.Complaints, s.complaints)
	copy(doc.Organizations, s.orgs)
	return doc
}

// Import merges a document of the export shape. Both collections must be
// present and array-shaped or the whole import is rejected. Every incoming
// record gets a fresh id; organizations merge into an existing one when a
// case-insensitive name match exists, and complaints append unconditionally
// with their organization reference remapped through the id translation.
func (s *Store) Import(ctx context.Context, raw []byte) (ImportSummary, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return ImportSummary{}, &ImportFormatError{Reason: "document is not a JSON object"}
	}

	orgsRaw, ok := shape["organizations"]
	if !ok {
		return ImportSummary{}, &ImportFormatError{Reason: "organizations collection missing"}
	}
	complaintsRaw, ok := shape["complaints"]
	if !ok {
		return ImportSummary{}, &ImportFormatError{Reason: "complaints collection missing"}
	}

	// A JSON null unmarshals into a nil slice without error, so it would slip
	// through as an empty collection. Null is not array-shaped.
	var incomingOrgs []models.Organization
	if err := json.Unmarshal(orgsRaw, &incomingOrgs); err != nil || incomingOrgs == nil {
		return ImportSummary{}, &ImportFormatError{Reason: "organizations is not an array of organizations"}
	}
	var incomingComplaints []models.Complaint
	if err := json.Unmarshal(complaintsRaw, &incomingComplaints); err != nil || incomingComplaints == nil {
		return ImportSummary{}, &ImportFormatError{Reason: "complaints is not an array of complaints"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byName := map[string]string{}
	for _, org := range s.orgs {
		byName[strings.ToLower(strings.TrimSpace(org.Name))] = org.ID
	}

	summary := ImportSummary{}
	idMap := map[string]string{}

	nextOrgs := make([]models.Organization, len(s.orgs))
	copy(nextOrgs, s.orgs)
	for _, org := range incomingOrgs {
		key := strings.ToLower(strings.TrimSpace(org.Name))
		if existingID, ok := byName[key]; ok {
			idMap[org.ID] = existingID
			summary.OrganizationsMerged++
			continue
		}
		oldID := org.ID
		org.ID = s.newID()
		idMap[oldID] = org.ID
		byName[key] = org.ID
		nextOrgs = append(nextOrgs, org)
		summary.OrganizationsAdded++
	}

	nextComplaints := make([]models.Complaint, len(s.complaints))
	copy(nextComplaints, s.complaints)
	for _, c := range incomingComplaints {
		c.ID = s.newID()
		if mapped, ok := idMap[c.OrganizationID]; ok {
			c.OrganizationID = mapped
		}
		nextComplaints = append(nextComplaints, c)
		summary.ComplaintsAdded++
	}

	if err := s.persistOrganizations(ctx, nextOrgs); err != nil {
		return ImportSummary{}, err
	}
	if err := s.persistComplaints(ctx, nextComplaints); err != nil {
		return ImportSummary{}, err
	}
	s.orgs = nextOrgs
	s.complaints = nextComplaints
	return summary, nil
}
