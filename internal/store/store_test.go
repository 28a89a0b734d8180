package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complaintdesk/backend/internal/kv"
	"github.com/complaintdesk/backend/internal/models"
	"github.com/complaintdesk/backend/internal/service"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s, err := Open(context.Background(), backend)
	require.NoError(t, err)
	return s
}

func testOrg(name string) models.Organization {
	return models.Organization{
		Name:               name,
		Type:               "Retailer",
		ContactEmail:       "complaints@example.com",
		ResponseTimeDays:   14,
		EscalationTimeDays: 28,
	}
}

func testComplaint(orgID string) models.Complaint {
	return models.Complaint{
		OrganizationID: orgID,
		Title:          "Damaged goods",
		Description:    "The order arrived broken",
		DesiredOutcome: "Replacement",
		Contact: models.ContactDetails{
			FullName:         "Sam Doe",
			Email:            "sam@example.com",
			PreferredContact: "email",
		},
	}
}

func TestCreateOrganizationValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		org   models.Organization
		field string
	}{
		{"empty name", testOrg("  "), "name"},
		{"zero response time", models.Organization{Name: "A", ResponseTimeDays: 0, EscalationTimeDays: 10}, "responseTimeDays"},
		{"escalation equals response", models.Organization{Name: "A", ResponseTimeDays: 10, EscalationTimeDays: 10}, "escalationTimeDays"},
		{"escalation below response", models.Organization{Name: "A", ResponseTimeDays: 10, EscalationTimeDays: 5}, "escalationTimeDays"},
	}
	for _, tc := range cases {
		_, err := s.CreateOrganization(ctx, tc.org)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, tc.name)
		assert.Equal(t, tc.field, validationErr.Field, tc.name)
	}
	assert.Empty(t, s.ListOrganizations(), "no partial writes on validation failure")
}

func TestCreateOrganizationNameUniqueCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateOrganization(ctx, testOrg("Acme Retail"))
	require.NoError(t, err)

	_, err = s.CreateOrganization(ctx, testOrg("ACME retail"))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
	assert.Len(t, s.ListOrganizations(), 1)
}

func TestUpdateOrganizationExcludesSelfFromUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, testOrg("Acme Retail"))
	require.NoError(t, err)
	_, err = s.CreateOrganization(ctx, testOrg("Other Org"))
	require.NoError(t, err)

	// Same name, same record: fine.
	updated, err := s.UpdateOrganization(ctx, org.ID, testOrg("Acme Retail"))
	require.NoError(t, err)
	assert.Equal(t, org.ID, updated.ID)

	// Renaming onto the other record's name: rejected.
	_, err = s.UpdateOrganization(ctx, org.ID, testOrg("other org"))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateOrganizationNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateOrganization(context.Background(), "missing", testOrg("X"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateComplaintDeadlineFromOrganization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }

	org, err := s.CreateOrganization(ctx, models.Organization{
		Name: "Slow Corp", ResponseTimeDays: 30, EscalationTimeDays: 60,
	})
	require.NoError(t, err)

	c, err := s.CreateComplaint(ctx, testComplaint(org.ID))
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.StatusSubmitted, c.Status)
	assert.Equal(t, created, c.CreatedDate)
	require.NotNil(t, c.Deadline)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *c.Deadline)
	assert.Empty(t, c.Updates)
}

func TestCreateComplaintDanglingOrganizationNoDeadline(t *testing.T) {
	s := newTestStore(t)
	c, err := s.CreateComplaint(context.Background(), testComplaint("no-such-org"))
	require.NoError(t, err)
	assert.Nil(t, c.Deadline)
	assert.False(t, s.Derive(c).IsOverdue)
}

func TestDeadlineNotRecomputedWhenOrganizationChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	org, err := s.CreateOrganization(ctx, models.Organization{
		Name: "Slow Corp", ResponseTimeDays: 30, EscalationTimeDays: 60,
	})
	require.NoError(t, err)
	c, err := s.CreateComplaint(ctx, testComplaint(org.ID))
	require.NoError(t, err)
	original := *c.Deadline

	org.ResponseTimeDays = 5
	org.EscalationTimeDays = 10
	_, err = s.UpdateOrganization(ctx, org.ID, org)
	require.NoError(t, err)

	got, ok := s.GetComplaint(c.ID)
	require.True(t, ok)
	assert.Equal(t, original, *got.Deadline)
}

func TestUpdateComplaintMergesAndLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateComplaint(ctx, testComplaint("org"))
	require.NoError(t, err)

	title := "Damaged goods, second attempt"
	status := models.StatusAcknowledged
	updated, err := s.UpdateComplaint(ctx, c.ID, ComplaintPatch{Title: &title, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, models.StatusAcknowledged, updated.Status)
	assert.Equal(t, c.Description, updated.Description, "unpatched fields untouched")
	require.Len(t, updated.Updates, 1)
	assert.Equal(t, "status_change", updated.Updates[0].Type)
	assert.Equal(t, title, updated.Updates[0].Details["title"])
	assert.Equal(t, "acknowledged", updated.Updates[0].Details["status"])
}

func TestUpdateComplaintNotFoundLeavesCollectionUnchanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateComplaint(ctx, testComplaint("org"))
	require.NoError(t, err)

	before := s.Query(service.QueryFilter{})

	status := models.StatusResolved
	_, err = s.UpdateComplaint(ctx, "missing", ComplaintPatch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)

	after := s.Query(service.QueryFilter{})
	require.Len(t, after, len(before))
	assert.Equal(t, c, after[0])
}

func TestUpdateComplaintRejectsIllegalTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateComplaint(ctx, testComplaint("org"))
	require.NoError(t, err)

	status := models.StatusEscalation
	_, err = s.UpdateComplaint(ctx, c.ID, ComplaintPatch{Status: &status})
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.StatusSubmitted, transitionErr.From)

	got, _ := s.GetComplaint(c.ID)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Empty(t, got.Updates, "rejected patch logs nothing")
}

func TestResolvedIsTerminalForStatusButNotFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateComplaint(ctx, testComplaint("org"))
	require.NoError(t, err)

	resolved := models.StatusResolved
	_, err = s.UpdateComplaint(ctx, c.ID, ComplaintPatch{Status: &resolved})
	require.NoError(t, err)

	back := models.StatusSubmitted
	_, err = s.UpdateComplaint(ctx, c.ID, ComplaintPatch{Status: &back})
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)

	// Contact corrections still land on a resolved complaint.
	ref := "REF-42"
	updated, err := s.UpdateComplaint(ctx, c.ID, ComplaintPatch{ReferenceNumber: &ref})
	require.NoError(t, err)
	assert.Equal(t, "REF-42", updated.ReferenceNumber)
	assert.Equal(t, models.StatusResolved, updated.Status)
}

func TestDeleteOrganizationReportsReferencingComplaints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, testOrg("Acme Retail"))
	require.NoError(t, err)
	_, err = s.CreateComplaint(ctx, testComplaint(org.ID))
	require.NoError(t, err)
	c2, err := s.CreateComplaint(ctx, testComplaint(org.ID))
	require.NoError(t, err)

	referencing, err := s.DeleteOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, referencing)

	// Complaints keep the stale id and render as unknown.
	got, ok := s.GetComplaint(c2.ID)
	require.True(t, ok)
	assert.Equal(t, org.ID, got.OrganizationID)
	assert.Equal(t, UnknownOrganization, s.OrganizationName(got.OrganizationID))
}

func TestDeleteComplaint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateComplaint(ctx, testComplaint("org"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteComplaint(ctx, c.ID))
	_, ok := s.GetComplaint(c.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, s.DeleteComplaint(ctx, c.ID), ErrNotFound)
}

func TestQueryStatusFilterPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var resolvedIDs []string
	for i := 0; i < 5; i++ {
		c, err := s.CreateComplaint(ctx, testComplaint("org"))
		require.NoError(t, err)
		if i == 1 || i == 3 {
			resolved := models.StatusResolved
			_, err = s.UpdateComplaint(ctx, c.ID, ComplaintPatch{Status: &resolved})
			require.NoError(t, err)
			resolvedIDs = append(resolvedIDs, c.ID)
		}
	}

	got := s.Query(service.QueryFilter{Status: models.StatusResolved})
	require.Len(t, got, 2)
	assert.Equal(t, resolvedIDs[0], got[0].ID)
	assert.Equal(t, resolvedIDs[1], got[1].ID)
}

func TestQuerySearchMatchesOrganizationName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, testOrg("Acme Retail"))
	require.NoError(t, err)
	c, err := s.CreateComplaint(ctx, testComplaint(org.ID))
	require.NoError(t, err)
	_, err = s.CreateComplaint(ctx, testComplaint("dangling"))
	require.NoError(t, err)

	got := s.Query(service.QueryFilter{Search: "acme"})
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)

	// Dangling references render, and therefore match, as Unknown Organization.
	got = s.Query(service.QueryFilter{Search: "unknown organization"})
	require.Len(t, got, 1)
}

func TestStoreReloadsFromBackend(t *testing.T) {
	backend, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	s1, err := Open(ctx, backend)
	require.NoError(t, err)
	org, err := s1.CreateOrganization(ctx, testOrg("Acme Retail"))
	require.NoError(t, err)
	c, err := s1.CreateComplaint(ctx, testComplaint(org.ID))
	require.NoError(t, err)

	s2, err := Open(ctx, backend)
	require.NoError(t, err)
	got, ok := s2.GetComplaint(c.ID)
	require.True(t, ok)
	assert.Equal(t, c.Title, got.Title)
	assert.Len(t, s2.ListOrganizations(), 1)
}

// failingKV accepts reads but refuses writes, simulating a full or unavailable
// storage medium.
type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, kv.ErrNotFound }
func (failingKV) Put(context.Context, string, []byte) error   { return errors.New("quota exceeded") }
func (failingKV) Ping(context.Context) error                  { return nil }
func (failingKV) Close() error                                { return nil }

func TestPersistenceFailureKeepsMemoryIntact(t *testing.T) {
	s, err := Open(context.Background(), failingKV{})
	require.NoError(t, err)

	_, err = s.CreateOrganization(context.Background(), testOrg("Acme Retail"))
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Empty(t, s.ListOrganizations(), "failed write must not leave a phantom record")

	_, err = s.CreateComplaint(context.Background(), testComplaint("org"))
	require.ErrorAs(t, err, &persistErr)
	assert.Empty(t, s.Query(service.QueryFilter{}))
}
