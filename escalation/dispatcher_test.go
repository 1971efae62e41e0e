package escalation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicvoice-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func escalatedIssue(notifiedAt *time.Time) *models.Issue {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       "Deep pothole near the market",
		Description: "Two-wheeler hazard, growing every week",
		Category:    models.Potholes,
		Severity:    models.SeverityHigh,
		Status:      models.StatusNotified,
		ReportedBy:  primitive.NewObjectID(),
		Images:      []string{"https://img.example/pothole.jpg"},
		Location: models.Location{
			Latitude:  18.52,
			Longitude: 73.85,
			City:      "Pune",
			State:     "Maharashtra",
			Country:   "India",
		},
		Upvotes:       5,
		UpvotedBy:     []string{"u1", "u2", "u3", "u4", "u5"},
		CommentsCount: 2,
		CreatedAt:     created,
		NotifiedAt:    notifiedAt,
	}
}

func TestBuildPayloadFields(t *testing.T) {
	notified := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	issue := escalatedIssue(&notified)
	authorities := []models.Authority{{
		Name:              "Pune Road Department",
		ContactEmail:      "roads@pune.gov",
		City:              "Pune",
		State:             "Maharashtra",
		DepartmentType:    models.DeptRoad,
		HandledCategories: []string{"potholes", "damaged_roads"},
		NotifyByEmail:     true,
	}}

	payload := BuildPayload(issue, authorities)

	assert.Equal(t, issue.ID.Hex(), payload.IssueID)
	assert.Equal(t, "potholes", payload.Category)
	assert.Equal(t, "high", payload.Severity)
	assert.Equal(t, issue.Description, payload.Description)
	assert.Equal(t, "notified", payload.Status)
	assert.Equal(t, 5, payload.Upvotes)
	assert.Equal(t, 5, payload.Verifications)
	assert.Equal(t, issue.ReportedBy.Hex(), payload.ReportedBy)
	assert.Equal(t, "2026-03-14T09:30:00Z", payload.CreatedAt)
	assert.Equal(t, issue.Location, payload.Location)
	assert.Equal(t, issue.Images, payload.Images)
	assert.Equal(t, 2, payload.CommentsCount)
	assert.Equal(t, "2026-03-15T12:00:00Z", payload.NotifiedAt)

	require.Len(t, payload.Authorities, 1)
	contact := payload.Authorities[0]
	assert.Equal(t, "Pune Road Department", contact.Name)
	assert.Equal(t, "roads@pune.gov", contact.Email)
	assert.Equal(t, "Pune", contact.City)
	assert.Equal(t, "Maharashtra", contact.State)
	assert.Equal(t, models.DeptRoad, contact.DepartmentType)
	assert.Equal(t, []string{"potholes", "damaged_roads"}, contact.HandledCategories)
}

func TestBuildPayloadUnsetNotifiedAtIsEmptyString(t *testing.T) {
	payload := BuildPayload(escalatedIssue(nil), nil)
	assert.Equal(t, "", payload.NotifiedAt)
	assert.NotNil(t, payload.Images)
	assert.Empty(t, payload.Authorities)
}

func TestPriorityScore(t *testing.T) {
	issue := escalatedIssue(nil)

	// severity high (3*10) + 5 upvotes * 2 + 2 comments
	assert.Equal(t, 42, PriorityScore(issue))

	issue.Severity = models.SeverityLow
	assert.Equal(t, 22, PriorityScore(issue))

	issue.Severity = models.SeverityMedium
	assert.Equal(t, 32, PriorityScore(issue))
}

func TestNotifyPostsPayloadToWebhook(t *testing.T) {
	var received NotifyPayload
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, "", "", "")
	issue := escalatedIssue(nil)

	err := d.Notify(context.Background(), issue, []models.Authority{{
		Name:          "Pune Road Department",
		ContactEmail:  "roads@pune.gov",
		NotifyByEmail: true,
	}})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, issue.ID.Hex(), received.IssueID)
	assert.Equal(t, "potholes", received.Category)
	require.Len(t, received.Authorities, 1)
	assert.Equal(t, "roads@pune.gov", received.Authorities[0].Email)
}

func TestNotifyReportsWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, "", "", "")
	err := d.Notify(context.Background(), escalatedIssue(nil), nil)

	require.Error(t, err)
	var notifyErr *NotificationError
	require.ErrorAs(t, err, &notifyErr)
	assert.Contains(t, notifyErr.Error(), "502")
}

func TestNotifyUnreachableWebhook(t *testing.T) {
	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	d := NewDispatcher(url, "", "", "")
	err := d.Notify(context.Background(), escalatedIssue(nil), nil)

	require.Error(t, err)
	var notifyErr *NotificationError
	assert.ErrorAs(t, err, &notifyErr)
}

func TestNotifyWithoutChannelsIsNoop(t *testing.T) {
	d := NewDispatcher("", "", "", "")
	err := d.Notify(context.Background(), escalatedIssue(nil), nil)
	assert.NoError(t, err)
}
