package escalation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"civicvoice-be/models"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// AuthorityContact is the authority block of the notification payload.
type AuthorityContact struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	DepartmentType    string   `json:"departmentType"`
	HandledCategories []string `json:"handledCategories"`
}

// NotifyPayload is the wire contract of the outbound notification webhook.
// Field names are depended on by downstream consumers; do not rename.
type NotifyPayload struct {
	IssueID       string             `json:"issueId"`
	Category      string             `json:"category"`
	Severity      string             `json:"severity"`
	Description   string             `json:"description"`
	Status        string             `json:"status"`
	Upvotes       int                `json:"upvotes"`
	Verifications int                `json:"verifications"`
	ReportedBy    string             `json:"reportedBy"`
	CreatedAt     string             `json:"createdAt"`
	Location      models.Location    `json:"location"`
	Images        []string           `json:"images"`
	Authorities   []AuthorityContact `json:"authorities"`
	PriorityScore int                `json:"priorityScore"`
	CommentsCount int                `json:"commentsCount"`
	NotifiedAt    string             `json:"notifiedAt"`
}

// NotificationError wraps a failed dispatch attempt. It is only ever
// logged; a dispatch failure never rolls back the escalation that
// triggered it.
type NotificationError struct {
	IssueID string
	Reason  string
	Err     error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notify issue %s: %s: %v", e.IssueID, e.Reason, e.Err)
	}
	return fmt.Sprintf("notify issue %s: %s", e.IssueID, e.Reason)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Dispatcher sends escalation notifications to the outbound webhook agent,
// or directly to authorities over SendGrid when no webhook is configured.
// Delivery is best-effort, at-most-once, no retries.
type Dispatcher struct {
	webhookURL string
	client     *http.Client
	sendgrid   *sendgrid.Client
	fromName   string
	fromEmail  string
}

// NewDispatcher builds a dispatcher. Either webhookURL or the SendGrid
// settings may be empty; with both empty the dispatcher is a logged no-op.
func NewDispatcher(webhookURL, sendGridKey, fromName, fromEmail string) *Dispatcher {
	d := &Dispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
		fromName:   fromName,
		fromEmail:  fromEmail,
	}
	if sendGridKey != "" {
		d.sendgrid = sendgrid.NewSendClient(sendGridKey)
	}
	return d
}

// BuildPayload constructs the deterministic notification payload for an
// issue and its resolved authorities.
func BuildPayload(issue *models.Issue, authorities []models.Authority) NotifyPayload {
	contacts := make([]AuthorityContact, 0, len(authorities))
	for _, a := range authorities {
		contacts = append(contacts, AuthorityContact{
			Name:              a.Name,
			Email:             a.ContactEmail,
			City:              a.City,
			State:             a.State,
			DepartmentType:    a.DepartmentType,
			HandledCategories: a.HandledCategories,
		})
	}

	notifiedAt := ""
	if issue.NotifiedAt != nil {
		notifiedAt = issue.NotifiedAt.UTC().Format(time.RFC3339)
	}

	images := issue.Images
	if images == nil {
		images = []string{}
	}

	return NotifyPayload{
		IssueID:       issue.ID.Hex(),
		Category:      string(issue.Category),
		Severity:      string(issue.Severity),
		Description:   issue.Description,
		Status:        string(issue.Status),
		Upvotes:       issue.Upvotes,
		Verifications: issue.Upvotes,
		ReportedBy:    issue.ReportedBy.Hex(),
		CreatedAt:     issue.CreatedAt.UTC().Format(time.RFC3339),
		Location:      issue.Location,
		Images:        images,
		Authorities:   contacts,
		PriorityScore: PriorityScore(issue),
		CommentsCount: issue.CommentsCount,
		NotifiedAt:    notifiedAt,
	}
}

// PriorityScore ranks an issue for the receiving authority: severity
// dominates, community support breaks ties.
func PriorityScore(issue *models.Issue) int {
	weight := 1
	switch issue.Severity {
	case models.SeverityMedium:
		weight = 2
	case models.SeverityHigh:
		weight = 3
	}
	return weight*10 + issue.Upvotes*2 + issue.CommentsCount
}

// Notify delivers the escalation notification. Callers run it after the
// escalating transaction has committed, off the request goroutine, and
// only log the returned error.
func (d *Dispatcher) Notify(ctx context.Context, issue *models.Issue, authorities []models.Authority) error {
	payload := BuildPayload(issue, authorities)

	if d.webhookURL != "" {
		return d.postWebhook(ctx, payload)
	}
	if d.sendgrid != nil {
		return d.sendDirect(payload)
	}

	log.Warnf("no notification channel configured, dropping escalation for issue %s", payload.IssueID)
	return nil
}

func (d *Dispatcher) postWebhook(ctx context.Context, payload NotifyPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &NotificationError{IssueID: payload.IssueID, Reason: "encode payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return &NotificationError{IssueID: payload.IssueID, Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return &NotificationError{IssueID: payload.IssueID, Reason: "webhook call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			IssueID: payload.IssueID,
			Reason:  fmt.Sprintf("webhook returned status %d", resp.StatusCode),
		}
	}

	log.Infof("escalation for issue %s dispatched to webhook (%d authorities)", payload.IssueID, len(payload.Authorities))
	return nil
}

// sendDirect emails each resolved authority. One failed recipient does not
// stop the others; the first failure is reported.
func (d *Dispatcher) sendDirect(payload NotifyPayload) error {
	if len(payload.Authorities) == 0 {
		log.Warnf("no authorities resolved for issue %s, nothing to email", payload.IssueID)
		return nil
	}

	var firstErr error
	for _, a := range payload.Authorities {
		if err := d.sendOneEmail(a, payload); err != nil {
			log.Warnf("error emailing authority %s for issue %s: %v", a.Email, payload.IssueID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return &NotificationError{IssueID: payload.IssueID, Reason: "direct email", Err: firstErr}
	}

	log.Infof("escalation for issue %s emailed to %d authorities", payload.IssueID, len(payload.Authorities))
	return nil
}

func (d *Dispatcher) sendOneEmail(authority AuthorityContact, payload NotifyPayload) error {
	from := mail.NewEmail(d.fromName, d.fromEmail)
	to := mail.NewEmail(authority.Name, authority.Email)
	subject := fmt.Sprintf("Escalated civic issue: %s in %s", payload.Category, payload.Location.City)

	body := fmt.Sprintf(
		"Issue %s (%s, severity %s) in %s, %s has been confirmed by %d upvotes.\n\n%s\n",
		payload.IssueID, payload.Category, payload.Severity,
		payload.Location.City, payload.Location.State,
		payload.Upvotes, payload.Description,
	)

	message := mail.NewSingleEmail(from, subject, to, body, body)
	resp, err := d.sendgrid.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
