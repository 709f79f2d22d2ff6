package handlers

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/models"
	templates "github.com/civiclens/civic-complaints-api/templates/html"
)

// Mailer sends citizen-facing notification emails
type Mailer interface {
	SendResolutionNotice(citizen models.User, complaint models.Complaint) error
}

type sendgridMailer struct {
	apiKey  string
	baseURL string
}

// NewSendgridMailer returns a Mailer backed by SendGrid, or nil when no API
// key is configured so callers can skip notifications in dev environments.
func NewSendgridMailer(apiKey, baseURL string) Mailer {
	if apiKey == "" {
		return nil
	}
	return &sendgridMailer{apiKey: apiKey, baseURL: baseURL}
}

func (s *sendgridMailer) SendResolutionNotice(citizen models.User, complaint models.Complaint) error {
	notes := ""
	if complaint.ResolutionDetails != nil {
		notes = complaint.ResolutionDetails.ResolutionNotes
	}
	trackingLink := fmt.Sprintf("%s/complaints/%s", s.baseURL, complaint.ID.Hex())

	from := mail.NewEmail("CivicLens", "no-reply@civiclens.example.org")
	subject := "Your complaint has been resolved"
	to := mail.NewEmail(citizen.Name, citizen.Email)
	plain := fmt.Sprintf("Hello %s, your complaint %q has been resolved. %s\nTrack it here: %s",
		citizen.Name, complaint.Title, notes, trackingLink)
	html := templates.RenderResolutionEmail(citizen.Name, complaint.Title, notes, trackingLink)

	msg := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(s.apiKey)
	resp, err := client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	zap.S().Infow("resolution notice sent", "complaintID", complaint.ID.Hex())
	return nil
}
