// Package mailer sends templated artist notifications via SendGrid. Templates
// live in the store and use {{variable}} placeholders. Sending is always best
// effort: a failure is logged and never propagated to the triggering
// operation.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
)

// Template keys provisioned by the seeder.
const (
	TemplateSubmissionReceived = "submission-received"
	TemplateSubmissionInReview = "submission-in-review"
	TemplateSubmissionApproved = "submission-approved"
	TemplateSubmissionRejected = "submission-rejected"
)

// Mailer sends templated notification emails.
type Mailer struct {
	client    *sendgrid.Client
	templates store.TemplateStore
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// New creates a Mailer. An empty apiKey disables sending; Send then logs a
// warning and reports false, matching the portal's degrade-gracefully policy.
func New(apiKey string, templates store.TemplateStore, fromEmail, fromName string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mailer{
		templates: templates,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

// replaceVariables substitutes {{key}} placeholders in a template string.
func replaceVariables(template string, variables map[string]string) string {
	result := template
	for key, value := range variables {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// Send renders the stored template identified by templateKey and sends it to
// the given address. Returns whether an email was actually sent.
func (m *Mailer) Send(ctx context.Context, templateKey, toEmail string, variables map[string]string) bool {
	template, err := m.templates.GetTemplate(ctx, templateKey)
	if err != nil {
		m.logger.Error("email template not found",
			slog.String("template", templateKey),
			slog.String("error", err.Error()))
		return false
	}

	if m.client == nil {
		m.logger.Warn("SendGrid API key not configured, skipping email send",
			slog.String("template", templateKey),
			slog.String("to", toEmail))
		return false
	}

	subject := replaceVariables(template.Subject, variables)
	htmlBody := replaceVariables(template.HTMLBody, variables)

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.logger.Error("failed to send email",
			slog.String("template", templateKey),
			slog.String("to", toEmail),
			slog.String("error", err.Error()))
		return false
	}
	if resp.StatusCode >= 400 {
		m.logger.Error("SendGrid rejected email",
			slog.String("template", templateKey),
			slog.String("to", toEmail),
			slog.Int("status", resp.StatusCode))
		return false
	}

	m.logger.Info("email sent", slog.String("template", templateKey), slog.String("to", toEmail))
	return true
}

// SendSubmissionReceived notifies an artist that their submission arrived.
func (m *Mailer) SendSubmissionReceived(ctx context.Context, sub *models.Submission) bool {
	return m.Send(ctx, TemplateSubmissionReceived, sub.Artist.Email, map[string]string{
		"artistName":     sub.Artist.Name,
		"submissionId":   sub.ID,
		"trackCount":     strconv.Itoa(len(sub.Tracks)),
		"submissionDate": time.Now().Format("1/2/2006"),
		"currentStatus":  string(models.StatusPending),
	})
}

// SendStatusChange notifies an artist about a status transition. A change to
// PENDING sends nothing (the submission just arrived).
func (m *Mailer) SendStatusChange(ctx context.Context, sub *models.Submission, feedback string) bool {
	var templateKey string
	switch sub.Status {
	case models.StatusInReview:
		templateKey = TemplateSubmissionInReview
	case models.StatusApproved:
		templateKey = TemplateSubmissionApproved
	case models.StatusRejected:
		templateKey = TemplateSubmissionRejected
	default:
		return true
	}

	if feedback == "" {
		feedback = "No specific feedback provided at this time."
	}

	return m.Send(ctx, templateKey, sub.Artist.Email, map[string]string{
		"artistName":   sub.Artist.Name,
		"submissionId": sub.ID,
		"feedback":     feedback,
	})
}

// DefaultTemplates returns the built-in notification templates the seeder
// installs when none exist yet.
func DefaultTemplates() []*models.EmailTemplate {
	return []*models.EmailTemplate{
		{
			Key:     TemplateSubmissionReceived,
			Name:    "Submission received",
			Subject: "Demo Submission Received - Thank You!",
			HTMLBody: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Hello {{artistName}}!</h2>
<p>Thank you for submitting your music demo to our label. We've received your submission and our A&amp;R team will review it carefully.</p>
<div style="background-color: #f5f5f5; padding: 20px; border-radius: 8px;">
<h3>Submission Details</h3>
<p><strong>Submission ID:</strong> {{submissionId}}</p>
<p><strong>Tracks:</strong> {{trackCount}}</p>
<p><strong>Status:</strong> {{currentStatus}}</p>
<p><strong>Submitted:</strong> {{submissionDate}}</p>
</div>
<p>We typically review submissions within 2-4 weeks. You'll receive an email update once our team has reviewed your music.</p>
%s</div>`, signatureHTML),
		},
		{
			Key:     TemplateSubmissionInReview,
			Name:    "Submission in review",
			Subject: "Demo Submission Update - IN REVIEW",
			HTMLBody: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Hello {{artistName}}!</h2>
<p>Your submission {{submissionId}} is now being reviewed by our A&amp;R team.</p>
%s</div>`, signatureHTML),
		},
		{
			Key:     TemplateSubmissionApproved,
			Name:    "Submission approved",
			Subject: "Demo Submission Update - APPROVED",
			HTMLBody: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Hello {{artistName}}!</h2>
<p>Congratulations! Your submission {{submissionId}} has been approved.</p>
<div style="background-color: #e8f4fd; padding: 15px; border-radius: 8px;">
<h4>Feedback from our team:</h4>
<p>{{feedback}}</p>
</div>
%s</div>`, signatureHTML),
		},
		{
			Key:     TemplateSubmissionRejected,
			Name:    "Submission rejected",
			Subject: "Demo Submission Update - REJECTED",
			HTMLBody: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Hello {{artistName}}!</h2>
<p>Thank you for your submission {{submissionId}}, but unfortunately it doesn't fit our current needs.</p>
<div style="background-color: #e8f4fd; padding: 15px; border-radius: 8px;">
<h4>Feedback from our team:</h4>
<p>{{feedback}}</p>
</div>
%s</div>`, signatureHTML),
		},
	}
}

const signatureHTML = `<p>Best regards,<br>The A&amp;R Team</p>
<hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;">
<p style="font-size: 12px; color: #666;">This is an automated message. Please do not reply to this email.</p>`
