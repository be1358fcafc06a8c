// Package service defines the core portal service interface.
package service

import (
	"context"

	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
)

// SubmissionInput is the payload of a public demo submission.
type SubmissionInput struct {
	Artist models.Artist `json:"artist"`
	Tracks []TrackInput  `json:"tracks"`
}

// TrackInput describes one uploaded track in a submission payload. Either
// S3Key (direct-to-storage upload) or FileName (legacy local upload) locates
// the audio file.
type TrackInput struct {
	Title       string `json:"title"`
	Genre       string `json:"genre,omitempty"`
	BPM         int    `json:"bpm,omitempty"`
	Key         string `json:"key,omitempty"`
	Description string `json:"description,omitempty"`
	S3Key       string `json:"s3Key,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

// ReviewInput is the payload of a staff review.
type ReviewInput struct {
	Score             int    `json:"score"`
	InternalNotes     string `json:"internalNotes,omitempty"`
	FeedbackForArtist string `json:"feedbackForArtist,omitempty"`
}

// UpdateInput carries a status change and optional team notes.
type UpdateInput struct {
	Status       models.Status `json:"status"`
	NotesForTeam string        `json:"notesForTeam,omitempty"`
}

// PortalService defines the operations the HTTP layer delegates to. Every
// mutating operation publishes its event only after the store commit
// succeeds, and treats event delivery and email as best effort.
type PortalService interface {
	// CreateSubmission validates and persists a public demo submission,
	// broadcasts new-submission and emails the artist a confirmation.
	CreateSubmission(ctx context.Context, input *SubmissionInput) (*models.Submission, error)

	// GetSubmission retrieves a single submission with relations joined.
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)

	// ListSubmissions returns one server-authoritative page of submissions.
	ListSubmissions(ctx context.Context, q store.ListQuery) (*store.ListPage, error)

	// UpdateSubmission changes status/notes, broadcasts submission-updated
	// and emails the artist about the status change.
	UpdateSubmission(ctx context.Context, id string, input *UpdateInput) (*models.Submission, error)

	// AddReview attaches a staff review and broadcasts submission-updated
	// with the refreshed record.
	AddReview(ctx context.Context, submissionID, reviewerID string, input *ReviewInput) (*models.Review, error)

	// DeleteSubmission removes a submission and broadcasts submission-deleted.
	DeleteSubmission(ctx context.Context, id string) error

	// Subscribe returns a channel of portal events for a dashboard stream.
	Subscribe(ctx context.Context) (<-chan *events.Event, error)

	// Unsubscribe removes a subscription channel.
	Unsubscribe(ch <-chan *events.Event)

	// ListTemplates returns all email templates.
	ListTemplates(ctx context.Context) ([]*models.EmailTemplate, error)

	// SaveTemplate inserts or updates an email template by key.
	SaveTemplate(ctx context.Context, t *models.EmailTemplate) error

	// Seed provisions the admin account, default email templates and
	// sample submissions for local development.
	Seed(ctx context.Context) error
}
