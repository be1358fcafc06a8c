// Package store defines persistence interfaces for the submission portal.
package store

import (
	"context"
	"errors"

	"github.com/andresqui0416/Melotech-Artist/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ListQuery describes a server-authoritative page of the submission list.
// Pagination, status filtering and search all happen in the database; the
// dashboard never filters or paginates a superset locally.
type ListQuery struct {
	Page   int           // 1-based
	Limit  int           // items per page
	Status models.Status // empty means all statuses
	Search string        // matches artist name, artist email and track titles
}

// ListPage is one page of submissions plus the total count for the query.
type ListPage struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int                  `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"totalPages"`
}

// SubmissionStore handles artist submissions and their reviews
type SubmissionStore interface {
	// CreateSubmission upserts the artist by email, inserts a PENDING
	// submission with its tracks, and returns the fully joined record.
	CreateSubmission(ctx context.Context, artist models.Artist, tracks []models.Track) (*models.Submission, error)

	// GetSubmission retrieves a submission with artist, tracks and reviews joined
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)

	// ListSubmissions returns one page of submissions matching the query,
	// newest first, plus the total match count.
	ListSubmissions(ctx context.Context, q ListQuery) (*ListPage, error)

	// UpdateSubmission sets status and team notes and returns the updated record
	UpdateSubmission(ctx context.Context, id string, status models.Status, notesForTeam string) (*models.Submission, error)

	// AddReview attaches a review to a submission
	AddReview(ctx context.Context, submissionID, reviewerID string, review models.Review) (*models.Review, error)

	// DeleteSubmission removes a submission and its tracks and reviews
	DeleteSubmission(ctx context.Context, id string) error
}

// TemplateStore handles database-stored email templates
type TemplateStore interface {
	// GetTemplate retrieves a template by its key
	GetTemplate(ctx context.Context, key string) (*models.EmailTemplate, error)

	// ListTemplates returns all templates, most recently updated first
	ListTemplates(ctx context.Context) ([]*models.EmailTemplate, error)

	// UpsertTemplate inserts or replaces a template by key
	UpsertTemplate(ctx context.Context, t *models.EmailTemplate) error
}

// UserStore handles staff accounts
type UserStore interface {
	// GetUserByEmail retrieves a user by email
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateUser inserts a new staff account
	CreateUser(ctx context.Context, u *models.User) error
}

// Store is the full persistence surface a portal instance runs on.
type Store interface {
	SubmissionStore
	TemplateStore
	UserStore

	// Ping verifies the database connection, for health checks
	Ping(ctx context.Context) error

	// Close closes the database connection
	Close() error
}
