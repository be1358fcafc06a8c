package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/andresqui0416/Melotech-Artist/auth"
	portalerrors "github.com/andresqui0416/Melotech-Artist/errors"
	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/mailer"
	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
	"github.com/andresqui0416/Melotech-Artist/uploads"
)

// Ensure Portal implements PortalService
var _ PortalService = (*Portal)(nil)

var (
	errStoreRequired     = errors.New("store is required")
	errPublisherRequired = errors.New("event publisher is required")
)

const emailTimeout = 30 * time.Second

// Config holds dependencies for the portal service.
type Config struct {
	Store          store.Store
	EventPublisher events.Publisher
	Mailer         *mailer.Mailer
	Signer         *uploads.Signer // optional; nil disables S3 URL resolution
	AdminEmail     string
	AdminPassword  string
	Logger         *slog.Logger
}

// Portal is the in-process implementation of PortalService.
type Portal struct {
	store          store.Store
	eventPublisher events.Publisher
	mailer         *mailer.Mailer
	signer         *uploads.Signer
	adminEmail     string
	adminPassword  string
	logger         *slog.Logger
}

// New creates a new Portal service instance.
func New(cfg Config) (*Portal, error) {
	if cfg.Store == nil {
		return nil, errStoreRequired
	}
	if cfg.EventPublisher == nil {
		return nil, errPublisherRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Portal{
		store:          cfg.Store,
		eventPublisher: cfg.EventPublisher,
		mailer:         cfg.Mailer,
		signer:         cfg.Signer,
		adminEmail:     cfg.AdminEmail,
		adminPassword:  cfg.AdminPassword,
		logger:         logger,
	}, nil
}

func (p *Portal) CreateSubmission(ctx context.Context, input *SubmissionInput) (*models.Submission, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(input.Tracks))
	for _, t := range input.Tracks {
		tracks = append(tracks, models.Track{
			Title:       t.Title,
			Genre:       t.Genre,
			BPM:         t.BPM,
			MusicalKey:  t.Key,
			Description: t.Description,
			OriginalURL: p.trackURL(t),
		})
	}

	sub, err := p.store.CreateSubmission(ctx, input.Artist, tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	p.publish(ctx, events.NewSubmissionEvent(sub))
	p.sendEmail(func(ctx context.Context) {
		p.mailer.SendSubmissionReceived(ctx, sub)
	})

	return sub, nil
}

// trackURL resolves where a submitted track's audio lives.
func (p *Portal) trackURL(t TrackInput) string {
	if t.S3Key != "" && p.signer != nil {
		return p.signer.ObjectURL(t.S3Key)
	}
	name := t.FileName
	if name == "" {
		name = t.Title
	}
	return "/uploads/" + name + ".mp3"
}

func (p *Portal) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	return p.store.GetSubmission(ctx, id)
}

func (p *Portal) ListSubmissions(ctx context.Context, q store.ListQuery) (*store.ListPage, error) {
	return p.store.ListSubmissions(ctx, q)
}

func (p *Portal) UpdateSubmission(ctx context.Context, id string, input *UpdateInput) (*models.Submission, error) {
	if !input.Status.Valid() {
		return nil, portalerrors.NewWithDetail(errors.New("invalid status"),
			portalerrors.StatusValidation,
			fmt.Sprintf("unknown submission status %q", input.Status))
	}

	sub, err := p.store.UpdateSubmission(ctx, id, input.Status, input.NotesForTeam)
	if err != nil {
		return nil, err
	}

	p.publish(ctx, events.SubmissionUpdatedEvent(sub))
	p.sendEmail(func(ctx context.Context) {
		p.mailer.SendStatusChange(ctx, sub, input.NotesForTeam)
	})

	return sub, nil
}

func (p *Portal) AddReview(ctx context.Context, submissionID, reviewerID string, input *ReviewInput) (*models.Review, error) {
	if input.Score < 1 || input.Score > 10 {
		return nil, portalerrors.NewWithDetail(errors.New("invalid score"),
			portalerrors.StatusValidation, "score must be between 1 and 10")
	}

	review, err := p.store.AddReview(ctx, submissionID, reviewerID, models.Review{
		Score:             input.Score,
		InternalNotes:     input.InternalNotes,
		FeedbackForArtist: input.FeedbackForArtist,
	})
	if err != nil {
		return nil, err
	}

	// Broadcast the refreshed record so open dashboards pick up the review
	if sub, err := p.store.GetSubmission(ctx, submissionID); err == nil {
		p.publish(ctx, events.SubmissionUpdatedEvent(sub))
	}

	return review, nil
}

func (p *Portal) DeleteSubmission(ctx context.Context, id string) error {
	if err := p.store.DeleteSubmission(ctx, id); err != nil {
		return err
	}

	p.publish(ctx, events.SubmissionDeletedEvent(id))
	return nil
}

func (p *Portal) Subscribe(ctx context.Context) (<-chan *events.Event, error) {
	return p.eventPublisher.Subscribe(ctx)
}

func (p *Portal) Unsubscribe(ch <-chan *events.Event) {
	p.eventPublisher.Unsubscribe(ch)
}

func (p *Portal) ListTemplates(ctx context.Context) ([]*models.EmailTemplate, error) {
	return p.store.ListTemplates(ctx)
}

func (p *Portal) SaveTemplate(ctx context.Context, t *models.EmailTemplate) error {
	if t.Key == "" || t.Subject == "" || t.HTMLBody == "" {
		return portalerrors.NewWithDetail(errors.New("invalid template"),
			portalerrors.StatusValidation, "key, subject and htmlBody are required")
	}
	return p.store.UpsertTemplate(ctx, t)
}

// publish broadcasts an event after a successful commit. Event delivery is
// best effort and never fails the triggering operation.
func (p *Portal) publish(ctx context.Context, event *events.Event) {
	if err := p.eventPublisher.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}

// sendEmail runs an email send without blocking the caller. A nil mailer
// disables notifications entirely.
func (p *Portal) sendEmail(send func(ctx context.Context)) {
	if p.mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()
		send(ctx)
	}()
}

func validateSubmission(input *SubmissionInput) error {
	if input == nil {
		return portalerrors.New(errors.New("empty submission"), portalerrors.StatusBadRequest)
	}
	if input.Artist.Name == "" {
		return portalerrors.NewWithDetail(errors.New("invalid submission"),
			portalerrors.StatusValidation, "artist name is required")
	}
	if _, err := mail.ParseAddress(input.Artist.Email); err != nil {
		return portalerrors.NewWithDetail(errors.New("invalid submission"),
			portalerrors.StatusValidation, "a valid artist email is required")
	}
	if len(input.Tracks) == 0 {
		return portalerrors.NewWithDetail(errors.New("invalid submission"),
			portalerrors.StatusValidation, "at least one track is required")
	}
	for _, t := range input.Tracks {
		if t.Title == "" {
			return portalerrors.NewWithDetail(errors.New("invalid submission"),
				portalerrors.StatusValidation, "every track needs a title")
		}
	}
	return nil
}

// Seed provisions the admin account, the default email templates, and a pair
// of sample submissions when the database is empty.
func (p *Portal) Seed(ctx context.Context) error {
	if _, err := p.store.GetUserByEmail(ctx, p.adminEmail); errors.Is(err, store.ErrNotFound) {
		hash, err := auth.HashPassword(p.adminPassword)
		if err != nil {
			return err
		}
		if err := p.store.CreateUser(ctx, &models.User{
			Email:        p.adminEmail,
			Name:         "Admin",
			PasswordHash: hash,
			Role:         "ADMIN",
		}); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		p.logger.Info("seeded admin user", slog.String("email", p.adminEmail))
	} else if err != nil {
		return err
	}

	for _, t := range mailer.DefaultTemplates() {
		if _, err := p.store.GetTemplate(ctx, t.Key); errors.Is(err, store.ErrNotFound) {
			if err := p.store.UpsertTemplate(ctx, t); err != nil {
				return fmt.Errorf("failed to seed template %s: %w", t.Key, err)
			}
		} else if err != nil {
			return err
		}
	}

	page, err := p.store.ListSubmissions(ctx, store.ListQuery{Page: 1, Limit: 1})
	if err != nil {
		return err
	}
	if page.Total > 0 {
		return nil
	}

	for _, sample := range sampleSubmissions() {
		if _, err := p.store.CreateSubmission(ctx, sample.artist, sample.tracks); err != nil {
			return fmt.Errorf("failed to seed sample submission: %w", err)
		}
	}
	p.logger.Info("seeded sample submissions")

	return nil
}

type sampleSubmission struct {
	artist models.Artist
	tracks []models.Track
}

func sampleSubmissions() []sampleSubmission {
	return []sampleSubmission{
		{
			artist: models.Artist{
				Name:       "Alex Chen",
				Email:      "alex.chen@email.com",
				Phone:      "+1 (555) 123-4567",
				Instagram:  "https://instagram.com/alexchenmusic",
				Soundcloud: "https://soundcloud.com/alexchen",
				Spotify:    "https://open.spotify.com/artist/alexchen",
				Bio:        "Electronic music producer from Los Angeles, specializing in ambient and experimental sounds.",
			},
			tracks: []models.Track{
				{
					Title:       "Midnight Pulse",
					Genre:       "Electronic",
					BPM:         128,
					MusicalKey:  "C minor",
					Description: "A dark, pulsing electronic track with atmospheric elements.",
					OriginalURL: "/uploads/midnight-pulse.mp3",
				},
				{
					Title:       "Digital Dreams",
					Genre:       "Electronic",
					BPM:         140,
					MusicalKey:  "F major",
					Description: "Uplifting electronic anthem with dreamy synthesizers.",
					OriginalURL: "/uploads/digital-dreams.mp3",
				},
			},
		},
		{
			artist: models.Artist{
				Name:       "Sarah Rodriguez",
				Email:      "sarah.music@email.com",
				Phone:      "+1 (555) 987-6543",
				Instagram:  "https://instagram.com/sarahrodriguezmusic",
				Soundcloud: "https://soundcloud.com/sarahrodriguez",
				Spotify:    "https://open.spotify.com/artist/sarahrodriguez",
				Bio:        "Hip-hop artist and producer from New York, known for her powerful lyrics and innovative beats.",
			},
			tracks: []models.Track{
				{
					Title:       "City Lights",
					Genre:       "Hip-Hop",
					BPM:         95,
					MusicalKey:  "G minor",
					Description: "Urban anthem capturing the energy of city life at night.",
					OriginalURL: "/uploads/city-lights.mp3",
				},
			},
		},
	}
}
