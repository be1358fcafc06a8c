// Package sqlite implements store.Store using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
)

const (
	// SQLite pragmas for better concurrency
	sqlitePragmas = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA synchronous=NORMAL;
PRAGMA foreign_keys=ON;
`

	createArtistsTable = `
CREATE TABLE IF NOT EXISTS artists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT,
	instagram TEXT,
	soundcloud TEXT,
	spotify TEXT,
	bio TEXT,
	created_at DATETIME NOT NULL
);
`

	createSubmissionsTable = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	artist_id TEXT NOT NULL REFERENCES artists(id),
	status TEXT NOT NULL,
	notes_for_team TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

	createTracksTable = `
CREATE TABLE IF NOT EXISTS tracks (
	id TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	genre TEXT,
	bpm INTEGER,
	musical_key TEXT,
	description TEXT,
	original_url TEXT NOT NULL,
	duration_sec INTEGER
);
CREATE INDEX IF NOT EXISTS idx_tracks_submission ON tracks(submission_id);
`

	createReviewsTable = `
CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
	reviewer_id TEXT,
	score INTEGER NOT NULL,
	internal_notes TEXT,
	feedback_for_artist TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reviews_submission ON reviews(submission_id);
`

	createEmailTemplatesTable = `
CREATE TABLE IF NOT EXISTS email_templates (
	id TEXT PRIMARY KEY,
	key TEXT NOT NULL UNIQUE,
	name TEXT,
	subject TEXT NOT NULL,
	html_body TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

	createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`
)

// Store implements store.Store using SQLite
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) a SQLite portal database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(sqlitePragmas); err != nil {
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, schema := range []string{
		createArtistsTable,
		createSubmissionsTable,
		createTracksTable,
		createReviewsTable,
		createEmailTemplatesTable,
		createUsersTable,
	} {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateSubmission(ctx context.Context, artist models.Artist, tracks []models.Track) (*models.Submission, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()

	artistID, err := upsertArtist(ctx, tx, artist, now)
	if err != nil {
		return nil, err
	}

	subID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
INSERT INTO submissions (id, artist_id, status, notes_for_team, created_at, updated_at)
VALUES (?, ?, ?, '', ?, ?)
`, subID, artistID, models.StatusPending, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	for i, t := range tracks {
		_, err = tx.ExecContext(ctx, `
INSERT INTO tracks (id, submission_id, position, title, genre, bpm, musical_key, description, original_url, duration_sec)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, uuid.NewString(), subID, i,
			t.Title,
			nullString(t.Genre),
			nullInt(t.BPM),
			nullString(t.MusicalKey),
			nullString(t.Description),
			t.OriginalURL,
			nullInt(t.DurationSec),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	return s.GetSubmission(ctx, subID)
}

// upsertArtist inserts the artist or refreshes profile fields when the email
// is already known, and returns the artist's ID.
func upsertArtist(ctx context.Context, tx *sql.Tx, a models.Artist, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM artists WHERE email = ?`, a.Email).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
INSERT INTO artists (id, name, email, phone, instagram, soundcloud, spotify, bio, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, a.Name, a.Email,
			nullString(a.Phone), nullString(a.Instagram), nullString(a.Soundcloud),
			nullString(a.Spotify), nullString(a.Bio), now)
		if err != nil {
			return "", fmt.Errorf("failed to insert artist: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to look up artist: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
UPDATE artists SET name = ?, phone = ?, instagram = ?, soundcloud = ?, spotify = ?, bio = ?
WHERE id = ?
`, a.Name,
			nullString(a.Phone), nullString(a.Instagram), nullString(a.Soundcloud),
			nullString(a.Spotify), nullString(a.Bio), id)
		if err != nil {
			return "", fmt.Errorf("failed to update artist: %w", err)
		}
	}
	return id, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT s.id, s.status, COALESCE(s.notes_for_team, ''), s.created_at, s.updated_at,
       a.id, a.name, a.email,
       COALESCE(a.phone, ''), COALESCE(a.instagram, ''), COALESCE(a.soundcloud, ''),
       COALESCE(a.spotify, ''), COALESCE(a.bio, '')
FROM submissions s
JOIN artists a ON a.id = s.artist_id
WHERE s.id = ?
`, id)

	sub := &models.Submission{}
	var status string
	err := row.Scan(
		&sub.ID, &status, &sub.NotesForTeam, &sub.CreatedAt, &sub.UpdatedAt,
		&sub.Artist.ID, &sub.Artist.Name, &sub.Artist.Email,
		&sub.Artist.Phone, &sub.Artist.Instagram, &sub.Artist.Soundcloud,
		&sub.Artist.Spotify, &sub.Artist.Bio,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	sub.Status = models.Status(status)

	if sub.Tracks, err = s.getTracks(ctx, id); err != nil {
		return nil, err
	}
	if sub.Reviews, err = s.getReviews(ctx, id); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Store) getTracks(ctx context.Context, submissionID string) ([]models.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, COALESCE(genre, ''), COALESCE(bpm, 0), COALESCE(musical_key, ''),
       COALESCE(description, ''), original_url, COALESCE(duration_sec, 0)
FROM tracks
WHERE submission_id = ?
ORDER BY position
`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Genre, &t.BPM, &t.MusicalKey,
			&t.Description, &t.OriginalURL, &t.DurationSec); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *Store) getReviews(ctx context.Context, submissionID string) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.score, COALESCE(r.internal_notes, ''), COALESCE(r.feedback_for_artist, ''),
       r.created_at, COALESCE(u.name, '')
FROM reviews r
LEFT JOIN users u ON u.id = r.reviewer_id
WHERE r.submission_id = ?
ORDER BY r.created_at
`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.Score, &r.InternalNotes, &r.FeedbackForArtist,
			&r.CreatedAt, &r.Reviewer.Name); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Store) ListSubmissions(ctx context.Context, q store.ListQuery) (*store.ListPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}

	where, args := listFilter(q)

	var total int
	countQuery := `SELECT COUNT(*) FROM submissions s JOIN artists a ON a.id = s.artist_id` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	listQuery := `SELECT s.id FROM submissions s JOIN artists a ON a.id = s.artist_id` +
		where + ` ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`
	listArgs := append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs := make([]*models.Submission, 0, len(ids))
	for _, id := range ids {
		sub, err := s.GetSubmission(ctx, id)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return &store.ListPage{
		Submissions: subs,
		Total:       total,
		Page:        q.Page,
		Limit:       q.Limit,
		TotalPages:  (total + q.Limit - 1) / q.Limit,
	}, nil
}

// listFilter builds the WHERE clause shared by the count and page queries.
func listFilter(q store.ListQuery) (string, []any) {
	clauses := []string{}
	args := []any{}

	if q.Status != "" {
		clauses = append(clauses, "s.status = ?")
		args = append(args, string(q.Status))
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		// LIKE is case-insensitive for ASCII in SQLite
		clauses = append(clauses, `(a.name LIKE ?
 OR a.email LIKE ?
 OR EXISTS (SELECT 1 FROM tracks t WHERE t.submission_id = s.id AND t.title LIKE ?))`)
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) UpdateSubmission(ctx context.Context, id string, status models.Status, notesForTeam string) (*models.Submission, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE submissions SET status = ?, notes_for_team = ?, updated_at = ?
WHERE id = ?
`, string(status), notesForTeam, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetSubmission(ctx, id)
}

func (s *Store) AddReview(ctx context.Context, submissionID, reviewerID string, review models.Review) (*models.Review, error) {
	if _, err := s.GetSubmission(ctx, submissionID); err != nil {
		return nil, err
	}

	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO reviews (id, submission_id, reviewer_id, score, internal_notes, feedback_for_artist, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, review.ID, submissionID, nullString(reviewerID), review.Score,
		nullString(review.InternalNotes), nullString(review.FeedbackForArtist), review.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	if reviewerID != "" {
		var name string
		if err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(name, '') FROM users WHERE id = ?`, reviewerID).Scan(&name); err == nil {
			review.Reviewer.Name = name
		}
	}

	return &review, nil
}

func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, key string) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	err := s.db.QueryRowContext(ctx, `
SELECT id, key, COALESCE(name, ''), subject, html_body, updated_at
FROM email_templates WHERE key = ?
`, key).Scan(&t.ID, &t.Key, &t.Name, &t.Subject, &t.HTMLBody, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]*models.EmailTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, key, COALESCE(name, ''), subject, html_body, updated_at
FROM email_templates ORDER BY updated_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*models.EmailTemplate{}
	for rows.Next() {
		t := &models.EmailTemplate{}
		if err := rows.Scan(&t.ID, &t.Key, &t.Name, &t.Subject, &t.HTMLBody, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *Store) UpsertTemplate(ctx context.Context, t *models.EmailTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO email_templates (id, key, name, subject, html_body, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET name = excluded.name, subject = excluded.subject,
	html_body = excluded.html_body, updated_at = excluded.updated_at
`, t.ID, t.Key, nullString(t.Name), t.Subject, t.HTMLBody, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, COALESCE(name, ''), password_hash, role, created_at
FROM users WHERE email = ?
`, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, name, password_hash, role, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, u.ID, u.Email, nullString(u.Name), u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
