package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	portalerrors "github.com/andresqui0416/Melotech-Artist/errors"
	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
)

// fakeStore is an in-memory store.Store for service-level tests.
type fakeStore struct {
	mu          sync.Mutex
	submissions map[string]*models.Submission
	templates   map[string]*models.EmailTemplate
	users       map[string]*models.User
	nextID      int
	failCreate  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		submissions: make(map[string]*models.Submission),
		templates:   make(map[string]*models.EmailTemplate),
		users:       make(map[string]*models.User),
	}
}

func (f *fakeStore) CreateSubmission(_ context.Context, artist models.Artist, tracks []models.Track) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextID++
	sub := &models.Submission{
		ID:     fmt.Sprintf("sub-%d", f.nextID),
		Status: models.StatusPending,
		Artist: artist,
		Tracks: tracks,
	}
	f.submissions[sub.ID] = sub
	return sub, nil
}

func (f *fakeStore) GetSubmission(_ context.Context, id string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sub, nil
}

func (f *fakeStore) ListSubmissions(_ context.Context, q store.ListQuery) (*store.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := make([]*models.Submission, 0, len(f.submissions))
	for _, sub := range f.submissions {
		subs = append(subs, sub)
	}
	return &store.ListPage{Submissions: subs, Total: len(subs), Page: q.Page, Limit: q.Limit}, nil
}

func (f *fakeStore) UpdateSubmission(_ context.Context, id string, status models.Status, notes string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sub.Status = status
	sub.NotesForTeam = notes
	return sub, nil
}

func (f *fakeStore) AddReview(_ context.Context, submissionID, _ string, review models.Review) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[submissionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	review.ID = fmt.Sprintf("rev-%d", len(sub.Reviews)+1)
	sub.Reviews = append(sub.Reviews, review)
	return &review, nil
}

func (f *fakeStore) DeleteSubmission(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.submissions[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.submissions, id)
	return nil
}

func (f *fakeStore) GetTemplate(_ context.Context, key string) (*models.EmailTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTemplates(_ context.Context) ([]*models.EmailTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.EmailTemplate, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) UpsertTemplate(_ context.Context, t *models.EmailTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[t.Key] = t
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Email] = u
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

// fakePublisher records published events.
type fakePublisher struct {
	mu        sync.Mutex
	published []*events.Event
	failWith  error
}

func (f *fakePublisher) Publish(_ context.Context, event *events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) Subscribe(context.Context) (<-chan *events.Event, error) {
	return make(chan *events.Event), nil
}

func (f *fakePublisher) Unsubscribe(<-chan *events.Event) {}
func (f *fakePublisher) Close() error                     { return nil }

func (f *fakePublisher) events() []*events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*events.Event, len(f.published))
	copy(out, f.published)
	return out
}

func newTestPortal(t *testing.T, st store.Store, pub events.Publisher) *Portal {
	t.Helper()
	portal, err := New(Config{
		Store:          st,
		EventPublisher: pub,
		AdminEmail:     "admin@yourlabel.com",
		AdminPassword:  "admin123",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return portal
}

func validInput() *SubmissionInput {
	return &SubmissionInput{
		Artist: models.Artist{Name: "Alex Chen", Email: "alex.chen@email.com"},
		Tracks: []TrackInput{{Title: "Midnight Pulse", Genre: "Electronic", BPM: 128}},
	}
}

func TestPortal_CreateSubmission_PublishesAfterCommit(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	portal := newTestPortal(t, st, pub)

	sub, err := portal.CreateSubmission(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}
	if sub.Status != models.StatusPending {
		t.Errorf("Expected status %s, got %s", models.StatusPending, sub.Status)
	}

	published := pub.events()
	if len(published) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(published))
	}
	if published[0].Type != events.TypeNewSubmission {
		t.Errorf("Expected type %s, got %s", events.TypeNewSubmission, published[0].Type)
	}
	if got := published[0].Data.(*models.Submission); got.ID != sub.ID {
		t.Errorf("Event carries submission %s, expected %s", got.ID, sub.ID)
	}
}

func TestPortal_CreateSubmission_NoEventOnStoreFailure(t *testing.T) {
	st := newFakeStore()
	st.failCreate = errors.New("disk full")
	pub := &fakePublisher{}
	portal := newTestPortal(t, st, pub)

	if _, err := portal.CreateSubmission(context.Background(), validInput()); err == nil {
		t.Fatal("Expected error from failed store")
	}
	if got := len(pub.events()); got != 0 {
		t.Errorf("Expected no events after failed commit, got %d", got)
	}
}

func TestPortal_CreateSubmission_Validation(t *testing.T) {
	portal := newTestPortal(t, newFakeStore(), &fakePublisher{})

	cases := []struct {
		name  string
		input *SubmissionInput
	}{
		{"nil input", nil},
		{"missing artist name", &SubmissionInput{
			Artist: models.Artist{Email: "a@b.com"},
			Tracks: []TrackInput{{Title: "T"}},
		}},
		{"bad email", &SubmissionInput{
			Artist: models.Artist{Name: "A", Email: "not-an-email"},
			Tracks: []TrackInput{{Title: "T"}},
		}},
		{"no tracks", &SubmissionInput{
			Artist: models.Artist{Name: "A", Email: "a@b.com"},
		}},
		{"untitled track", &SubmissionInput{
			Artist: models.Artist{Name: "A", Email: "a@b.com"},
			Tracks: []TrackInput{{Genre: "House"}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := portal.CreateSubmission(context.Background(), tc.input)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var perr *portalerrors.PortalError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected PortalError, got %T", err)
			}
		})
	}
}

func TestPortal_CreateSubmission_PublishFailureIsBestEffort(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{failWith: errors.New("broker down")}
	portal := newTestPortal(t, st, pub)

	sub, err := portal.CreateSubmission(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Expected create to succeed despite publish failure: %v", err)
	}
	if _, err := st.GetSubmission(context.Background(), sub.ID); err != nil {
		t.Errorf("Submission not persisted: %v", err)
	}
}

func TestPortal_UpdateSubmission(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	portal := newTestPortal(t, st, pub)

	sub, err := portal.CreateSubmission(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}

	updated, err := portal.UpdateSubmission(context.Background(), sub.ID, &UpdateInput{
		Status:       models.StatusInReview,
		NotesForTeam: "strong opener",
	})
	if err != nil {
		t.Fatalf("UpdateSubmission failed: %v", err)
	}
	if updated.Status != models.StatusInReview {
		t.Errorf("Expected status %s, got %s", models.StatusInReview, updated.Status)
	}

	published := pub.events()
	if len(published) != 2 {
		t.Fatalf("Expected 2 published events, got %d", len(published))
	}
	if published[1].Type != events.TypeSubmissionUpdated {
		t.Errorf("Expected type %s, got %s", events.TypeSubmissionUpdated, published[1].Type)
	}
}

func TestPortal_UpdateSubmission_InvalidStatus(t *testing.T) {
	portal := newTestPortal(t, newFakeStore(), &fakePublisher{})

	_, err := portal.UpdateSubmission(context.Background(), "sub-1", &UpdateInput{Status: "SHIPPED"})
	if err == nil {
		t.Fatal("Expected error for unknown status")
	}
	var perr *portalerrors.PortalError
	if !errors.As(err, &perr) || perr.StatusCode != portalerrors.StatusValidation {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestPortal_AddReview(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	portal := newTestPortal(t, st, pub)

	sub, err := portal.CreateSubmission(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}

	review, err := portal.AddReview(context.Background(), sub.ID, "user-1", &ReviewInput{
		Score:             8,
		FeedbackForArtist: "great energy",
	})
	if err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}
	if review.Score != 8 {
		t.Errorf("Expected score 8, got %d", review.Score)
	}

	published := pub.events()
	last := published[len(published)-1]
	if last.Type != events.TypeSubmissionUpdated {
		t.Errorf("Expected refreshed record broadcast, got %s", last.Type)
	}

	for _, score := range []int{0, 11, -1} {
		if _, err := portal.AddReview(context.Background(), sub.ID, "user-1", &ReviewInput{Score: score}); err == nil {
			t.Errorf("Expected error for score %d", score)
		}
	}
}

func TestPortal_DeleteSubmission(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	portal := newTestPortal(t, st, pub)

	sub, err := portal.CreateSubmission(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}

	if err := portal.DeleteSubmission(context.Background(), sub.ID); err != nil {
		t.Fatalf("DeleteSubmission failed: %v", err)
	}

	published := pub.events()
	last := published[len(published)-1]
	if last.Type != events.TypeSubmissionDeleted {
		t.Fatalf("Expected %s, got %s", events.TypeSubmissionDeleted, last.Type)
	}
	if last.Data != sub.ID {
		t.Errorf("Expected bare ID payload %s, got %v", sub.ID, last.Data)
	}

	if err := portal.DeleteSubmission(context.Background(), sub.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPortal_Seed(t *testing.T) {
	st := newFakeStore()
	portal := newTestPortal(t, st, &fakePublisher{})

	if err := portal.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	admin, err := st.GetUserByEmail(context.Background(), "admin@yourlabel.com")
	if err != nil {
		t.Fatalf("Admin user not seeded: %v", err)
	}
	if admin.Role != "ADMIN" {
		t.Errorf("Expected ADMIN role, got %s", admin.Role)
	}

	templates, err := st.ListTemplates(context.Background())
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(templates) != 4 {
		t.Errorf("Expected 4 seeded templates, got %d", len(templates))
	}

	page, err := st.ListSubmissions(context.Background(), store.ListQuery{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListSubmissions failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 sample submissions, got %d", page.Total)
	}

	// Seeding twice must not duplicate anything
	if err := portal.Seed(context.Background()); err != nil {
		t.Fatalf("Second Seed failed: %v", err)
	}
	page, _ = st.ListSubmissions(context.Background(), store.ListQuery{Page: 1, Limit: 10})
	if page.Total != 2 {
		t.Errorf("Second seed duplicated submissions: %d", page.Total)
	}
}
