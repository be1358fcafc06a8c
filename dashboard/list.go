// Package dashboard keeps an admin's paginated submission list consistent
// with both the server's pagination and the live event stream. The server
// stays authoritative for paging, filtering and search; live events are
// merged in without ever fabricating page contents the server did not send.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andresqui0416/Melotech-Artist/client"
	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
)

const (
	defaultLimit         = 10
	defaultSearchDelay   = 500 * time.Millisecond
	defaultNotifyTimeout = 5 * time.Second
)

// Fetcher retrieves one server-authoritative page of submissions.
type Fetcher interface {
	FetchSubmissions(ctx context.Context, q store.ListQuery) (*store.ListPage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q store.ListQuery) (*store.ListPage, error)

// FetchSubmissions calls f.
func (f FetcherFunc) FetchSubmissions(ctx context.Context, q store.ListQuery) (*store.ListPage, error) {
	return f(ctx, q)
}

// Notification is the transient banner raised when a submission arrives.
type Notification struct {
	Submission *models.Submission
	Text       string
}

// List is the merged view state of the admin submission list.
type List struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu           sync.Mutex
	page         int
	limit        int
	status       models.Status
	search       string
	items        []*models.Submission
	total        int
	selected     *models.Submission
	notification *Notification

	searchTimer *time.Timer
	searchDelay time.Duration
	notifyTimer *time.Timer
	notifyTTL   time.Duration
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ls *List) { ls.logger = l }
}

// WithSearchDelay overrides the search debounce interval.
func WithSearchDelay(d time.Duration) Option {
	return func(ls *List) { ls.searchDelay = d }
}

// WithNotificationTTL overrides how long a notification stays visible.
func WithNotificationTTL(d time.Duration) Option {
	return func(ls *List) { ls.notifyTTL = d }
}

// NewList creates a List that fetches pages through fetcher.
func NewList(fetcher Fetcher, opts ...Option) *List {
	l := &List{
		fetcher:     fetcher,
		logger:      slog.Default(),
		page:        1,
		limit:       defaultLimit,
		searchDelay: defaultSearchDelay,
		notifyTTL:   defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handlers returns stream handlers bound to this list, ready to pass to the
// event stream client.
func (l *List) Handlers() client.Handlers {
	return client.Handlers{
		OnNewSubmission:    l.ApplyNew,
		OnSubmissionUpdate: l.ApplyUpdate,
		OnSubmissionDelete: l.ApplyDelete,
	}
}

// Refresh re-fetches the current page from the server.
func (l *List) Refresh(ctx context.Context) error {
	l.mu.Lock()
	q := store.ListQuery{Page: l.page, Limit: l.limit, Status: l.status, Search: l.search}
	l.mu.Unlock()

	page, err := l.fetcher.FetchSubmissions(ctx, q)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.items = page.Submissions
	l.total = page.Total
	l.mu.Unlock()
	return nil
}

// SetPage navigates to another page and re-fetches from the server.
func (l *List) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	l.mu.Lock()
	l.page = page
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetLimit changes the page size, resets to page 1 and re-fetches.
func (l *List) SetLimit(ctx context.Context, limit int) error {
	l.mu.Lock()
	l.limit = limit
	l.page = 1
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetStatusFilter changes the status filter, resets to page 1 and re-fetches.
func (l *List) SetStatusFilter(ctx context.Context, status models.Status) error {
	l.mu.Lock()
	l.status = status
	l.page = 1
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetSearch updates the search term; the server fetch fires after the
// debounce interval so a keystroke burst costs one request.
func (l *List) SetSearch(term string) {
	l.mu.Lock()
	l.search = term
	l.page = 1
	if l.searchTimer != nil {
		l.searchTimer.Stop()
	}
	l.searchTimer = time.AfterFunc(l.searchDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := l.Refresh(ctx); err != nil {
			l.logger.Error("search refresh failed", slog.String("error", err.Error()))
		}
	})
	l.mu.Unlock()
}

// ApplyNew merges a new-submission event. Only a viewer on page 1 sees the
// item prepended; on any other page the list is left untouched so a later
// page never shows page-1 data, and navigating back to page 1 re-fetches.
// The total count and the notification update regardless of page.
func (l *List) ApplyNew(sub *models.Submission) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.page == 1 {
		l.items = append([]*models.Submission{sub}, l.items...)
	}
	l.total++
	l.setNotificationLocked(sub)
}

// ApplyUpdate replaces the matching item by ID, in the list and in the open
// detail view. Applying the same event twice is a no-op the second time.
func (l *List) ApplyUpdate(sub *models.Submission) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if item.ID == sub.ID {
			l.items[i] = sub
			break
		}
	}
	if l.selected != nil && l.selected.ID == sub.ID {
		l.selected = sub
	}
}

// ApplyDelete removes at most one item by ID and decrements the total count.
// An unknown ID leaves the list unchanged.
func (l *List) ApplyDelete(submissionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if item.ID == submissionID {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	l.total--
	if l.total < 0 {
		l.total = 0
	}
	if l.selected != nil && l.selected.ID == submissionID {
		l.selected = nil
	}
}

func (l *List) setNotificationLocked(sub *models.Submission) {
	l.notification = &Notification{
		Submission: sub,
		Text:       fmt.Sprintf("%s submitted %d track(s)", sub.Artist.Name, len(sub.Tracks)),
	}
	if l.notifyTimer != nil {
		l.notifyTimer.Stop()
	}
	l.notifyTimer = time.AfterFunc(l.notifyTTL, func() {
		l.mu.Lock()
		l.notification = nil
		l.mu.Unlock()
	})
}

// Select opens a submission in the detail view.
func (l *List) Select(sub *models.Submission) {
	l.mu.Lock()
	l.selected = sub
	l.mu.Unlock()
}

// Selected returns the submission open in the detail view, if any.
func (l *List) Selected() *models.Submission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// CloseDetail closes the detail view.
func (l *List) CloseDetail() {
	l.mu.Lock()
	l.selected = nil
	l.mu.Unlock()
}

// Items returns a copy of the currently displayed page.
func (l *List) Items() []*models.Submission {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]*models.Submission, len(l.items))
	copy(items, l.items)
	return items
}

// Total returns the server's total item count as last reconciled.
func (l *List) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Page returns the current page number.
func (l *List) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// TotalPages returns the page count for the current total and page size.
func (l *List) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit < 1 {
		return 0
	}
	return (l.total + l.limit - 1) / l.limit
}

// Notification returns the active transient notification, if any.
func (l *List) Notification() *Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notification
}
