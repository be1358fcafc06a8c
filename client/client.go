// Package client provides the dashboard-side consumer of the portal's event
// stream: one long-lived streaming connection whose parsed events are
// dispatched to replaceable handlers.
package client

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/andresqui0416/Melotech-Artist/models"
)

// Handlers receive parsed stream events. Any nil handler is skipped. Handlers
// may be swapped at any time via SetHandlers; dispatch always goes to the
// handlers current at delivery time, never to the set captured when the
// connection opened.
type Handlers struct {
	OnNewSubmission    func(*models.Submission)
	OnSubmissionUpdate func(*models.Submission)
	OnSubmissionDelete func(submissionID string)
}

// Stream maintains a single connection to the portal's event stream.
type Stream struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.RWMutex
	handlers   Handlers
	started    bool
	connecting bool
	connected  bool
	cancel     func()
	done       chan struct{}
}

// Option configures a Stream.
type Option func(*Stream)

// WithHTTPClient sets the HTTP client used for the stream connection.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Stream) { s.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// WithPath overrides the event stream path (default /api/events).
func WithPath(path string) Option {
	return func(s *Stream) { s.path = path }
}

// New creates a Stream for the portal at baseURL. The connection is not
// opened until Start is called.
func New(baseURL string, handlers Handlers, opts ...Option) *Stream {
	s := &Stream{
		baseURL:    baseURL,
		path:       "/api/events",
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		handlers:   handlers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetHandlers replaces the dispatch handlers without touching the
// connection: the stream stays open and the next event goes to the new set.
func (s *Stream) SetHandlers(h Handlers) {
	s.mu.Lock()
	s.handlers = h
	s.mu.Unlock()
}

// IsConnecting reports whether the stream is still waiting for its first
// successful open or first error.
func (s *Stream) IsConnecting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connecting
}

// IsConnected reports whether the underlying connection is currently open.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// currentHandlers returns the handler set in effect right now.
func (s *Stream) currentHandlers() Handlers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers
}

func (s *Stream) setState(connecting, connected bool) {
	s.mu.Lock()
	s.connecting = connecting
	s.connected = connected
	s.mu.Unlock()
}
