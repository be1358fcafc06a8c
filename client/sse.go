package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/models"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("stream already started")

// ErrUnexpectedStatus is returned when the stream endpoint responds with a
// non-200 status code.
var ErrUnexpectedStatus = errors.New("unexpected event stream status code")

// Start opens the connection exactly once and consumes events until the
// stream fails, ctx is cancelled, or Close is called. It does not reconnect:
// recovery after a transport error is the caller's decision.
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.connecting = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer s.setState(false, false)

		if err := s.consume(runCtx); err != nil && runCtx.Err() == nil {
			s.logger.Error("event stream closed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Close tears down the connection and resets the connection state. It is the
// release half of Start and is safe on every exit path.
func (s *Stream) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

// consume opens the HTTP stream and processes events until error or cancel.
func (s *Stream) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+s.path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		// Empty line marks end of event
		if line == "" {
			if data.Len() > 0 {
				s.dispatch(data.String())
			}
			data.Reset()
			continue
		}

		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(rest, " "))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

// dispatch parses one event payload and routes it to the current handlers.
// Parse failures and unknown event types are logged and dropped; they never
// tear down the connection.
func (s *Stream) dispatch(payload string) {
	var env events.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		s.logger.Error("failed to parse stream event", slog.String("error", err.Error()))
		return
	}

	handlers := s.currentHandlers()

	switch env.Type {
	case events.TypeConnected:
		s.setState(false, true)

	case events.TypeNewSubmission:
		sub := &models.Submission{}
		if err := json.Unmarshal(env.Data, sub); err != nil {
			s.logger.Error("failed to parse submission payload", slog.String("error", err.Error()))
			return
		}
		if handlers.OnNewSubmission != nil {
			handlers.OnNewSubmission(sub)
		}

	case events.TypeSubmissionUpdated:
		sub := &models.Submission{}
		if err := json.Unmarshal(env.Data, sub); err != nil {
			s.logger.Error("failed to parse submission payload", slog.String("error", err.Error()))
			return
		}
		if handlers.OnSubmissionUpdate != nil {
			handlers.OnSubmissionUpdate(sub)
		}

	case events.TypeSubmissionDeleted:
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			s.logger.Error("failed to parse submission id payload", slog.String("error", err.Error()))
			return
		}
		if handlers.OnSubmissionDelete != nil {
			handlers.OnSubmissionDelete(id)
		}

	default:
		s.logger.Info("unknown event type", slog.String("type", string(env.Type)))
	}
}
