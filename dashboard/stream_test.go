package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresqui0416/Melotech-Artist/client"
	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/models"
)

// Wires a List to a real stream client against a stub event endpoint and
// verifies events flow all the way into list state.
func TestList_DrivenByEventStream(t *testing.T) {
	frames := make(chan string, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for {
			select {
			case frame := <-frames:
				fmt.Fprintf(w, "data: %s\n\n", frame)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}))
	defer server.Close()

	send := func(event *events.Event) {
		payload, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal event: %v", err)
		}
		frames <- string(payload)
	}

	fetcher := &fakeFetcher{all: submissions(2)}
	list := NewList(fetcher)
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	stream := client.New(server.URL, list.Handlers())
	if err := stream.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stream.Close()

	send(events.ConnectedEvent())
	send(events.NewSubmissionEvent(&models.Submission{
		ID:     "sub-live",
		Artist: models.Artist{Name: "Sarah Rodriguez"},
		Tracks: []models.Track{{Title: "Neon Nights"}},
	}))

	deadline := time.After(2 * time.Second)
	for list.Total() != 3 {
		select {
		case <-deadline:
			t.Fatalf("Timeout waiting for live submission, total=%d", list.Total())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if items := list.Items(); items[0].ID != "sub-live" {
		t.Errorf("Expected live submission at the top, got %s", items[0].ID)
	}

	send(events.SubmissionDeletedEvent("sub-live"))
	deadline = time.After(2 * time.Second)
	for list.Total() != 2 {
		select {
		case <-deadline:
			t.Fatalf("Timeout waiting for delete, total=%d", list.Total())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
