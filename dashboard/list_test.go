package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/andresqui0416/Melotech-Artist/models"
	"github.com/andresqui0416/Melotech-Artist/store"
)

// fakeFetcher serves pages from an in-memory slice so list behavior can be
// checked without a server.
type fakeFetcher struct {
	mu    sync.Mutex
	all   []*models.Submission
	calls int
}

func (f *fakeFetcher) FetchSubmissions(_ context.Context, q store.ListQuery) (*store.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(f.all) {
		start = len(f.all)
	}
	if end > len(f.all) {
		end = len(f.all)
	}

	items := make([]*models.Submission, end-start)
	copy(items, f.all[start:end])
	return &store.ListPage{
		Submissions: items,
		Total:       len(f.all),
		Page:        q.Page,
		Limit:       q.Limit,
	}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func submissions(n int) []*models.Submission {
	subs := make([]*models.Submission, n)
	for i := range subs {
		subs[i] = &models.Submission{
			ID:     fmt.Sprintf("sub-%d", i),
			Status: models.StatusPending,
			Artist: models.Artist{Name: fmt.Sprintf("Artist %d", i)},
			Tracks: []models.Track{{Title: "Demo"}},
		}
	}
	return subs
}

func TestList_ApplyNew_OnPageOne(t *testing.T) {
	fetcher := &fakeFetcher{all: submissions(3)}
	list := NewList(fetcher)

	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	incoming := &models.Submission{
		ID:     "sub-new",
		Artist: models.Artist{Name: "Sarah Rodriguez"},
		Tracks: []models.Track{{Title: "A"}, {Title: "B"}},
	}
	list.ApplyNew(incoming)

	items := list.Items()
	if len(items) != 4 {
		t.Fatalf("Expected 4 items after prepend, got %d", len(items))
	}
	if items[0].ID != "sub-new" {
		t.Errorf("Expected new submission at the top, got %s", items[0].ID)
	}
	if list.Total() != 4 {
		t.Errorf("Expected total 4, got %d", list.Total())
	}

	n := list.Notification()
	if n == nil {
		t.Fatal("Expected a notification")
	}
	if n.Text != "Sarah Rodriguez submitted 2 track(s)" {
		t.Errorf("Unexpected notification text: %q", n.Text)
	}
}

func TestList_ApplyNew_OffPageOne(t *testing.T) {
	fetcher := &fakeFetcher{all: submissions(15)}
	list := NewList(fetcher)

	if err := list.SetPage(context.Background(), 2); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	before := list.Items()

	list.ApplyNew(&models.Submission{ID: "sub-new", Artist: models.Artist{Name: "X"}})

	after := list.Items()
	if len(after) != len(before) {
		t.Fatalf("Page 2 contents changed: %d -> %d items", len(before), len(after))
	}
	for i := range after {
		if after[i].ID != before[i].ID {
			t.Errorf("Item %d changed: %s -> %s", i, before[i].ID, after[i].ID)
		}
	}
	if list.Total() != 16 {
		t.Errorf("Expected total 16, got %d", list.Total())
	}
	if list.Notification() == nil {
		t.Error("Expected a notification even off page 1")
	}

	// Navigating back to page 1 re-fetches from the server rather than
	// reconstructing the page locally.
	calls := fetcher.callCount()
	if err := list.SetPage(context.Background(), 1); err != nil {
		t.Fatalf("SetPage back failed: %v", err)
	}
	if fetcher.callCount() != calls+1 {
		t.Error("Expected navigation to page 1 to hit the fetcher")
	}
}

func TestList_ApplyUpdate(t *testing.T) {
	fetcher := &fakeFetcher{all: submissions(3)}
	list := NewList(fetcher)

	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	list.Select(list.Items()[1])

	updated := &models.Submission{
		ID:     "sub-1",
		Status: models.StatusApproved,
		Artist: models.Artist{Name: "Artist 1"},
	}
	list.ApplyUpdate(updated)

	items := list.Items()
	if items[1].Status != models.StatusApproved {
		t.Errorf("Expected status %s in list, got %s", models.StatusApproved, items[1].Status)
	}
	if sel := list.Selected(); sel == nil || sel.Status != models.StatusApproved {
		t.Error("Expected open detail view to carry the update")
	}

	// Re-delivery of the same event is a no-op
	list.ApplyUpdate(updated)
	if len(list.Items()) != 3 || list.Total() != 3 {
		t.Error("Duplicate update changed list shape")
	}
}

func TestList_ApplyUpdate_UnknownID(t *testing.T) {
	fetcher := &fakeFetcher{all: submissions(2)}
	list := NewList(fetcher)

	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	list.ApplyUpdate(&models.Submission{ID: "sub-elsewhere"})

	if len(list.Items()) != 2 {
		t.Errorf("Update for an item off this page changed the list")
	}
}

func TestList_ApplyDelete(t *testing.T) {
	fetcher := &fakeFetcher{all: submissions(3)}
	list := NewList(fetcher)

	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	list.Select(list.Items()[0])

	list.ApplyDelete("sub-0")

	items := list.Items()
	if len(items) != 2 {
		t.Fatalf("Expected 2 items after delete, got %d", len(items))
	}
	for _, item := range items {
		if item.ID == "sub-0" {
			t.Error("Deleted submission still present")
		}
	}
	if list.Total() != 2 {
		t.Errorf("Expected total 2, got %d", list.Total())
	}
	if list.Selected() != nil {
		t.Error("Expected detail view to close when its submission is deleted")
	}

	// Deleting the same ID twice removes nothing further from the list
	list.ApplyDelete("sub-0")
	if len(list.Items()) != 2 {
		t.Error("Second delete for the same ID removed an item")
	}
}

func TestList_SearchDebounce(t *testing.T) {
	fetcher := &fakeFetcher{all: submissions(5)}
	list := NewList(fetcher, WithSearchDelay(50*time.Millisecond))

	list.SetSearch("a")
	list.SetSearch("al")
	list.SetSearch("ale")
	list.SetSearch("alex")

	if got := fetcher.callCount(); got != 0 {
		t.Fatalf("Expected no fetch before the debounce interval, got %d", got)
	}

	deadline := time.After(1 * time.Second)
	for fetcher.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Timeout waiting for debounced fetch")
		case <-time.After(10 * time.Millisecond):
		}
	}

	time.Sleep(100 * time.Millisecond)
	if got := fetcher.callCount(); got != 1 {
		t.Errorf("Expected exactly 1 fetch for the keystroke burst, got %d", got)
	}
}

func TestList_NotificationExpires(t *testing.T) {
	fetcher := &fakeFetcher{}
	list := NewList(fetcher, WithNotificationTTL(30*time.Millisecond))

	list.ApplyNew(&models.Submission{ID: "sub-n", Artist: models.Artist{Name: "X"}})
	if list.Notification() == nil {
		t.Fatal("Expected a notification")
	}

	deadline := time.After(1 * time.Second)
	for list.Notification() != nil {
		select {
		case <-deadline:
			t.Fatal("Notification never expired")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
