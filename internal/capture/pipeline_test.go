package capture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/snapfactlabs/snapfact/internal/models"
)

type stubAnalyzer struct {
	facts []string
	err   error
	calls int

	// observe runs inside Analyze, used to check in-flight state.
	observe func()
}

func (s *stubAnalyzer) Analyze(ctx context.Context, imageURL string) (string, error) {
	if s.observe != nil {
		s.observe()
	}
	fact := ""
	if len(s.facts) > 0 {
		fact = s.facts[s.calls%len(s.facts)]
	}
	s.calls++
	return fact, s.err
}

type stubStore struct {
	discoveries []models.Discovery
	insertErr   error
	listErr     error
	inserts     int
}

func (s *stubStore) InsertDiscovery(ctx context.Context, imageURL, fact string) (models.Discovery, error) {
	s.inserts++
	if s.insertErr != nil {
		return models.Discovery{}, s.insertErr
	}
	d := models.Discovery{
		ID:        fmt.Sprintf("d%d", s.inserts),
		ImageURL:  imageURL,
		Fact:      fact,
		CreatedAt: time.Now().UTC(),
	}
	s.discoveries = append([]models.Discovery{d}, s.discoveries...)
	return d, nil
}

func (s *stubStore) ListRecent(ctx context.Context, n int) ([]models.Discovery, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if n > len(s.discoveries) {
		n = len(s.discoveries)
	}
	return append([]models.Discovery(nil), s.discoveries[:n]...), nil
}

type recordingNotifier struct {
	titles []string
}

func (r *recordingNotifier) Notify(title, message string) {
	r.titles = append(r.titles, title)
}

func TestCaptureHappyPath(t *testing.T) {
	analyzer := &stubAnalyzer{facts: []string{"Octopuses have three hearts."}}
	store := &stubStore{}
	notifier := &recordingNotifier{}
	pipeline := New(analyzer, store, notifier)

	state := pipeline.Capture(context.Background(), "data:image/png;base64,abc")

	if state.CurrentImage != "data:image/png;base64,abc" {
		t.Errorf("unexpected current image: %q", state.CurrentImage)
	}
	if state.CurrentFact != "Octopuses have three hearts." {
		t.Errorf("unexpected current fact: %q", state.CurrentFact)
	}
	if state.IsLoading {
		t.Error("IsLoading should be false after the cycle")
	}
	if store.inserts != 1 {
		t.Errorf("expected exactly one insert, got %d", store.inserts)
	}
	if len(state.Recent) != 1 {
		t.Errorf("expected one recent discovery, got %d", len(state.Recent))
	}
	if len(notifier.titles) != 0 {
		t.Errorf("expected no notifications, got %v", notifier.titles)
	}
}

func TestCaptureLoadingBracketsAnalysis(t *testing.T) {
	analyzer := &stubAnalyzer{facts: []string{"A fact."}}
	store := &stubStore{}
	pipeline := New(analyzer, store, &recordingNotifier{})

	analyzer.observe = func() {
		if !pipeline.State().IsLoading {
			t.Error("IsLoading should be true while analysis is in flight")
		}
	}

	if pipeline.State().IsLoading {
		t.Error("IsLoading should be false before capture")
	}
	state := pipeline.Capture(context.Background(), "img")
	if state.IsLoading {
		t.Error("IsLoading should be false after capture")
	}
}

func TestCaptureAnalysisFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: fmt.Errorf("image rejected by safety check")}
	store := &stubStore{}
	notifier := &recordingNotifier{}
	pipeline := New(analyzer, store, notifier)

	state := pipeline.Capture(context.Background(), "img")

	if state.CurrentFact != "" {
		t.Errorf("fact should stay unset on analysis failure, got %q", state.CurrentFact)
	}
	if state.IsLoading {
		t.Error("IsLoading should be false after the early exit")
	}
	if store.inserts != 0 {
		t.Errorf("nothing should be persisted, got %d inserts", store.inserts)
	}
	if len(notifier.titles) != 1 || notifier.titles[0] != "Analysis failed" {
		t.Errorf("expected a single analysis failure notification, got %v", notifier.titles)
	}
}

func TestCaptureInsertFailureKeepsFact(t *testing.T) {
	analyzer := &stubAnalyzer{facts: []string{"A fact."}}
	store := &stubStore{insertErr: fmt.Errorf("disk full")}
	notifier := &recordingNotifier{}
	pipeline := New(analyzer, store, notifier)

	state := pipeline.Capture(context.Background(), "img")

	// Accepted inconsistency: the fact is shown even though it was not saved.
	if state.CurrentFact != "A fact." {
		t.Errorf("fact should survive a failed insert, got %q", state.CurrentFact)
	}
	if len(notifier.titles) != 1 || notifier.titles[0] != "Could not save discovery" {
		t.Errorf("expected a save failure notification, got %v", notifier.titles)
	}
	if state.IsLoading {
		t.Error("IsLoading should be false after the cycle")
	}
}

func TestCaptureTwiceCreatesTwoRows(t *testing.T) {
	analyzer := &stubAnalyzer{facts: []string{"First fact.", "Second fact."}}
	store := &stubStore{}
	pipeline := New(analyzer, store, &recordingNotifier{})

	pipeline.Capture(context.Background(), "img")
	state := pipeline.Capture(context.Background(), "img")

	if store.inserts != 2 {
		t.Fatalf("expected two inserts for two captures, got %d", store.inserts)
	}
	// Same image, but distinct rows and possibly different facts.
	if store.discoveries[0].ID == store.discoveries[1].ID {
		t.Error("expected two distinct discovery rows")
	}
	if state.CurrentFact != "Second fact." {
		t.Errorf("expected the second fact to be current, got %q", state.CurrentFact)
	}
}

func TestRefreshOrdering(t *testing.T) {
	store := &stubStore{}
	for i := 1; i <= 5; i++ {
		if _, err := store.InsertDiscovery(context.Background(), fmt.Sprintf("img%d", i), fmt.Sprintf("D%d", i)); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}
	pipeline := New(&stubAnalyzer{}, store, &recordingNotifier{})

	state := pipeline.Refresh(context.Background())

	if len(state.Recent) != 5 {
		t.Fatalf("expected 5 recent discoveries, got %d", len(state.Recent))
	}
	for i, d := range state.Recent {
		expected := fmt.Sprintf("D%d", 5-i)
		if d.Fact != expected {
			t.Errorf("position %d: expected %q, got %q", i, expected, d.Fact)
		}
	}
}

func TestRefreshErrorKeepsPreviousList(t *testing.T) {
	store := &stubStore{}
	if _, err := store.InsertDiscovery(context.Background(), "img", "D1"); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	notifier := &recordingNotifier{}
	pipeline := New(&stubAnalyzer{}, store, notifier)

	pipeline.Refresh(context.Background())

	store.listErr = fmt.Errorf("connection lost")
	state := pipeline.Refresh(context.Background())

	if len(state.Recent) != 1 || state.Recent[0].Fact != "D1" {
		t.Errorf("previous list should be left untouched, got %+v", state.Recent)
	}
	if len(notifier.titles) != 1 || notifier.titles[0] != "Could not load discoveries" {
		t.Errorf("expected a load failure notification, got %v", notifier.titles)
	}
}

func TestRecentWindowCapped(t *testing.T) {
	store := &stubStore{}
	for i := 1; i <= 8; i++ {
		if _, err := store.InsertDiscovery(context.Background(), fmt.Sprintf("img%d", i), fmt.Sprintf("D%d", i)); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}
	pipeline := New(&stubAnalyzer{}, store, &recordingNotifier{})

	state := pipeline.Refresh(context.Background())
	if len(state.Recent) != RecentWindow {
		t.Errorf("expected the window capped at %d, got %d", RecentWindow, len(state.Recent))
	}
	if state.Recent[0].Fact != "D8" {
		t.Errorf("expected the newest discovery first, got %q", state.Recent[0].Fact)
	}
}
