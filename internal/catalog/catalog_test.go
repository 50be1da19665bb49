package catalog

import (
	"testing"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

func testSeries(id string) *model.ElementSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.ElementSeries{
		SatelliteID: id,
		Records: []model.OrbitalElementRecord{
			{SatelliteID: id, Epoch: base},
			{SatelliteID: id, Epoch: base.Add(24 * time.Hour)},
		},
	}
}

func TestPutAndGetSeries(t *testing.T) {
	store := New()
	if err := store.PutSeries(testSeries("NVS-01")); err != nil {
		t.Fatalf("PutSeries error: %v", err)
	}
	got := store.Series("NVS-01")
	if got == nil || got.Len() != 2 {
		t.Fatalf("Series returned %#v, want the stored 2-record series", got)
	}
	if store.Series("missing") != nil {
		t.Fatalf("expected nil for an unknown satellite")
	}
}

func TestPutSeriesValidation(t *testing.T) {
	store := New()
	if err := store.PutSeries(nil); err == nil {
		t.Fatalf("expected error for nil series")
	}
	if err := store.PutSeries(&model.ElementSeries{SatelliteID: "X"}); err == nil {
		t.Fatalf("expected error for empty series")
	}
}

func TestPutAndListAssessments(t *testing.T) {
	store := New()
	for _, id := range []string{"C", "A", "B"} {
		if err := store.PutAssessment(model.HealthAssessment{SatelliteID: id, Score: 80}); err != nil {
			t.Fatalf("PutAssessment %s error: %v", id, err)
		}
	}

	got, ok := store.Assessment("B")
	if !ok || got.Score != 80 {
		t.Fatalf("Assessment(B) = (%#v, %v)", got, ok)
	}
	if _, ok := store.Assessment("missing"); ok {
		t.Fatalf("expected missing assessment to report false")
	}

	list := store.ListAssessments()
	if len(list) != 3 {
		t.Fatalf("ListAssessments returned %d entries, want 3", len(list))
	}
	for i, want := range []string{"A", "B", "C"} {
		if list[i].SatelliteID != want {
			t.Fatalf("entry %d is %q, want %q (sorted order)", i, list[i].SatelliteID, want)
		}
	}

	if err := store.PutAssessment(model.HealthAssessment{}); err == nil {
		t.Fatalf("expected error for assessment without ID")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	store := New()

	var events []Event
	unsubscribe := store.Subscribe(func(e Event) { events = append(events, e) })

	if err := store.PutSeries(testSeries("NVS-01")); err != nil {
		t.Fatalf("PutSeries error: %v", err)
	}
	if err := store.PutAssessment(model.HealthAssessment{SatelliteID: "NVS-01", Score: 91}); err != nil {
		t.Fatalf("PutAssessment error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventSeriesUpdated || events[1].Type != EventAssessmentUpdated {
		t.Fatalf("event types = %v %v", events[0].Type, events[1].Type)
	}
	if events[1].Assessment.Score != 91 {
		t.Fatalf("assessment event score = %g, want 91", events[1].Assessment.Score)
	}

	unsubscribe()
	if err := store.PutAssessment(model.HealthAssessment{SatelliteID: "NVS-02"}); err != nil {
		t.Fatalf("PutAssessment error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("unsubscribed callback still received events")
	}
}

func TestUnsubscribeLeavesOtherSubscribers(t *testing.T) {
	store := New()

	var first, second, third int
	unsubFirst := store.Subscribe(func(Event) { first++ })
	unsubSecond := store.Subscribe(func(Event) { second++ })
	store.Subscribe(func(Event) { third++ })

	// Removing the first subscriber must not disturb the later ones.
	unsubFirst()
	if err := store.PutAssessment(model.HealthAssessment{SatelliteID: "NVS-01"}); err != nil {
		t.Fatalf("PutAssessment error: %v", err)
	}
	if first != 0 || second != 1 || third != 1 {
		t.Fatalf("after first unsubscribe: counts = %d %d %d, want 0 1 1", first, second, third)
	}

	unsubSecond()
	unsubSecond() // repeated calls are a no-op
	if err := store.PutAssessment(model.HealthAssessment{SatelliteID: "NVS-02"}); err != nil {
		t.Fatalf("PutAssessment error: %v", err)
	}
	if first != 0 || second != 1 || third != 2 {
		t.Fatalf("after second unsubscribe: counts = %d %d %d, want 0 1 2", first, second, third)
	}
}

func TestAllSeriesSnapshot(t *testing.T) {
	store := New()
	if err := store.PutSeries(testSeries("A")); err != nil {
		t.Fatalf("PutSeries error: %v", err)
	}
	snap := store.AllSeries()
	delete(snap, "A")
	if store.Series("A") == nil {
		t.Fatalf("mutating the snapshot must not affect the store")
	}
}
