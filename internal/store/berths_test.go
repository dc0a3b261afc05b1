package store

import (
	"context"
	"testing"
)

func TestLookupBerth_AbsenceIsNotAnError(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LookupBerth(context.Background(), "ZZ", "0000")
	if err != nil {
		t.Fatalf("LookupBerth() unexpected error: %v", err)
	}
	if found {
		t.Error("LookupBerth() found a berth that was never imported")
	}
}

func TestUpsertBerth_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	lat, lon := 52.0, 0.125
	if err := s.UpsertBerth(ctx, Berth{Area: "EA", Code: "T102", Latitude: &lat, Longitude: &lon}); err != nil {
		t.Fatalf("UpsertBerth() failed: %v", err)
	}

	b, found, err := s.LookupBerth(ctx, "EA", "T102")
	if err != nil || !found {
		t.Fatalf("LookupBerth() = found %v, err %v", found, err)
	}
	if !b.Located() {
		t.Fatal("berth should have a surveyed position")
	}
	if *b.Latitude != lat || *b.Longitude != lon {
		t.Errorf("coordinates = %v,%v, want %v,%v", *b.Latitude, *b.Longitude, lat, lon)
	}
	if b.BorderIn != "" || b.BorderOut != "" {
		t.Errorf("unexpected border links: in=%q out=%q", b.BorderIn, b.BorderOut)
	}
}

func TestUpsertBerth_UpdatePreservesBorders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetBorderOut(ctx, "EA", "T900", "EB"); err != nil {
		t.Fatalf("SetBorderOut() failed: %v", err)
	}

	// A later coordinates import for the same berth must not erase the link.
	lat, lon := 51.9, 0.5
	if err := s.UpsertBerth(ctx, Berth{Area: "EA", Code: "T900", Latitude: &lat, Longitude: &lon}); err != nil {
		t.Fatalf("UpsertBerth() failed: %v", err)
	}

	b, found, err := s.LookupBerth(ctx, "EA", "T900")
	if err != nil || !found {
		t.Fatalf("LookupBerth() = found %v, err %v", found, err)
	}
	if b.BorderOut != "EB" {
		t.Errorf("BorderOut = %q, want EB", b.BorderOut)
	}
	if !b.Located() {
		t.Error("coordinates missing after re-import")
	}
}

func TestSetBorders_BothDirections(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetBorderIn(ctx, "EB", "0001", "EA"); err != nil {
		t.Fatalf("SetBorderIn() failed: %v", err)
	}
	if err := s.SetBorderOut(ctx, "EB", "0001", "EC"); err != nil {
		t.Fatalf("SetBorderOut() failed: %v", err)
	}

	b, found, err := s.LookupBerth(ctx, "EB", "0001")
	if err != nil || !found {
		t.Fatalf("LookupBerth() = found %v, err %v", found, err)
	}
	if b.BorderIn != "EA" {
		t.Errorf("BorderIn = %q, want EA", b.BorderIn)
	}
	if b.BorderOut != "EC" {
		t.Errorf("BorderOut = %q, want EC", b.BorderOut)
	}
	if b.Located() {
		t.Error("border-only berth should have no surveyed position")
	}
}
