package directory

import (
	"context"
	"testing"
	"time"
)

func TestEntry_Fresh(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 5 * time.Minute

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{"just fetched", now, true},
		{"within ttl", now.Add(-4 * time.Minute), true},
		{"exactly at ttl", now.Add(-5 * time.Minute), false},
		{"expired", now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{FetchedAt: tt.fetchedAt}
			if got := e.Fresh(now, ttl); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}

			s := &Snapshot{FetchedAt: tt.fetchedAt}
			if got := s.Fresh(now, ttl); got != tt.want {
				t.Errorf("Snapshot.Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemorySnapshotStore_EmptyLoad(t *testing.T) {
	s := NewMemorySnapshotStore()

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap != nil {
		t.Errorf("Load() on empty store = %+v, want nil", snap)
	}
}

func TestMemorySnapshotStore_SaveThenLoad(t *testing.T) {
	s := NewMemorySnapshotStore()
	want := Snapshot{
		Records:   ProviderList{{ID: "1", Company: "Acme", Category: "Plumbing"}},
		FetchedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() = nil after Save")
	}
	if !got.FetchedAt.Equal(want.FetchedAt) || len(got.Records) != 1 || got.Records[0] != want.Records[0] {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestMemorySnapshotStore_SaveOverwrites(t *testing.T) {
	s := NewMemorySnapshotStore()
	ctx := context.Background()

	s.Save(ctx, Snapshot{Records: ProviderList{{ID: "old", Company: "Old", Category: "X"}}})
	s.Save(ctx, Snapshot{Records: ProviderList{{ID: "new", Company: "New", Category: "Y"}}})

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Records[0].ID != "new" {
		t.Errorf("Load() returned %q, want the overwriting snapshot", got.Records[0].ID)
	}
}
