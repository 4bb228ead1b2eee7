package pgstore

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/localwise/directory/internal/directory"
)

// fakeDB records Exec calls and serves scripted QueryRow results.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	row      *fakeRow
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if f.row == nil {
		return &fakeRow{err: pgx.ErrNoRows}
	}
	return f.row
}

// fakeRow scans canned values into the caller's destinations.
type fakeRow struct {
	data      []byte
	fetchedAt time.Time
	err       error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.data
	*(dest[1].(*time.Time)) = r.fetchedAt
	return nil
}

func TestInit_CreatesTable(t *testing.T) {
	db := &fakeDB{}
	if err := New(db).Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS provider_snapshots") {
		t.Errorf("Init() executed %v", db.execSQL)
	}
}

func TestSave_UpsertsSingleKeyedRow(t *testing.T) {
	db := &fakeDB{}
	store := New(db)

	snap := directory.Snapshot{
		Records:   directory.ProviderList{{ID: "1", Company: "Acme", Category: "Plumbing"}},
		FetchedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(db.execSQL) != 1 {
		t.Fatalf("Save() executed %d statements, want 1", len(db.execSQL))
	}
	if !strings.Contains(db.execSQL[0], "ON CONFLICT (key) DO UPDATE") {
		t.Errorf("Save() must upsert: %s", db.execSQL[0])
	}

	args := db.execArgs[0]
	if args[0] != snapshotKey {
		t.Errorf("key arg = %v, want %q", args[0], snapshotKey)
	}

	var records directory.ProviderList
	if err := json.Unmarshal(args[2].([]byte), &records); err != nil {
		t.Fatalf("data arg is not JSON: %v", err)
	}
	if len(records) != 1 || records[0].Company != "Acme" {
		t.Errorf("data arg = %+v", records)
	}
}

func TestLoad_MissingRowIsNotAnError(t *testing.T) {
	store := New(&fakeDB{})

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap != nil {
		t.Errorf("Load() = %+v, want nil for missing row", snap)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	records := directory.ProviderList{
		{ID: "1", Company: "Acme", Category: "Plumbing"},
		{ID: "2", Company: "Beta", Category: "Roofing"},
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	fetchedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := New(&fakeDB{row: &fakeRow{data: data, fetchedAt: fetchedAt}})

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap == nil {
		t.Fatal("Load() = nil")
	}
	if !snap.FetchedAt.Equal(fetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", snap.FetchedAt, fetchedAt)
	}
	if len(snap.Records) != 2 || snap.Records[1].Company != "Beta" {
		t.Errorf("Records = %+v", snap.Records)
	}
}
