package main

import (
	"database/sql"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T) *ContentStore {
	t.Helper()
	store, err := NewContentStore(newTestDB(t))
	if err != nil {
		t.Fatalf("new content store: %v", err)
	}
	return store
}

func TestLoadWithoutSnapshotReturnsDefaults(t *testing.T) {
	store := newTestStore(t)
	if !reflect.DeepEqual(store.Data(), defaultSiteData()) {
		t.Error("fresh store should serve the default content")
	}
}

func TestCommitLoadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store, err := NewContentStore(db)
	if err != nil {
		t.Fatalf("new content store: %v", err)
	}

	want := SiteData{
		ProfileImg: "https://example.com/me.png",
		Bio:        "short bio",
		Career: []CareerItem{
			{Date: "2024", Title: "Thing", Role: "Doer"},
		},
		Works: []WorkItem{
			{ID: 7, Title: "w", Img: "", URL: "https://youtu.be/aqz-KE-bpKQ"},
		},
	}
	if err := store.Commit(want); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A store constructed over the same database must load the commit back.
	reloaded, err := NewContentStore(db)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if got := reloaded.Data(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestLoadCorruptSnapshotFallsBackToDefaults(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec(snapshotSchema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO snapshots (name, data) VALUES (?, ?)`, snapshotName, "{not json"); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	store, err := NewContentStore(db)
	if err != nil {
		t.Fatalf("new content store: %v", err)
	}
	if !reflect.DeepEqual(store.Data(), defaultSiteData()) {
		t.Error("corrupt snapshot should fall back to default content")
	}
}

func TestResetIdempotence(t *testing.T) {
	db := newTestDB(t)
	store, err := NewContentStore(db)
	if err != nil {
		t.Fatalf("new content store: %v", err)
	}

	edited := defaultSiteData()
	edited.Bio = "edited"
	if err := store.Commit(edited); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Reset(); err != nil {
			t.Fatalf("reset %d: %v", i, err)
		}
		if !reflect.DeepEqual(store.Data(), defaultSiteData()) {
			t.Fatalf("reset %d did not restore defaults", i)
		}
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE name = ?`, snapshotName).Scan(&count); err != nil {
			t.Fatalf("count snapshots: %v", err)
		}
		if count != 0 {
			t.Fatalf("reset %d left %d snapshot rows", i, count)
		}
	}
}

func TestCommitFailureKeepsPreviousState(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	store, err := NewContentStore(db)
	if err != nil {
		t.Fatalf("new content store: %v", err)
	}

	before := store.Data()

	// Closing the database makes the snapshot write fail.
	db.Close()

	next := before.Clone()
	next.Bio = "never persisted"
	if err := store.Commit(next); err == nil {
		t.Fatal("commit should fail once the database is closed")
	}
	if !reflect.DeepEqual(store.Data(), before) {
		t.Error("failed commit must leave the previous state visible")
	}
}
