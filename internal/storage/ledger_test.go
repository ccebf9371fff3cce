package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := NewLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewLedger() error: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestLedgerRecordAndGet(t *testing.T) {
	ledger := newTestLedger(t)

	entry := LedgerEntry{
		JobID:             "job-123",
		Email:             "alice@example.com",
		Question:          "Staying Connected",
		MediaURL:          "https://media.example.com/a.mp3",
		QualityRating:     "good",
		OverallConfidence: 0.93,
		WordCount:         42,
		StoredAt:          time.Now().UTC(),
	}
	if err := ledger.Record(entry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	got, err := ledger.Get("job-123")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Email != entry.Email {
		t.Errorf("Email = %q, want %q", got.Email, entry.Email)
	}
	if got.QualityRating != "good" {
		t.Errorf("QualityRating = %q, want good", got.QualityRating)
	}
	if got.OverallConfidence != 0.93 {
		t.Errorf("OverallConfidence = %v, want 0.93", got.OverallConfidence)
	}
	if got.WordCount != 42 {
		t.Errorf("WordCount = %d, want 42", got.WordCount)
	}
}

func TestLedgerGetMissingJob(t *testing.T) {
	ledger := newTestLedger(t)

	if _, err := ledger.Get("no-such-job"); err == nil {
		t.Fatal("Get() error = nil for missing job, want error")
	}
}

func TestLedgerRecordReplacesSameJob(t *testing.T) {
	ledger := newTestLedger(t)

	entry := LedgerEntry{
		JobID:         "job-123",
		Email:         "alice@example.com",
		Question:      "Staying Connected",
		QualityRating: "fair",
		StoredAt:      time.Now().UTC(),
	}
	if err := ledger.Record(entry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	entry.QualityRating = "good"
	if err := ledger.Record(entry); err != nil {
		t.Fatalf("second Record() error: %v", err)
	}

	got, err := ledger.Get("job-123")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.QualityRating != "good" {
		t.Errorf("QualityRating = %q, want replayed value good", got.QualityRating)
	}

	entries, err := ledger.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Recent() returned %d entries, want 1", len(entries))
	}
}

func TestLedgerRecentOrdering(t *testing.T) {
	ledger := newTestLedger(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"job-old", "job-mid", "job-new"} {
		err := ledger.Record(LedgerEntry{
			JobID:    id,
			Email:    "alice@example.com",
			Question: "Staying Connected",
			StoredAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record(%s) error: %v", id, err)
		}
	}

	entries, err := ledger.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(entries))
	}
	if entries[0].JobID != "job-new" || entries[1].JobID != "job-mid" {
		t.Errorf("Recent() order = %s, %s; want job-new, job-mid", entries[0].JobID, entries[1].JobID)
	}
}

func TestLedgerPruneOlderThan(t *testing.T) {
	ledger := newTestLedger(t)

	now := time.Now().UTC()
	old := LedgerEntry{JobID: "job-old", Email: "a@example.com", Question: "Q", StoredAt: now.Add(-48 * time.Hour)}
	fresh := LedgerEntry{JobID: "job-new", Email: "a@example.com", Question: "Q", StoredAt: now}
	if err := ledger.Record(old); err != nil {
		t.Fatalf("Record(old) error: %v", err)
	}
	if err := ledger.Record(fresh); err != nil {
		t.Fatalf("Record(fresh) error: %v", err)
	}

	removed, err := ledger.PruneOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneOlderThan() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneOlderThan() removed %d rows, want 1", removed)
	}

	if _, err := ledger.Get("job-old"); err == nil {
		t.Error("old entry still present after prune")
	}
	if _, err := ledger.Get("job-new"); err != nil {
		t.Errorf("fresh entry missing after prune: %v", err)
	}
}
