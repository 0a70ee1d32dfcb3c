package runlog

import (
	"testing"
	"time"
)

func TestRunLogAppendAndRetrieve(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	started := time.Now().Truncate(time.Second)

	rec := Record{
		RunID:     "run-1",
		Profile:   "core",
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Outcome:   OutcomeSuccess,
		Repos:     3,
		Changed:   true,
		Restarted: true,
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("failed to append record: %v", err)
	}

	records, err := store.ByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ID == 0 {
		t.Error("expected assigned row id")
	}
	if got.Profile != "core" {
		t.Errorf("expected profile core, got %s", got.Profile)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("expected start %v, got %v", started, got.StartedAt)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("expected duration 1.5s, got %v", got.Duration)
	}
	if got.Outcome != OutcomeSuccess {
		t.Errorf("expected outcome %s, got %s", OutcomeSuccess, got.Outcome)
	}
	if got.Repos != 3 {
		t.Errorf("expected 3 repositories, got %d", got.Repos)
	}
	if !got.Changed || !got.Restarted {
		t.Errorf("expected changed and restarted, got %+v", got)
	}
	if got.Error != "" {
		t.Errorf("expected empty error, got %q", got.Error)
	}
}

func TestRunLogRecentOrder(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for _, profile := range []string{"core", "extensions", "skins"} {
		rec := Record{
			RunID:     "run-1",
			Profile:   profile,
			StartedAt: time.Now(),
			Outcome:   OutcomeSuccess,
		}
		if appendErr := store.Append(ctx, rec); appendErr != nil {
			t.Fatalf("failed to append record: %v", appendErr)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("failed to get recent records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Profile != "skins" || records[1].Profile != "extensions" {
		t.Errorf("expected newest first, got %s then %s", records[0].Profile, records[1].Profile)
	}
}

func TestRunLogMultipleRuns(t *testing.T) {
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	failed := Record{
		RunID:     "run-2",
		Profile:   "extensions",
		StartedAt: time.Now(),
		Outcome:   OutcomeFailed,
		Error:     "extension distributor returned no extensions",
	}
	_ = store.Append(ctx, Record{RunID: "run-1", Profile: "core", StartedAt: time.Now(), Outcome: OutcomeSuccess})
	_ = store.Append(ctx, failed)
	_ = store.Append(ctx, Record{RunID: "run-1", Profile: "skins", StartedAt: time.Now(), Outcome: OutcomeSuccess})

	records, err := store.ByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get records: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records for run-1, got %d", len(records))
	}
	if records[0].Profile != "core" || records[1].Profile != "skins" {
		t.Errorf("expected insertion order, got %s then %s", records[0].Profile, records[1].Profile)
	}

	records, err = store.ByRunID(ctx, "run-2")
	if err != nil {
		t.Fatalf("failed to get records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record for run-2, got %d", len(records))
	}
	if records[0].Outcome != OutcomeFailed {
		t.Errorf("expected failed outcome, got %s", records[0].Outcome)
	}
	if records[0].Error == "" {
		t.Error("expected stored error message")
	}
}
