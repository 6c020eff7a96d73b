package reconcile

import (
	"errors"
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	const (
		hashA = "5eb63bbbe01eeed093cb22bb8f5acdc3"
		hashB = "d41d8cd98f00b204e9800998ecf8427e"
		hashC = "9e107d9d372bb6826bd81d3542a419d6"
	)

	local := []Entry{
		{RelPath: "a.csv", Props: fileProps(hashA, 10, t0)},
		{RelPath: "b.csv", Props: fileProps(hashB, 20, t0)},
		{RelPath: "c.csv", Props: fileProps(hashC, 30, t0.Add(time.Hour))},
		{RelPath: "d.csv", Props: fileProps(hashA, 40, t0)},
	}
	remote := []Entry{
		{RelPath: "b.csv", Props: fileProps(hashB, 20, t0.Add(-time.Hour))},
		{RelPath: "c.csv", Props: fileProps(hashA, 31, t0)},
		{RelPath: "d.csv", Props: fileProps(hashB, 41, t0.Add(time.Hour))},
		{RelPath: "remote-only.csv", Props: fileProps(hashA, 5, t0)},
	}

	entries := Diff(local, remote)

	if len(entries) != 4 {
		t.Fatalf("Diff() returned %d entries, want 4 (remote-only paths omitted)", len(entries))
	}

	expected := map[string]Status{
		"a.csv": StatusNew,       // only local
		"b.csv": StatusUnchanged, // hashes match
		"c.csv": StatusUpdated,   // local newer, hashes differ
		"d.csv": StatusError,     // remote newer
	}
	for _, entry := range entries {
		want, ok := expected[entry.RelPath]
		if !ok {
			t.Errorf("Diff() unexpected entry %s", entry.RelPath)
			continue
		}
		if entry.Status != want {
			t.Errorf("Diff() %s = %s, want %s", entry.RelPath, entry.Status, want)
		}
	}

	// Deterministic path ordering.
	for i := 1; i < len(entries); i++ {
		if entries[i-1].RelPath >= entries[i].RelPath {
			t.Errorf("Diff() entries not sorted: %s before %s", entries[i-1].RelPath, entries[i].RelPath)
		}
	}
}

func TestDiffTieWithDifferingHashesIsError(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	entries := Diff(
		[]Entry{{RelPath: "x.csv", Props: fileProps("5eb63bbbe01eeed093cb22bb8f5acdc3", 1, t0)}},
		[]Entry{{RelPath: "x.csv", Props: fileProps("d41d8cd98f00b204e9800998ecf8427e", 2, t0)}},
	)
	if len(entries) != 1 || entries[0].Status != StatusError {
		t.Fatalf("Diff() = %+v, want single error entry", entries)
	}
}

func TestGate(t *testing.T) {
	newEntry := FolderDiffEntry{RelPath: "a.csv", Status: StatusNew}
	unchangedEntry := FolderDiffEntry{RelPath: "b.csv", Status: StatusUnchanged}
	updatedEntry := FolderDiffEntry{RelPath: "c.csv", Status: StatusUpdated}
	errorEntry := FolderDiffEntry{RelPath: "d.csv", Status: StatusError}

	t.Run("clean batch transfers new and updated only", func(t *testing.T) {
		transfers, err := Gate([]FolderDiffEntry{newEntry, unchangedEntry, updatedEntry}, Policy{Update: true})
		if err != nil {
			t.Fatalf("Gate() unexpected error: %v", err)
		}
		if len(transfers) != 2 {
			t.Fatalf("Gate() transfers = %d, want 2", len(transfers))
		}
		for _, entry := range transfers {
			if entry.Status == StatusUnchanged {
				t.Error("Gate() re-transferred an unchanged entry")
			}
		}
	})

	t.Run("error entry aborts whole batch", func(t *testing.T) {
		transfers, err := Gate([]FolderDiffEntry{newEntry, unchangedEntry, errorEntry}, Policy{Update: true})
		var batchErr *BatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("Gate() error = %v, want BatchError", err)
		}
		if transfers != nil {
			t.Errorf("Gate() returned transfers on abort: %v", transfers)
		}
		if len(batchErr.Offending) != 1 || batchErr.Offending[0].RelPath != "d.csv" {
			t.Errorf("Gate() offending = %+v, want d.csv", batchErr.Offending)
		}
	})

	t.Run("updated entry without update aborts", func(t *testing.T) {
		_, err := Gate([]FolderDiffEntry{newEntry, updatedEntry}, Policy{Update: false})
		var batchErr *BatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("Gate() error = %v, want BatchError", err)
		}
	})

	t.Run("forced clears errors but never retransfers unchanged", func(t *testing.T) {
		transfers, err := Gate([]FolderDiffEntry{newEntry, unchangedEntry, updatedEntry, errorEntry}, Policy{Forced: true})
		if err != nil {
			t.Fatalf("Gate() unexpected error: %v", err)
		}
		if len(transfers) != 3 {
			t.Fatalf("Gate() transfers = %d, want 3", len(transfers))
		}
		for _, entry := range transfers {
			if entry.Status == StatusUnchanged {
				t.Error("Gate() re-transferred an unchanged entry under forced")
			}
		}
	})

	t.Run("empty diff is a no-op", func(t *testing.T) {
		transfers, err := Gate(nil, Policy{})
		if err != nil {
			t.Fatalf("Gate() unexpected error: %v", err)
		}
		if len(transfers) != 0 {
			t.Errorf("Gate() transfers = %d, want 0", len(transfers))
		}
	})
}
