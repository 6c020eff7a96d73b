package reconcile

import (
	"sort"

	"github.com/hudkeep/keeper/internal/props"
)

// Status classifies one path in a folder diff.
type Status int

const (
	// StatusNew means the file exists only locally.
	StatusNew Status = iota
	// StatusUnchanged means local and remote hashes match.
	StatusUnchanged
	// StatusUpdated means the local copy is newer and differs.
	StatusUpdated
	// StatusError means the remote copy is newer or the pair is undecidable.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusUnchanged:
		return "unchanged"
	case StatusUpdated:
		return "updated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one side of a folder listing: a path relative to the folder root
// (or remote prefix) plus the file's properties.
type Entry struct {
	RelPath string
	Props   props.FileProperties
}

// FolderDiffEntry is the joined view of one relative path across both
// listings. Local or Remote is nil when that side does not have the path.
type FolderDiffEntry struct {
	RelPath string
	Local   *props.FileProperties
	Remote  *props.FileProperties
	Status  Status
}

// Diff joins a local folder listing against a remote prefix listing on
// relative path and classifies every local path. Paths present only remotely
// are not represented: the folder protocol only pushes local files outward,
// it never deletes or pulls unknown remote files.
func Diff(local, remote []Entry) []FolderDiffEntry {
	remoteByPath := make(map[string]props.FileProperties, len(remote))
	for _, entry := range remote {
		remoteByPath[entry.RelPath] = entry.Props
	}

	entries := make([]FolderDiffEntry, 0, len(local))
	for _, entry := range local {
		localProps := entry.Props
		diffEntry := FolderDiffEntry{
			RelPath: entry.RelPath,
			Local:   &localProps,
		}

		remoteProps, ok := remoteByPath[entry.RelPath]
		if !ok {
			diffEntry.Status = StatusNew
			entries = append(entries, diffEntry)
			continue
		}
		diffEntry.Remote = &remoteProps

		switch {
		case remoteProps.HasHash() && localProps.HasHash() && hashesEqual(localProps.Hash, remoteProps.Hash):
			diffEntry.Status = StatusUnchanged
		case localProps.ModTime.After(remoteProps.ModTime):
			diffEntry.Status = StatusUpdated
		default:
			// Remote is newer, or the timestamps tie with differing
			// content. Either way the push cannot decide a winner.
			diffEntry.Status = StatusError
		}

		entries = append(entries, diffEntry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	return entries
}

// Gate applies the batch policy to a diff and returns the set of entries to
// transfer. The gate is all-or-nothing: if any entry is blocked and the
// policy does not clear it, the whole batch aborts with a BatchError and
// zero files are transferred. Unchanged entries are never re-transferred,
// even under Forced.
func Gate(entries []FolderDiffEntry, policy Policy) ([]FolderDiffEntry, error) {
	if policy.Forced {
		transfers := make([]FolderDiffEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Status != StatusUnchanged {
				transfers = append(transfers, entry)
			}
		}
		return transfers, nil
	}

	var offending []FolderDiffEntry
	for _, entry := range entries {
		switch entry.Status {
		case StatusError:
			offending = append(offending, entry)
		case StatusUpdated:
			if !policy.Update {
				offending = append(offending, entry)
			}
		}
	}
	if len(offending) > 0 {
		return nil, &BatchError{Offending: offending}
	}

	transfers := make([]FolderDiffEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Status == StatusNew || entry.Status == StatusUpdated {
			transfers = append(transfers, entry)
		}
	}
	return transfers, nil
}
