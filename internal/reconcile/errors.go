package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/hudkeep/keeper/internal/props"
)

// ConflictError is returned when the destination is strictly newer than the
// source: overwriting it would silently lose the newer copy. Both sides are
// reported so the caller can decide whether to re-run with Forced.
type ConflictError struct {
	Source      props.FileProperties
	Destination props.FileProperties
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"destination is newer than source: source (%d bytes, hash %s, last modified %s) vs destination (%d bytes, hash %s, last modified %s); use forced to overwrite",
		e.Source.Size, orUnknown(e.Source.Hash), formatTime(e.Source.ModTime),
		e.Destination.Size, orUnknown(e.Destination.Hash), formatTime(e.Destination.ModTime),
	)
}

// PolicyError is returned when the destination exists and differs but the
// caller did not allow updates.
type PolicyError struct {
	Source      props.FileProperties
	Destination props.FileProperties
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf(
		"destination exists and differs: source (%d bytes, hash %s, last modified %s) vs destination (%d bytes, hash %s, last modified %s); use update to overwrite",
		e.Source.Size, orUnknown(e.Source.Hash), formatTime(e.Source.ModTime),
		e.Destination.Size, orUnknown(e.Destination.Hash), formatTime(e.Destination.ModTime),
	)
}

// BatchError aborts an entire folder transfer. Offending holds every entry
// that triggered the abort; no file in the batch was transferred.
type BatchError struct {
	Offending []FolderDiffEntry
}

func (e *BatchError) Error() string {
	paths := make([]string, 0, len(e.Offending))
	for _, entry := range e.Offending {
		paths = append(paths, fmt.Sprintf("%s (%s)", entry.RelPath, entry.Status))
	}
	return fmt.Sprintf("batch aborted, %d file(s) blocked: %s", len(e.Offending), strings.Join(paths, ", "))
}

func orUnknown(hash string) string {
	if hash == "" {
		return "unknown"
	}
	return hash
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
