package reconcile

import (
	"log/slog"

	"github.com/hudkeep/keeper/internal/props"
)

// Policy controls how a reconciliation treats an existing destination.
type Policy struct {
	// Update allows a newer source to overwrite a differing destination.
	Update bool
	// Forced skips all comparisons and always transfers.
	Forced bool
}

// Action is the terminal result of one reconciliation.
type Action int

const (
	// ActionSkip means the two sides are already in sync.
	ActionSkip Action = iota
	// ActionTransfer means the source should overwrite the destination.
	ActionTransfer
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Decide compares a source against an optional destination and decides
// whether to transfer. It applies symmetrically to store (source=local,
// destination=remote) and retrieve (source=remote, destination=local).
// dest is nil when the destination does not exist.
//
// The decision order:
//  1. no destination: transfer
//  2. forced: transfer
//  3. hashes equal: skip
//  4. destination strictly newer: ConflictError
//  5. update disallowed: PolicyError
//  6. otherwise: transfer
//
// A destination without a hash weakens step 3 only; steps 4-6 still apply,
// so "hash unknown" is never treated as "hash mismatch".
func Decide(source props.FileProperties, dest *props.FileProperties, policy Policy) (Action, error) {
	if dest == nil {
		return ActionTransfer, nil
	}

	if policy.Forced {
		return ActionTransfer, nil
	}

	if dest.HasHash() && source.HasHash() && hashesEqual(source.Hash, dest.Hash) {
		return ActionSkip, nil
	}

	slog.Debug("reconcile: destination differs",
		"sourceHash", source.Hash,
		"destHash", dest.Hash,
		"sourceMTime", source.ModTime,
		"destMTime", dest.ModTime,
	)

	if dest.ModTime.After(source.ModTime) {
		return ActionSkip, &ConflictError{Source: source, Destination: *dest}
	}

	if !policy.Update {
		return ActionSkip, &PolicyError{Source: source, Destination: *dest}
	}

	return ActionTransfer, nil
}

// hashesEqual canonicalizes both renderings before comparing. A hash that
// cannot be normalized counts as unavailable, not as a mismatch.
func hashesEqual(a, b string) bool {
	na, err := props.NormalizeHash(a)
	if err != nil {
		return false
	}
	nb, err := props.NormalizeHash(b)
	if err != nil {
		return false
	}
	return na == nb
}
