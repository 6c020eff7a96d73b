package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/hudkeep/keeper/internal/journal"
	"github.com/hudkeep/keeper/internal/props"
	"github.com/hudkeep/keeper/internal/reconcile"
	"github.com/hudkeep/keeper/internal/remote"
	"github.com/hudkeep/keeper/internal/util"
)

// Keeper ties the local filesystem, the remote object store and the
// reconciliation rules together. The store client is constructed by the
// caller; Keeper never acquires credentials itself.
type Keeper struct {
	store   remote.Store
	prober  *props.Prober
	journal *journal.Journal // optional audit trail, may be nil
}

// New creates a Keeper. jnl may be nil to disable the journal.
func New(store remote.Store, prober *props.Prober, jnl *journal.Journal) *Keeper {
	return &Keeper{store: store, prober: prober, journal: jnl}
}

// Store reconciles a local file against the remote object at key and
// uploads it when the decision allows. Source is the local file.
func (k *Keeper) Store(ctx context.Context, localPath, key string, policy reconcile.Policy) (reconcile.Action, error) {
	local, err := k.prober.Probe(localPath)
	if err != nil {
		return reconcile.ActionSkip, err
	}

	dest, err := k.headProps(ctx, key)
	if err != nil {
		return reconcile.ActionSkip, err
	}

	action, err := reconcile.Decide(local, dest, policy)
	if err != nil {
		return action, fmt.Errorf("store %s: %w", key, err)
	}

	if action == reconcile.ActionTransfer {
		if err := k.store.Upload(ctx, localPath, key, local.Hash); err != nil {
			return action, err
		}
		slog.Info("stored file", "path", localPath, "key", key, "size", local.Size)
	} else {
		slog.Info("file already stored", "path", localPath, "key", key, "remoteMTime", dest.ModTime)
	}

	k.record(journal.Record{
		Op:      "store",
		Path:    localPath,
		Key:     key,
		Hash:    local.Hash,
		Size:    local.Size,
		ModTime: local.ModTime,
		Action:  action.String(),
	})
	return action, nil
}

// Retrieve reconciles the remote object at key against a local file and
// downloads it when the decision allows. Source is the remote object.
func (k *Keeper) Retrieve(ctx context.Context, localPath, key string, policy reconcile.Policy) (reconcile.Action, error) {
	source, err := k.headProps(ctx, key)
	if err != nil {
		return reconcile.ActionSkip, err
	}
	if source == nil {
		return reconcile.ActionSkip, fmt.Errorf("retrieve %s: %w", key, remote.ErrNotFound)
	}

	var dest *props.FileProperties
	local, err := k.prober.Probe(localPath)
	switch {
	case err == nil:
		dest = &local
	case errors.Is(err, os.ErrNotExist):
		dest = nil
	default:
		return reconcile.ActionSkip, err
	}

	action, err := reconcile.Decide(*source, dest, policy)
	if err != nil {
		return action, fmt.Errorf("retrieve %s: %w", key, err)
	}

	if action == reconcile.ActionTransfer {
		if err := k.store.Download(ctx, key, localPath); err != nil {
			return action, err
		}
		slog.Info("retrieved file", "key", key, "path", localPath, "size", source.Size)
	} else {
		slog.Info("local file already matches", "key", key, "path", localPath)
	}

	k.record(journal.Record{
		Op:      "retrieve",
		Path:    localPath,
		Key:     key,
		Hash:    source.Hash,
		Size:    source.Size,
		ModTime: source.ModTime,
		Action:  action.String(),
	})
	return action, nil
}

// List returns the objects stored under prefix.
func (k *Keeper) List(ctx context.Context, prefix string) ([]remote.ObjectInfo, error) {
	return k.store.List(ctx, prefix)
}

// PushResult reports the outcome of one folder push.
type PushResult struct {
	Entries     []reconcile.FolderDiffEntry
	Transferred int
}

// Push mirrors one flat local folder into a remote prefix. The whole
// listing is diffed and gated before any upload starts; a blocked batch
// transfers nothing.
func (k *Keeper) Push(ctx context.Context, localDir, prefix string, policy reconcile.Policy) (*PushResult, error) {
	localEntries, err := k.listLocal(localDir)
	if err != nil {
		return nil, err
	}

	remoteEntries, err := k.listRemote(ctx, prefix)
	if err != nil {
		return nil, err
	}

	entries := reconcile.Diff(localEntries, remoteEntries)
	transfers, err := reconcile.Gate(entries, policy)
	if err != nil {
		return nil, fmt.Errorf("push %s: %w", localDir, err)
	}

	for _, entry := range transfers {
		localPath := filepath.Join(localDir, filepath.FromSlash(entry.RelPath))
		key := util.JoinKey(prefix, entry.RelPath)

		if err := k.store.Upload(ctx, localPath, key, entry.Local.Hash); err != nil {
			return nil, fmt.Errorf("push %s: %w", entry.RelPath, err)
		}
		slog.Info("pushed file", "path", localPath, "key", key, "status", entry.Status.String())

		k.record(journal.Record{
			Op:      "push",
			Path:    localPath,
			Key:     key,
			Hash:    entry.Local.Hash,
			Size:    entry.Local.Size,
			ModTime: entry.Local.ModTime,
			Action:  reconcile.ActionTransfer.String(),
		})
	}

	return &PushResult{Entries: entries, Transferred: len(transfers)}, nil
}

// listLocal probes every regular file at the top level of dir. The folder
// protocol is flat; subdirectories are skipped.
func (k *Keeper) listLocal(dir string) ([]reconcile.Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]reconcile.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			slog.Debug("skipping subdirectory", "dir", dir, "name", de.Name())
			continue
		}

		fileProps, err := k.prober.Probe(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, err
		}
		entries = append(entries, reconcile.Entry{RelPath: de.Name(), Props: fileProps})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// listRemote fetches the prefix listing and converts keys to relative
// paths with canonicalized hashes.
func (k *Keeper) listRemote(ctx context.Context, prefix string) ([]reconcile.Entry, error) {
	objects, err := k.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	entries := make([]reconcile.Entry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, reconcile.Entry{
			RelPath: util.TrimKeyPrefix(obj.Key, prefix),
			Props:   objectProps(obj),
		})
	}
	return entries, nil
}

// headProps fetches remote metadata as FileProperties. Returns (nil, nil)
// when the object does not exist.
func (k *Keeper) headProps(ctx context.Context, key string) (*props.FileProperties, error) {
	info, err := k.store.Head(ctx, key)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := objectProps(*info)
	return &p, nil
}

// objectProps converts remote metadata, canonicalizing the hash. A hash
// that cannot be normalized is treated as unavailable rather than as a
// mismatch.
func objectProps(info remote.ObjectInfo) props.FileProperties {
	hash := ""
	if info.Hash != "" {
		normalized, err := props.NormalizeHash(info.Hash)
		if err != nil {
			slog.Debug("unusable remote hash", "key", info.Key, "hash", info.Hash, "error", err)
		} else {
			hash = normalized
		}
	}
	return props.FileProperties{
		Hash:    hash,
		Size:    info.Size,
		ModTime: info.ModTime,
	}
}

// record appends to the journal when one is configured. Journal failures
// never fail the transfer they describe.
func (k *Keeper) record(rec journal.Record) {
	if k.journal == nil {
		return
	}
	if err := k.journal.Append(rec); err != nil {
		slog.Warn("failed to record journal entry", "key", rec.Key, "error", err)
	}
}
