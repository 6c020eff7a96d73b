package reconcile

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hudkeep/keeper/internal/props"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fileProps(hash string, size int64, mtime time.Time) props.FileProperties {
	return props.FileProperties{Hash: hash, Size: size, ModTime: mtime}
}

func TestDecide(t *testing.T) {
	const (
		hashA = "5eb63bbbe01eeed093cb22bb8f5acdc3"
		hashB = "d41d8cd98f00b204e9800998ecf8427e"
	)

	tests := []struct {
		name         string
		source       props.FileProperties
		dest         *props.FileProperties
		policy       Policy
		expected     Action
		wantConflict bool
		wantPolicy   bool
	}{
		{
			name:     "missing destination transfers",
			source:   fileProps(hashA, 10, baseTime),
			dest:     nil,
			expected: ActionTransfer,
		},
		{
			name:     "equal hashes skip regardless of times",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps(hashA, 10, baseTime.Add(-24*time.Hour))),
			expected: ActionSkip,
		},
		{
			name:     "equal hashes skip even when destination newer",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps(hashA, 10, baseTime.Add(24*time.Hour))),
			expected: ActionSkip,
		},
		{
			name:     "hashes in different encodings still match",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps("XrY7u+Ae7tCTyyK7j1rNww==", 10, baseTime.Add(-time.Hour))),
			expected: ActionSkip,
		},
		{
			name:         "newer destination conflicts",
			source:       fileProps(hashA, 10, baseTime),
			dest:         ptr(fileProps(hashB, 12, baseTime.Add(24*time.Hour))),
			policy:       Policy{Update: true},
			wantConflict: true,
		},
		{
			name:         "newer destination conflicts regardless of update",
			source:       fileProps(hashA, 10, baseTime),
			dest:         ptr(fileProps(hashB, 12, baseTime.Add(time.Second))),
			policy:       Policy{Update: false},
			wantConflict: true,
		},
		{
			name:       "differing hashes without update is a policy violation",
			source:     fileProps(hashA, 10, baseTime),
			dest:       ptr(fileProps(hashB, 12, baseTime.Add(-time.Hour))),
			policy:     Policy{Update: false},
			wantPolicy: true,
		},
		{
			name:     "differing hashes with update transfers",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps(hashB, 12, baseTime.Add(-time.Hour))),
			policy:   Policy{Update: true},
			expected: ActionTransfer,
		},
		{
			name:     "forced transfers over newer destination",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps(hashB, 12, baseTime.Add(24*time.Hour))),
			policy:   Policy{Forced: true},
			expected: ActionTransfer,
		},
		{
			name:     "forced transfers over matching hashes",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps(hashA, 10, baseTime)),
			policy:   Policy{Forced: true},
			expected: ActionTransfer,
		},
		{
			name:     "unknown destination hash falls back to mtime and transfers",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps("", 10, baseTime.Add(-time.Hour))),
			policy:   Policy{Update: true},
			expected: ActionTransfer,
		},
		{
			name:         "unknown destination hash still conflicts when newer",
			source:       fileProps(hashA, 10, baseTime),
			dest:         ptr(fileProps("", 10, baseTime.Add(time.Hour))),
			policy:       Policy{Update: true},
			wantConflict: true,
		},
		{
			name:       "unknown destination hash without update is a policy violation",
			source:     fileProps(hashA, 10, baseTime),
			dest:       ptr(fileProps("", 10, baseTime.Add(-time.Hour))),
			policy:     Policy{Update: false},
			wantPolicy: true,
		},
		{
			name:     "equal mtime with differing hashes and update transfers",
			source:   fileProps(hashA, 10, baseTime),
			dest:     ptr(fileProps(hashB, 12, baseTime)),
			policy:   Policy{Update: true},
			expected: ActionTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := Decide(tt.source, tt.dest, tt.policy)

			if tt.wantConflict {
				var conflictErr *ConflictError
				if !errors.As(err, &conflictErr) {
					t.Fatalf("Decide() error = %v, want ConflictError", err)
				}
				return
			}
			if tt.wantPolicy {
				var policyErr *PolicyError
				if !errors.As(err, &policyErr) {
					t.Fatalf("Decide() error = %v, want PolicyError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Decide() unexpected error: %v", err)
			}
			if action != tt.expected {
				t.Errorf("Decide() = %s, want %s", action, tt.expected)
			}
		})
	}
}

func TestConflictErrorNamesBothTimes(t *testing.T) {
	source := fileProps("5eb63bbbe01eeed093cb22bb8f5acdc3", 10, baseTime)
	dest := fileProps("d41d8cd98f00b204e9800998ecf8427e", 12, baseTime.Add(24*time.Hour))

	_, err := Decide(source, &dest, Policy{})
	if err == nil {
		t.Fatal("Decide() expected conflict")
	}

	msg := err.Error()
	if !strings.Contains(msg, source.ModTime.Format(time.RFC3339)) {
		t.Errorf("conflict message missing source mtime: %s", msg)
	}
	if !strings.Contains(msg, dest.ModTime.Format(time.RFC3339)) {
		t.Errorf("conflict message missing destination mtime: %s", msg)
	}
	if !strings.Contains(msg, "10 bytes") || !strings.Contains(msg, "12 bytes") {
		t.Errorf("conflict message missing sizes: %s", msg)
	}
}

func ptr(p props.FileProperties) *props.FileProperties {
	return &p
}
