package fsstore

import (
	"os"
	"path/filepath"
	"sync"
)

// Capabilities records the outcome of the feature-detection probe run at
// initialization (spec.md §4.7): whether atomic rename, fsync-after-write,
// and case-sensitive paths behave as the core expects. Writes degrade
// gracefully when a capability is missing.
type Capabilities struct {
	AtomicRename      bool
	FsyncAfterWrite   bool
	CaseSensitivePaths bool
}

var probeOnce sync.Once
var probed Capabilities

// Probe performs a small write under dir and records capabilities. It is
// idempotent per process; subsequent calls return the first result.
func Probe(dir string) Capabilities {
	probeOnce.Do(func() {
		probed = probeCapabilities(dir)
	})
	return probed
}

func probeCapabilities(dir string) Capabilities {
	caps := Capabilities{}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return caps
	}

	probePath := filepath.Join(dir, ".kohl-capability-probe")
	tmpPath := probePath + ".tmp"
	defer os.Remove(probePath)
	defer os.Remove(tmpPath)

	if err := os.WriteFile(tmpPath, []byte("probe"), 0o644); err != nil {
		return caps
	}
	f, err := os.Open(tmpPath)
	if err == nil {
		caps.FsyncAfterWrite = f.Sync() == nil
		f.Close()
	}

	if err := os.Rename(tmpPath, probePath); err == nil {
		caps.AtomicRename = true
	}

	upper := filepath.Join(dir, ".KOHL-CAPABILITY-PROBE")
	if _, err := os.Stat(upper); err != nil {
		caps.CaseSensitivePaths = true
	} else {
		caps.CaseSensitivePaths = false
	}

	return caps
}

// resetProbe is test-only: it clears the memoized probe result so tests can
// exercise probeCapabilities against a fresh directory.
func resetProbe() {
	probeOnce = sync.Once{}
}
