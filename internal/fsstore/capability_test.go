package fsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeCapabilitiesDetectsAtomicRenameAndFsync(t *testing.T) {
	dir := t.TempDir()
	caps := probeCapabilities(dir)

	assert.True(t, caps.AtomicRename)
	assert.True(t, caps.FsyncAfterWrite)
}

func TestProbeIsMemoizedPerProcess(t *testing.T) {
	defer resetProbe()
	resetProbe()

	dirA := t.TempDir()
	dirB := t.TempDir()

	first := Probe(dirA)
	second := Probe(dirB)

	assert.Equal(t, first, second)
}
