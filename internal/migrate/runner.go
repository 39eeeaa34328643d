package migrate

import (
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/uid"
	"github.com/kohlsync/core/pkg/interfaces"
)

// Runner bundles the collaborators migrations need: the vault filesystem,
// the Note Identity & Snapshot Store, the Local SQL Index, and the vault
// folder notes live under. Logger is optional; a nil Logger is treated as a
// no-op, matching internal/logging's nil-safe helpers.
type Runner struct {
	FS                *fsstore.Service
	UIDs              *uid.Store
	IndexDB           *index.DB
	HighlightsFolder  fsstore.VaultPath
	LegacySnapshotDir fsstore.SystemPath
	Logger            interfaces.Logger
}
