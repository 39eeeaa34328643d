package uid

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohlsync/core/internal/fsstore"
)

func TestResolveCollisionsReassignsAllButEarliest(t *testing.T) {
	store, dir := newTestStoreWithRoot(t)
	ctx := context.Background()

	const sharedUID = "11111111-1111-4111-8111-111111111111"
	content := "---\nkohl-uid: " + sharedUID + "\n---\nbody\n"

	require.NoError(t, store.fs.WriteTextAtomic(fsstore.VaultPath("a.md"), content))
	require.NoError(t, store.fs.WriteTextAtomic(fsstore.VaultPath("b.md"), content))

	older := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.md"), older, older))

	groups, err := store.ResolveCollisions(ctx, fsstore.VaultPath(""))
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, sharedUID, group.UID)
	assert.Equal(t, fsstore.VaultPath("a.md"), group.Keep)
	require.Len(t, group.Reassign, 1)
	assert.Equal(t, fsstore.VaultPath("b.md"), group.Reassign[0])

	rawA, err := store.fs.ReadText(fsstore.VaultPath("a.md"))
	require.NoError(t, err)
	uidA, _ := TryGetUID([]byte(rawA))
	assert.Equal(t, sharedUID, uidA)

	rawB, err := store.fs.ReadText(fsstore.VaultPath("b.md"))
	require.NoError(t, err)
	uidB, _ := TryGetUID([]byte(rawB))
	assert.NotEqual(t, sharedUID, uidB)
}

func TestResolveCollisionsNoopWhenUIDsUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.fs.WriteTextAtomic(fsstore.VaultPath("a.md"), "---\nkohl-uid: 11111111-1111-4111-8111-111111111111\n---\n"))
	require.NoError(t, store.fs.WriteTextAtomic(fsstore.VaultPath("b.md"), "---\nkohl-uid: 22222222-2222-4222-8222-222222222222\n---\n"))

	groups, err := store.ResolveCollisions(ctx, fsstore.VaultPath(""))
	require.NoError(t, err)
	assert.Empty(t, groups)
}
