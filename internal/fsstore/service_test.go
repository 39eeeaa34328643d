package fsstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextAtomicThenReadText(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(SystemPath(dir), SystemPath(filepath.Join(dir, ".kohl")))

	err := svc.WriteTextAtomic(VaultPath("notes/one.md"), "# hello\n")
	require.NoError(t, err)

	got, err := svc.ReadText(VaultPath("notes/one.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hello\n", got)
}

func TestReadTextMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(SystemPath(dir), SystemPath(filepath.Join(dir, ".kohl")))

	_, err := svc.ReadText(VaultPath("nope.md"))
	require.Error(t, err)
}

func TestListFilesCachesAndInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(SystemPath(dir), SystemPath(filepath.Join(dir, ".kohl")))
	ctx := context.Background()

	require.NoError(t, svc.WriteTextAtomic(VaultPath("a.md"), "a"))

	first, err := svc.ListFiles(ctx, VaultPath(""), ListOptions{Extensions: []string{"md"}, Recursive: true})
	require.NoError(t, err)
	assert.Len(t, first.Files, 1)

	require.NoError(t, svc.WriteTextAtomic(VaultPath("b.md"), "b"))

	second, err := svc.ListFiles(ctx, VaultPath(""), ListOptions{Extensions: []string{"md"}, Recursive: true})
	require.NoError(t, err)
	assert.Len(t, second.Files, 2)
}

func TestListFilesNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(SystemPath(dir), SystemPath(filepath.Join(dir, ".kohl")))
	ctx := context.Background()

	require.NoError(t, svc.WriteTextAtomic(VaultPath("top.md"), "x"))
	require.NoError(t, svc.WriteTextAtomic(VaultPath("nested/deep.md"), "y"))

	result, err := svc.ListFiles(ctx, VaultPath(""), ListOptions{Extensions: []string{"md"}, Recursive: false})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, VaultPath("top.md"), result.Files[0])
}

func TestModTimeReflectsLastWrite(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(SystemPath(dir), SystemPath(filepath.Join(dir, ".kohl")))
	require.NoError(t, svc.WriteTextAtomic(VaultPath("a.md"), "a"))

	mt, err := svc.ModTime(VaultPath("a.md"))
	require.NoError(t, err)
	assert.False(t, mt.IsZero())
}
