package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFingerprintDeterministic(t *testing.T) {
	for _, algo := range []Algorithm{Highway128, MD5} {
		t.Run(string(algo), func(t *testing.T) {
			dir := t.TempDir()
			a := writeFile(t, dir, "a.csv", "id,value\n1,500\n")
			b := writeFile(t, dir, "b.csv", "id,value\n1,500\n")
			c := writeFile(t, dir, "c.csv", "id,value\n1,501\n")

			h, err := New(algo, 8)
			require.NoError(t, err)

			da, err := h.Fingerprint(a)
			require.NoError(t, err)
			db, err := h.Fingerprint(b)
			require.NoError(t, err)
			dc, err := h.Fingerprint(c)
			require.NoError(t, err)

			assert.Equal(t, da, db, "identical bytes give identical digests")
			assert.NotEqual(t, da, dc, "one changed byte changes the digest")
			assert.Len(t, string(da), 32, "128-bit digest, hex encoded")
		})
	}
}

func TestMD5MatchesKnownDigest(t *testing.T) {
	h, err := New(MD5, 1)
	require.NoError(t, err)

	d, err := h.Compute(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, Digest("900150983cd24fb0d6963f7d28e17f72"), d)
}

func TestFingerprintMemoized(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv", "x\n1\n")

	h, err := New(Highway128, 4)
	require.NoError(t, err)

	first, err := h.Fingerprint(path)
	require.NoError(t, err)

	// Changing the file does not invalidate the memo within a run
	require.NoError(t, os.WriteFile(path, []byte("x\n2\n"), 0o644))
	second, err := h.Fingerprint(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), h.Reads())

	h.Forget(path)
	third, err := h.Fingerprint(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, int64(2), h.Reads())
}

func TestFingerprintEvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	h, err := New(Highway128, 2)
	require.NoError(t, err)

	a := writeFile(t, dir, "a.csv", "a")
	b := writeFile(t, dir, "b.csv", "b")
	c := writeFile(t, dir, "c.csv", "c")

	for _, p := range []string{a, b, c} {
		_, err := h.Fingerprint(p)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, h.Cached())
	assert.Equal(t, int64(3), h.Reads())

	// a was evicted, c is still cached
	_, err = h.Fingerprint(c)
	require.NoError(t, err)
	assert.Equal(t, int64(3), h.Reads())

	_, err = h.Fingerprint(a)
	require.NoError(t, err)
	assert.Equal(t, int64(4), h.Reads())
}

func TestFingerprintUnreadableFile(t *testing.T) {
	h, err := New(Highway128, 4)
	require.NoError(t, err)

	_, err = h.Fingerprint(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	_, err := New("sha3", 4)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	h, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAlgorithm, h.Algorithm())
}
