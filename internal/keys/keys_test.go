package keys

import (
	"strings"
	"testing"

	"github.com/git-pkgs/depindex/internal/manifest"
	"github.com/stretchr/testify/assert"
)

func TestEscape_RoundTripsThroughDependent(t *testing.T) {
	names := []string{"plain", "has!bang", "has\x01escape", "@scope/pkg"}
	for _, name := range names {
		key := IndexLatest(manifest.Dep, "dep", name)
		assert.Equal(t, name, Dependent(key), "round-trip for %q", name)
	}
}

func TestEscape_PrefixFree(t *testing.T) {
	// Two distinct names must never produce keys where one's encoding is a
	// prefix of the other's escaped delimiter sequence.
	a := Escape("foo!bar")
	b := Escape("foo")
	assert.False(t, strings.HasPrefix(a, b+"!"))
}

func TestIndexScanPrefix_BoundsOwnFamily(t *testing.T) {
	prefix := IndexScanPrefix(manifest.Dep, "left-pad")
	key := Index(manifest.Dep, "left-pad", "some-dependent", "1.0.0")
	assert.True(t, strings.HasPrefix(key, prefix))

	other := IndexScanPrefix(manifest.Dep, "left-pad-plus")
	assert.False(t, strings.HasPrefix(key, other))
}

func TestDependentVersion(t *testing.T) {
	key := Index(manifest.Dep, "b", "a", "1.0.0")
	dependent, version := DependentVersion(key)
	assert.Equal(t, "a", dependent)
	assert.Equal(t, "1.0.0", version)
}

func TestScanUpperBound_BoundsPrefixScan(t *testing.T) {
	prefix := IndexScanPrefix(manifest.Dep, "b")
	upper := ScanUpperBound(prefix)
	key := Index(manifest.Dep, "b", "a", "1.0.0")
	assert.True(t, key < upper)
	assert.True(t, key > prefix)
}

func TestScanLowerBound_ResumesAfterCursor(t *testing.T) {
	prefix := IndexLatestScanPrefix(manifest.Dep, "b")
	lower := ScanLowerBound(prefix, "a")
	keyA := IndexLatest(manifest.Dep, "b", "a")
	keyB := IndexLatest(manifest.Dep, "b", "b")
	assert.Equal(t, keyA, lower) // resuming strictly after "a" excludes keyA itself
	assert.True(t, keyB > lower)
}
