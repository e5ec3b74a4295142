package snapshot

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_DistinctContainersNeverCollide(t *testing.T) {
	pairs := [][2]string{
		{"data/run1.h5", "data_run1.h5"},
		{"/x", "x"},
		{"a%2Fb", "a/b"},
		{"run.h5", "run.h5.snap"},
	}

	for _, p := range pairs {
		assert.NotEqual(t, Key(p[0]), Key(p[1]), "%q and %q", p[0], p[1])
	}
}

func TestKey_SingleLevelAndReversible(t *testing.T) {
	for _, name := range []string{"data/run1.h5", "/x", "plain.h5", "with space.h5", "a%b"} {
		key := Key(name)
		assert.NotContains(t, key, "/")
		require.True(t, strings.HasSuffix(key, ".snap"))

		got, err := url.PathUnescape(strings.TrimSuffix(key, ".snap"))
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
}
