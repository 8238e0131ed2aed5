package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextMajorVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"1.0.0", "2.0.0"},
		{"0.0.0", "1.0.0"},
		{"1.2.3", "2.0.0"},
		{"00.1.1", "1.0.0"},
		{"007.08.09", "8.0.0"},
		{"18446744073709551615.0.0", "18446744073709551616.0.0"},
		{"99999999999999999999.0.0", "100000000000000000000.0.0"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.True(t, IsValidVersion(tc.in))
			got, err := NextMajorVersion(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.True(t, IsValidVersion(got))
		})
	}
}

func TestNextMajorVersionRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "1", "1.0", "v1.0.0", "1.0.0-rc.1", "1.0.0+build", "1.0.0.0", " 1.0.0", "a.b.c"} {
		assert.False(t, IsValidVersion(in), in)
		_, err := NextMajorVersion(in)
		assert.Error(t, err, in)
	}
}
