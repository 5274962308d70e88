package spewder_test

import (
	"testing"

	"github.com/fwojciec/spewder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFilter_Match(t *testing.T) {
	t.Parallel()

	f, err := spewder.NewURLFilter([]string{`/docs/`}, []string{`/docs/old/`})
	require.NoError(t, err)

	assert.True(t, f.Match("https://a.test/docs/intro"))
	assert.False(t, f.Match("https://a.test/blog/post"))
	assert.False(t, f.Match("https://a.test/docs/old/intro"))
}

func TestURLFilter_NilMatchesEverything(t *testing.T) {
	t.Parallel()

	f, err := spewder.NewURLFilter(nil, nil)
	require.NoError(t, err)

	assert.Nil(t, f)
	assert.True(t, f.Match("https://a.test/anything"))
}

func TestNewURLFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := spewder.NewURLFilter([]string{`(`}, nil)

	assert.Equal(t, spewder.EINVALID, spewder.ErrorCode(err))
}
